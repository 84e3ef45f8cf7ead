package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/certificate"
)

type certificateApi struct {
	auth     *authenticator
	svc      certificate.ServiceInterface
	validate *validator.Validate
}

func registerCertificateAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := certificateApi{auth: auth, svc: deps.CertificateSvc, validate: deps.Validate}

	cg := g.Group("/certificates/v1", jwt)
	cg.GET("/certificates/:username/courses/*", api.retrieve)
	cg.POST("/certificates", api.issue, auth.staffMiddleware)
	cg.POST("/whitelist", api.whitelist, auth.staffMiddleware)
}

// Handlers

func (api *certificateApi) retrieve(ctx echo.Context) error {
	key, err := courseKeyParam(ctx)
	if err != nil {
		return err
	}
	requester, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	view, err := api.svc.Get(ctx.Request().Context(), requester, ctx.Param("username"), key)
	if err != nil {
		return errors.Wrap(err, "getting certificate")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *certificateApi) issue(ctx echo.Context) error {
	var data certificate.NewCertificate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCertificate")
	}
	data.Username = core.CleanString(data.Username, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	cert, err := api.svc.Issue(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "issuing certificate")
	}
	return ctx.JSON(http.StatusOK, cert)
}

func (api *certificateApi) whitelist(ctx echo.Context) error {
	var data certificate.NewWhitelist
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewWhitelist")
	}
	data.Username = core.CleanString(data.Username, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	wl, err := api.svc.SetWhitelist(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "whitelisting")
	}
	return ctx.JSON(http.StatusOK, wl)
}
