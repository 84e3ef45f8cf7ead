package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core/configmodel"
)

type configApi struct {
	auth *authenticator
	svc  configmodel.ServiceInterface
}

func registerConfigAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := configApi{auth: auth, svc: deps.ConfigSvc}

	cg := g.Group("/config/v1", jwt, auth.staffMiddleware)
	cg.GET("/:model", api.retrieve)
	cg.POST("/:model", api.add)
}

// Handlers

func (api *configApi) retrieve(ctx echo.Context) error {
	cfg, err := api.svc.Get(ctx.Request().Context(), ctx.Param("model"))
	if err != nil {
		return errors.Wrap(err, "getting config")
	}
	return ctx.JSON(http.StatusOK, cfg)
}

func (api *configApi) add(ctx echo.Context) error {
	model := ctx.Param("model")
	cfg, err := api.svc.New(model)
	if err != nil {
		return err
	}
	if err = ctx.Bind(cfg); err != nil {
		return errors.Wrapf(err, "binding to %s config", model)
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	saved, err := api.svc.Add(ctx.Request().Context(), usr, model, cfg)
	if err != nil {
		return errors.Wrapf(err, "adding %s config", model)
	}
	return ctx.JSON(http.StatusCreated, saved)
}
