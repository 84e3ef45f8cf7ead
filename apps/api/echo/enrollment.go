package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core/enrollment"
)

type enrollmentApi struct {
	auth     *authenticator
	svc      enrollment.ServiceInterface
	validate *validator.Validate
}

func registerEnrollmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := enrollmentApi{auth: auth, svc: deps.EnrollmentSvc, validate: deps.Validate}

	eg := g.Group("/enrollment/v1/enrollments", jwt)
	eg.GET("", api.query)
	eg.GET("/*", api.retrieve)
	eg.POST("/*", api.enroll)
	eg.DELETE("/*", api.unenroll)
}

// Handlers

func (api *enrollmentApi) query(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	enrollments, err := api.svc.Query(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	key, err := courseKeyParam(ctx)
	if err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	e, err := api.svc.Get(ctx.Request().Context(), usr, key)
	if err != nil {
		return errors.Wrap(err, "getting enrollment")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	key, err := courseKeyParam(ctx)
	if err != nil {
		return err
	}
	var data enrollment.Request
	if ctx.Request().ContentLength != 0 {
		if err = ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to enrollment.Request")
		}
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	e, err := api.svc.Enroll(ctx.Request().Context(), usr, key, data.Mode)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) unenroll(ctx echo.Context) error {
	key, err := courseKeyParam(ctx)
	if err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	e, err := api.svc.Unenroll(ctx.Request().Context(), usr, key)
	if err != nil {
		return errors.Wrap(err, "unenrolling")
	}
	return ctx.JSON(http.StatusOK, e)
}
