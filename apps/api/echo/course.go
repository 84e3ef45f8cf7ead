package echoapi

import (
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/courseinfo"
	"github.com/trezcool/lumen/core/user"
)

const usernameParam = "username"

type courseApi struct {
	auth     *authenticator
	svc      course.ServiceInterface
	infoSvc  courseinfo.ServiceInterface
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt, optionalJWT echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := courseApi{
		auth:     auth,
		svc:      deps.CourseSvc,
		infoSvc:  deps.CourseInfoSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/courses/v1")
	cg.GET("/courses", api.list, optionalJWT)
	cg.GET("/courses/*", api.retrieve, optionalJWT)
	cg.PUT("/courses/*", api.save, jwt, auth.staffMiddleware)
	cg.GET("/info/*", api.info, optionalJWT)
	cg.PUT("/positions/*", api.recordPosition, jwt)
}

// courseKeyParam parses the course key making up the rest of the request path.
func courseKeyParam(ctx echo.Context) (course.Key, error) {
	raw, err := url.PathUnescape(ctx.Param("*"))
	if err != nil {
		return course.Key{}, course.ErrInvalidKey
	}
	key, err := course.ParseKey(raw)
	if err != nil {
		return course.Key{}, course.ErrInvalidKey
	}
	return key, nil
}

// targetUsername is the `username` query param; it defaults to the requester's own username.
func targetUsername(ctx echo.Context, requester user.User) string {
	if values, ok := ctx.QueryParams()[usernameParam]; ok {
		if len(values) == 0 {
			return ""
		}
		return values[0]
	}
	return requester.Username
}

type PositionRequest struct {
	Chapter string `json:"chapter" validate:"required,notblank"`
	Section string `json:"section" validate:"required,notblank"`
}

func (pr *PositionRequest) Validate(validate *validator.Validate) error {
	pr.Chapter = core.CleanString(pr.Chapter)
	pr.Section = core.CleanString(pr.Section)
	return validate.Struct(pr)
}

// Handlers

func (api *courseApi) list(ctx echo.Context) error {
	requester, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	courses, err := api.svc.List(ctx.Request().Context(), requester, targetUsername(ctx, requester))
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}
	return ctx.JSON(http.StatusOK, course.NewOverviews(courses))
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	key, err := courseKeyParam(ctx)
	if err != nil {
		return err
	}
	requester, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	c, err := api.svc.Detail(ctx.Request().Context(), requester, targetUsername(ctx, requester), key)
	if err != nil {
		return errors.Wrap(err, "retrieving course")
	}
	return ctx.JSON(http.StatusOK, course.NewOverview(c))
}

func (api *courseApi) save(ctx echo.Context) error {
	key, err := courseKeyParam(ctx)
	if err != nil {
		return err
	}
	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	data.Key = key.String()
	if err = data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}
	c, err := api.svc.Save(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving course")
	}
	return ctx.JSON(http.StatusOK, course.NewOverview(c))
}

func (api *courseApi) info(ctx echo.Context) error {
	key, err := courseKeyParam(ctx)
	if err != nil {
		return err
	}
	viewer, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	info, err := api.infoSvc.Get(ctx.Request().Context(), viewer, key)
	if err != nil {
		return errors.Wrap(err, "getting course info")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *courseApi) recordPosition(ctx echo.Context) error {
	key, err := courseKeyParam(ctx)
	if err != nil {
		return err
	}
	var data PositionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PositionRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	viewer, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	pos, err := api.infoSvc.RecordPosition(ctx.Request().Context(), viewer, key, data.Chapter, data.Section)
	if err != nil {
		return errors.Wrap(err, "recording position")
	}
	return ctx.JSON(http.StatusOK, pos)
}
