package echoapi

import (
	"net/http"
	"net/url"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/lumen/core"
	"github.com/trezcool/lumen/core/access"
	"github.com/trezcool/lumen/core/certificate"
	"github.com/trezcool/lumen/core/configmodel"
	"github.com/trezcool/lumen/core/course"
	"github.com/trezcool/lumen/core/courseinfo"
	"github.com/trezcool/lumen/core/enrollment"
	"github.com/trezcool/lumen/core/user"
)

const dashboardPath = "/dashboard"

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// domainHTTPError maps the errors of the core packages to HTTP errors; nil if err is not one of them.
func domainHTTPError(err error) *echo.HTTPError {
	switch err {
	case course.ErrNotFound,
		enrollment.ErrNotFound,
		certificate.ErrNotFound,
		courseinfo.ErrNoPosition,
		configmodel.ErrUnknownModel,
		user.ErrNotFound,
		access.ErrTargetNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case access.ErrPermissionDenied:
		return errHttpForbidden
	case access.ErrBadTarget,
		course.ErrInvalidKey,
		enrollment.ErrAnonymous,
		courseinfo.ErrAnonymous:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return nil
	}
}

// notLiveURL is where viewers of courses that have not started yet are sent.
func notLiveURL(err *courseinfo.NotLiveError) string {
	q := make(url.Values)
	q.Set("notlive", err.StartDisplay())
	return dashboardPath + "?" + q.Encode()
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *courseinfo.NotLiveError:
			if !ctx.Response().Committed {
				if rErr := ctx.Redirect(http.StatusFound, notLiveURL(origErr)); rErr != nil {
					ctx.Echo().Logger.Error(rErr)
				}
			}
			return
		default:
			if herr := domainHTTPError(origErr); herr != nil {
				code = herr.Code
				message = herr.Message
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Username = claims.Username
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
