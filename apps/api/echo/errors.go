package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/assessment"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/course"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/rubric"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/submission"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHTTPForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHTTPNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

func isNotFound(err error) bool {
	switch err {
	case user.ErrNotFound, course.ErrNotFound, course.ErrAssignmentNotFound,
		submission.ErrNotFound, rubric.ErrNotFound, assessment.ErrNotFound, core.ErrFileNotFound:
		return true
	}
	return false
}

// newAppHTTPErrorHandler returns an echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called to gracefully shut the Server down whenever a core shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
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
			if len(origErr.Fields) > 0 {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *assessment.UpstreamError:
			code = origErr.HTTPStatus()
			message = origErr.PublicMessage()
			if code == http.StatusInternalServerError {
				logger.Error(origErr.PublicMessage(), err, contextUserForLogs(ctx))
			}
		default:
			switch {
			case cause == assessment.ErrMissingAPIKey:
				code = http.StatusInternalServerError
				message = cause.Error()
				logger.Error(cause.Error(), err)
			case cause == assessment.ErrForbidden:
				code = http.StatusForbidden
				message = cause.Error()
			case isNotFound(cause):
				code = http.StatusNotFound
				message = cause.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg
				logger.Error(msg, errors.Wrap(err, msg), contextUserForLogs(ctx))

				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
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

// contextUserForLogs identifies the caller from the JWT claims without hitting the database.
func contextUserForLogs(ctx echo.Context) user.User {
	var usr user.User
	if claims, err := getContextClaims(ctx); err == nil {
		usr.ID = claims.Subject
		usr.FullName = claims.FullName
		usr.Email = claims.Email
	}
	return usr
}
