package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/auth"
	"github.com/trezcool/onestop/core/user"
)

var errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "Page not found.")

const msgServerError = "Something went wrong. Please try again later."

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Browsers get redirects and rendered pages, API clients get `{"message": ...}` bodies.
// Server errors are logged in full; the client only ever sees msgServerError.
func newAppHTTPErrorHandler(logger core.Logger, conf *core.Config) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		client := auth.ClientKindOf(ctx.Request(), conf.Server.APIPrefix)
		var (
			code    int
			message string
		)

		switch origErr := errors.Cause(err).(type) {
		case *auth.RejectionError:
			dec := origErr.Decision
			if dec.Outcome != auth.Forbidden {
				if dec.Client == auth.Browser {
					respond(ctx, ctx.Redirect(http.StatusFound, loginPath))
					return
				}
				code = http.StatusUnauthorized
			} else {
				// the page shows who is logged in, the JSON body never does
				code = http.StatusForbidden
				ctx.Set(contextIdentityKey, dec.Identity)
			}
			client = dec.Client
			message = dec.Message()
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			message = origErr.Error()
		default:
			if origErr == user.ErrNotFound || origErr == academics.ErrNotFound {
				code = http.StatusNotFound
				message = errHttpNotFound.Message.(string)
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			message = msgServerError

			args := []interface{}{errors.Wrap(err, http.StatusText(code))}
			if id, ok := getContextIdentity(ctx); ok {
				args = append(args, id)
			}
			logger.Error(http.StatusText(code), args...)
		}

		// Send response
		switch {
		case ctx.Request().Method == http.MethodHead: // Issue #608
			respond(ctx, ctx.NoContent(code))
		case client == auth.Api:
			respond(ctx, ctx.JSON(code, echo.Map{"message": message}))
		default:
			respond(ctx, ctx.Render(code, viewError, &view{
				AppName: conf.AppName,
				Title:   http.StatusText(code),
				User:    mustIdentity(ctx),
				Error:   message,
				Status:  code,
			}))
		}
	}
}

func respond(ctx echo.Context, err error) {
	if err != nil {
		ctx.Echo().Logger.Error(err)
	}
}
