package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

const (
	statusFail  = "fail"
	statusError = "error"

	msgServerError = "Something went very wrong!"
)

var errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")

type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Reason  string            `json:"reason,omitempty"`
	Errors  []core.FieldError `json:"errors,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code := http.StatusBadRequest
		resp := errorResponse{Status: statusFail}

		switch origErr := errors.Cause(core.TranslateValidationErrors(errors.Cause(err), translator)).(type) {
		case *echo.HTTPError:
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				resp.Message = msg
			} else {
				resp.Message = http.StatusText(code)
			}
		case *core.ValidationError:
			resp.Message = "Invalid input data"
			if origErr.Err != nil {
				resp.Message = origErr.Err.Error()
			}
			resp.Errors = origErr.Fields
			if len(resp.Errors) == 1 && origErr.Err == nil {
				resp.Message = resp.Errors[0].Error
			}
		case *core.NotFoundError:
			code = http.StatusNotFound
			resp.Message = origErr.Error()
		case *core.ConflictError:
			resp.Message = origErr.Message
		case *core.AuthError:
			code = http.StatusUnauthorized
			resp.Message = origErr.Message
		case *core.ForbiddenError:
			code = http.StatusForbidden
			resp.Message = origErr.Message
			resp.Reason = origErr.Reason
		default: // any other error is a server error
			code = http.StatusInternalServerError
			resp.Message = msgServerError

			args := []interface{}{errors.Wrap(err, msgServerError)}
			if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
				args = append(args, usr)
			}
			logger.Error(err.Error(), args...)

			if ctx.Echo().Debug {
				resp.Message = err.Error()
			}
			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}
		if code >= http.StatusInternalServerError {
			resp.Status = statusError
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
