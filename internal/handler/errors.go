package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hr-portal-backend/internal/repository"
	"github.com/iliyamo/hr-portal-backend/internal/service"
)

// genericAuthMessage hides the reason for an authentication failure in production.
const genericAuthMessage = "authentication required"

// errorStatus maps a service or repository error to an HTTP status and a
// client-facing message. dev selects detailed authentication messages.
func errorStatus(err error, dev bool) (int, string) {
	var ve *service.ValidationError
	var he *echo.HTTPError
	auth := func(detail string) (int, string) {
		if dev {
			return http.StatusUnauthorized, detail
		}
		return http.StatusUnauthorized, genericAuthMessage
	}

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, service.ErrMissingToken):
		return auth("No token provided")
	case errors.Is(err, service.ErrExpiredToken):
		return auth("Token expired")
	case errors.Is(err, service.ErrInvalidToken):
		return auth("Invalid token")
	case errors.Is(err, service.ErrUserNotFound):
		return auth("User not found")
	case errors.Is(err, service.ErrStoreUnavailable):
		return http.StatusUnauthorized, "cannot verify identity"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, service.ErrUserInactive):
		return http.StatusForbidden, "Your account has been deactivated. Please contact your administrator to reactivate your account."
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		return http.StatusBadRequest, "Already checked in today. Please check out first."
	case errors.Is(err, service.ErrNoActiveCheckIn):
		return http.StatusBadRequest, "No active check-in found. Please check in first."
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "User with this email already exists"
	case errors.Is(err, service.ErrTicketNotFound):
		return http.StatusNotFound, "Query not found"
	case errors.Is(err, service.ErrAccountNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, repository.ErrUnavailable):
		return http.StatusServiceUnavailable, "Service temporarily unavailable"
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}
	return http.StatusInternalServerError, "Internal server error"
}

// ErrorHandler renders every error returned by a handler or middleware as
// {"success": false, "message": ...}. Unexpected errors are logged with the
// request id and never leak their text to the client.
func ErrorHandler(dev bool, log *zap.Logger) echo.HTTPErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg := errorStatus(err, dev)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err))
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, echo.Map{"success": false, "message": msg})
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}

// ok writes the standard success envelope. data and message are omitted
// when empty.
func ok(c echo.Context, status int, message string, data any) error {
	body := echo.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}
