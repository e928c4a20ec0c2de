package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-portal-backend/internal/service"
)

// RequireAdmin rejects principals outside the admin set {admin, superadmin}.
// It must run after Authenticate.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := service.RequireAdmin(Principal(c)); err != nil {
				return err
			}
			return next(c)
		}
	}
}
