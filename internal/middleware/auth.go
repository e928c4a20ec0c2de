package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-portal-backend/internal/service"
	"github.com/iliyamo/hr-portal-backend/internal/utils"
)

// Authenticate verifies the Bearer token, resolves it into a principal with
// resolver and stores the principal in the context. Failures are returned as
// service errors so the central error handler picks the status.
func Authenticate(secret string, resolver *service.Resolver, now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := utils.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			claims, err := utils.VerifyToken(raw, secret, now())
			if err != nil {
				return err
			}
			u, err := resolver.Resolve(c.Request().Context(), claims)
			if err != nil {
				return err
			}
			SetPrincipal(c, u)
			return next(c)
		}
	}
}
