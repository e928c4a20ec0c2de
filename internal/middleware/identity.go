package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-portal-backend/internal/model"
)

// Context keys set by Authenticate.
const (
	principalKey = "principal"
	userIDKey    = "user_id"
	roleKey      = "role"
)

// Principal returns the user resolved for this request, or nil on public routes.
func Principal(c echo.Context) *model.User {
	if u, ok := c.Get(principalKey).(*model.User); ok {
		return u
	}
	return nil
}

// SetPrincipal attaches u to the request context.
func SetPrincipal(c echo.Context, u *model.User) {
	c.Set(principalKey, u)
	c.Set(userIDKey, u.ID)
	c.Set(roleKey, string(u.Role))
}

// userID identifies the caller for rate-limit and cache keys. Unauthenticated
// requests share the "anon" identity.
func userID(c echo.Context) string {
	if s, ok := c.Get(userIDKey).(string); ok && s != "" {
		return s
	}
	return "anon"
}
