package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/hr-portal-backend/internal/config"
	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/repository/memstore"
	"github.com/iliyamo/hr-portal-backend/internal/service"
	"github.com/iliyamo/hr-portal-backend/internal/utils"
)

const secret = "mw-secret"

func newContext(method, path, auth string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

func TestAuthenticate(t *testing.T) {
	users := memstore.NewUsers()
	u := users.Put(&model.User{Email: "a@acme.io", Role: model.RoleUser, PasswordHash: "h"})
	off := users.Put(&model.User{Email: "off@acme.io", Role: model.RoleUser, Status: model.StatusDeactivated})
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mw := Authenticate(secret, service.NewPrimaryResolver(nil, users), func() time.Time { return now })

	token := func(id string) string {
		tok, _, err := utils.IssueToken(utils.Claims{UserID: id}, secret, time.Hour, now)
		require.NoError(t, err)
		return "Bearer " + tok
	}

	c, rec := newContext(http.MethodGet, "/", token(u.ID))
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	p := Principal(c)
	require.NotNil(t, p)
	assert.Equal(t, u.ID, p.ID)
	assert.Empty(t, p.PasswordHash)
	assert.Equal(t, u.ID, userID(c))

	tests := []struct {
		name string
		auth string
		want error
	}{
		{"missing", "", service.ErrMissingToken},
		{"wrong scheme", "Basic abc", service.ErrMissingToken},
		{"invalid", "Bearer abc", service.ErrInvalidToken},
		{"unknown user", token(model.NewID()), service.ErrUserNotFound},
		{"inactive", token(off.ID), service.ErrUserInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(http.MethodGet, "/", tt.auth)
			err := mw(ok)(c)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, Principal(c))
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	mw := RequireAdmin()

	c, _ := newContext(http.MethodGet, "/", "")
	assert.ErrorIs(t, mw(ok)(c), service.ErrUserNotFound)

	for role, want := range map[model.Role]error{
		model.RoleUser:       service.ErrAccessDenied,
		model.RoleAdmin:      nil,
		model.RoleSuperAdmin: nil,
	} {
		c, _ := newContext(http.MethodGet, "/", "")
		SetPrincipal(c, &model.User{ID: "u1", Role: role})
		err := mw(ok)(c)
		if want == nil {
			assert.NoError(t, err, role)
		} else {
			assert.ErrorIs(t, err, want, role)
		}
	}
}

func TestUserIDDefaultsToAnon(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/", "")
	assert.Equal(t, "anon", userID(c))
}

func TestRedisBackedMiddlewareWithoutClient(t *testing.T) {
	rl := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, nil)
	cache := NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil, nil)

	for i := 0; i < 3; i++ {
		c, rec := newContext(http.MethodPost, "/api/auth/login", "")
		require.NoError(t, rl(cache(ok))(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestBuildRateKey(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/api/auth/login", "")
	c.SetPath("/api/auth/login")
	c.Request().RemoteAddr = "10.0.0.7:5555"

	assert.Equal(t, "rl:ip:10.0.0.7:route:POST /api/auth/login",
		buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}, c))
	assert.Equal(t, "rl:user:anon", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))

	SetPrincipal(c, &model.User{ID: "u9"})
	assert.Equal(t, "rl:ip:10.0.0.7:user:u9:route:POST /api/auth/login",
		buildRateKey(config.RateLimitConfig{Prefix: "rl"}, c))
}

func TestCacheKeySeparatesUsersAndPaths(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

	c1, _ := newContext(http.MethodGet, "/api/asset-tracker/assets/1", "")
	c1.SetPath("/api/asset-tracker/assets/:id")
	c2, _ := newContext(http.MethodGet, "/api/asset-tracker/assets/2", "")
	c2.SetPath("/api/asset-tracker/assets/:id")
	assert.NotEqual(t, cacheKeyFrom(cfg, c1), cacheKeyFrom(cfg, c2))

	c3, _ := newContext(http.MethodGet, "/api/asset-tracker/assets/1", "")
	c3.SetPath("/api/asset-tracker/assets/:id")
	assert.Equal(t, cacheKeyFrom(cfg, c1), cacheKeyFrom(cfg, c3))
	SetPrincipal(c3, &model.User{ID: "u1"})
	assert.NotEqual(t, cacheKeyFrom(cfg, c1), cacheKeyFrom(cfg, c3))
}

func TestCachePayloadRoundTrip(t *testing.T) {
	h := http.Header{}
	h.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	bs, err := encodePayload(http.StatusOK, h, []byte(`{"success":true}`))
	require.NoError(t, err)

	status, hdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, echo.MIMEApplicationJSON, hdr.Get(echo.HeaderContentType))
	assert.Equal(t, `{"success":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
	_, _, _, ok = decodePayload(append(bs[:4:4], 0, 0, 0xff, 0xff))
	assert.False(t, ok)
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", ok)
	e.GET("/bad", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "bad") })
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	for _, path := range []string{"/ok", "/bad", "/boom"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "anon", entries[0].ContextMap()["user_id"])
}
