package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/hr-portal-backend/internal/handler"
	"github.com/iliyamo/hr-portal-backend/internal/middleware"
	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/repository/memstore"
	"github.com/iliyamo/hr-portal-backend/internal/service"
	"github.com/iliyamo/hr-portal-backend/internal/utils"
)

const secret = "router-test-secret"

type testEnv struct {
	e         *echo.Echo
	primary   *memstore.Users
	secondary *memstore.Users
	now       time.Time
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		primary:   memstore.NewUsers(),
		secondary: memstore.NewUsers(),
		now:       time.Now().UTC(),
	}
	dir := memstore.NewDirectory()
	sharedAuth := service.NewAuthService(env.primary, dir, nil, service.AuthOptions{
		Secret: secret, BcryptCost: bcrypt.MinCost, RequirePhone: true,
	}, nil)
	trackerAuth := service.NewAuthService(env.secondary, nil, nil, service.AuthOptions{
		Secret: secret, BcryptCost: bcrypt.MinCost, UserIDOnly: true,
	}, nil)
	portals := service.NewPortals(memstore.NewPortalDocs(), dir, nil)
	attendance := service.NewAttendanceService(memstore.NewAttendance(), nil, time.UTC, nil)

	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler(true, nil)
	Register(e, Handlers{
		Auth:         handler.NewAuthHandler(sharedAuth),
		AdminUsers:   handler.NewAdminUsersHandler(service.NewAdminUsers(env.primary, bcrypt.MinCost, nil)),
		Employee:     handler.NewEmployeeHandler(attendance, portals, func() time.Time { return env.now }),
		QueryTracker: handler.NewQueryTrackerHandler(service.NewTicketService(memstore.NewTickets(), env.secondary, nil, nil), trackerAuth),
		Portals:      handler.NewPortalsHandler(portals),
		Health:       &handler.HealthHandler{},
	}, Guards{
		SharedAuth:       middleware.Authenticate(secret, service.NewPrimaryResolver(nil, env.primary), nil),
		QueryTrackerAuth: middleware.Authenticate(secret, service.NewQueryTrackerResolver(nil, env.primary, env.secondary), nil),
	})
	env.e = e
	return env
}

// seed stores a user with password "secret1" in the primary store and
// returns it with a shared-login token.
func (env *testEnv) seed(t *testing.T, email string, role model.Role, status model.UserStatus) (*model.User, string) {
	t.Helper()
	hash, err := utils.HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	u := env.primary.Put(&model.User{Name: model.EmailLocalPart(email), Email: email, PasswordHash: hash, Role: role, Status: status})
	tok, _, err := utils.IssueToken(utils.Claims{UserID: u.ID, Email: email, Role: string(role)}, secret, time.Hour, time.Now())
	require.NoError(t, err)
	return u, tok
}

func (env *testEnv) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Header().Get(echo.HeaderContentType) != "" && rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec.Code, out
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", body)
	return d
}

func TestHealthRoutes(t *testing.T) {
	env := newEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	code, body := env.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestSharedAuthFlow(t *testing.T) {
	env := newEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Robin", "email": "robin@acme.io", "phone": "555-0100", "role": "user", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, code, body)
	assert.NotEmpty(t, body["token"])

	code, body = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "robin@acme.io", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, code, body)
	token := body["token"].(string)

	code, body = env.do(t, http.MethodGet, "/api/auth/verify", nil, token)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "robin@acme.io", body["user"].(map[string]any)["email"])

	code, body = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "robin@acme.io", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", body["message"])

	code, body = env.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Robin", "email": "robin@acme.io", "phone": "555-0100", "role": "user", "password": "secret1",
	}, "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, body["success"])
}

func TestAuthFailures(t *testing.T) {
	env := newEnv(t)
	_, inactive := env.seed(t, "gone@acme.io", model.RoleAdmin, model.StatusDeactivated)

	code, body := env.do(t, http.MethodGet, "/api/auth/verify", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "No token provided", body["message"])

	code, body = env.do(t, http.MethodGet, "/api/auth/verify", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid token", body["message"])

	code, _ = env.do(t, http.MethodGet, "/api/auth/verify", nil, inactive)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = env.do(t, http.MethodGet, "/api/query-tracker/queries", nil, inactive)
	assert.Equal(t, http.StatusForbidden, code)

	// the synced shadow has no usable password of its own
	code, _ = env.do(t, http.MethodPost, "/api/query-tracker/auth/login", map[string]string{"email": "gone@acme.io", "password": "secret1"}, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = env.do(t, http.MethodPost, "/api/query-tracker/auth/login", map[string]string{"email": "ghost@acme.io", "password": "secret1"}, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", body["message"])
}

func TestQueryTrackerAccessAfterReactivation(t *testing.T) {
	env := newEnv(t)
	u, tok := env.seed(t, "paused@acme.io", model.RoleUser, model.StatusDeactivated)

	code, _ := env.do(t, http.MethodGet, "/api/query-tracker/queries", nil, tok)
	assert.Equal(t, http.StatusForbidden, code)

	active := model.StatusActive
	_, err := env.primary.Update(context.Background(), u.ID, model.UserPatch{Status: &active})
	require.NoError(t, err)

	code, _ = env.do(t, http.MethodGet, "/api/query-tracker/queries", nil, tok)
	assert.Equal(t, http.StatusOK, code)
	code, body := env.do(t, http.MethodGet, "/api/query-tracker/auth/me", nil, tok)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "paused@acme.io", body["user"].(map[string]any)["email"])
	assert.Equal(t, 1, env.secondary.Count())
}

func TestQueryTrackerListHugePage(t *testing.T) {
	env := newEnv(t)
	_, tok := env.seed(t, "lead@acme.io", model.RoleAdmin, model.StatusActive)

	code, body := env.do(t, http.MethodGet, "/api/query-tracker/queries?page=9223372036854775807&limit=100", nil, tok)
	require.Equal(t, http.StatusOK, code, body)
}

func TestAdminUsersGate(t *testing.T) {
	env := newEnv(t)
	_, userTok := env.seed(t, "user@acme.io", model.RoleUser, model.StatusActive)
	_, adminTok := env.seed(t, "admin@acme.io", model.RoleSuperAdmin, model.StatusActive)

	code, _ := env.do(t, http.MethodGet, "/api/admin-users", nil, userTok)
	assert.Equal(t, http.StatusForbidden, code)

	code, body := env.do(t, http.MethodPost, "/api/admin-users", map[string]any{
		"name": "New", "email": "new@acme.io", "password": "secret1", "portals": []string{"HRMS"},
	}, adminTok)
	require.Equal(t, http.StatusCreated, code, body)
	id := body["user"].(map[string]any)["id"].(string)

	code, body = env.do(t, http.MethodGet, "/api/admin-users", nil, adminTok)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["users"], 3)

	code, body = env.do(t, http.MethodPatch, "/api/admin-users/"+id+"/toggle-active", nil, adminTok)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["active"])

	code, _ = env.do(t, http.MethodGet, "/api/admin-users/"+model.NewID(), nil, adminTok)
	assert.Equal(t, http.StatusNotFound, code)
	code, body = env.do(t, http.MethodGet, "/api/admin-users/123", nil, adminTok)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid user ID", body["message"])
}

func createTicket(t *testing.T, env *testEnv, token string, extra map[string]any) string {
	t.Helper()
	body := map[string]any{
		"platform":       "Email",
		"customerName":   "Dana",
		"customerMobile": "555-0199",
		"customerQuery":  "Need a demo",
	}
	for k, v := range extra {
		body[k] = v
	}
	code, resp := env.do(t, http.MethodPost, "/api/query-tracker/queries", body, token)
	require.Equal(t, http.StatusCreated, code, resp)
	return data(t, resp)["_id"].(string)
}

func TestQueryTrackerDeleteGate(t *testing.T) {
	env := newEnv(t)
	_, userTok := env.seed(t, "agent@acme.io", model.RoleUser, model.StatusActive)
	_, adminTok := env.seed(t, "admin@acme.io", model.RoleAdmin, model.StatusActive)
	_, legacyTok := env.seed(t, "root@acme.io", model.RoleSuperAdmin, model.StatusActive)

	id := createTicket(t, env, userTok, nil)

	code, body := env.do(t, http.MethodDelete, "/api/query-tracker/queries/"+id, nil, userTok)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Access denied", body["message"])

	code, _ = env.do(t, http.MethodDelete, "/api/query-tracker/queries/"+model.NewID(), nil, adminTok)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodDelete, "/api/query-tracker/queries/"+id, nil, adminTok)
	assert.Equal(t, http.StatusOK, code)

	id2 := createTicket(t, env, userTok, nil)
	code, _ = env.do(t, http.MethodDelete, "/api/query-tracker/queries/"+id2, nil, legacyTok)
	assert.Equal(t, http.StatusOK, code)
}

func TestQueryTrackerOwnership(t *testing.T) {
	env := newEnv(t)
	_, ownerTok := env.seed(t, "owner@acme.io", model.RoleUser, model.StatusActive)
	_, otherTok := env.seed(t, "other@acme.io", model.RoleUser, model.StatusActive)

	id := createTicket(t, env, ownerTok, map[string]any{"queryReceivedDate": "2025-05-01"})

	code, _ := env.do(t, http.MethodPut, "/api/query-tracker/queries/"+id, map[string]any{"status": "Closed"}, otherTok)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = env.do(t, http.MethodGet, "/api/query-tracker/queries/"+id, nil, otherTok)
	assert.Equal(t, http.StatusForbidden, code)

	code, body := env.do(t, http.MethodPut, "/api/query-tracker/queries/"+id, map[string]any{"status": "Closed"}, ownerTok)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Closed", data(t, body)["status"])

	code, body = env.do(t, http.MethodGet, "/api/query-tracker/queries?limit=5", nil, otherTok)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, data(t, body)["queries"])

	code, body = env.do(t, http.MethodGet, "/api/query-tracker/reports/closed", nil, ownerTok)
	require.Equal(t, http.StatusOK, code)
	d := data(t, body)
	assert.Equal(t, float64(1), d["count"])
	row := d["rows"].([]any)[0].(map[string]any)
	assert.Equal(t, "2025-05-01", row["Query Received Date"])

	code, _ = env.do(t, http.MethodGet, "/api/query-tracker/reports?type=weekly", nil, ownerTok)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestQueryTrackerOwnLogin(t *testing.T) {
	env := newEnv(t)
	_, adminTok := env.seed(t, "admin@acme.io", model.RoleAdmin, model.StatusActive)

	code, body := env.do(t, http.MethodPost, "/api/query-tracker/auth/register", map[string]string{
		"name": "Agent", "email": "agent@acme.io", "role": "user", "password": "secret1",
	}, adminTok)
	require.Equal(t, http.StatusCreated, code, body)

	code, body = env.do(t, http.MethodPost, "/api/query-tracker/auth/login", map[string]string{"email": "agent@acme.io", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, code, body)
	token := body["token"].(string)

	// the portal's own token carries only the user id
	code, body = env.do(t, http.MethodGet, "/api/query-tracker/auth/me", nil, token)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "agent@acme.io", body["user"].(map[string]any)["email"])

	code, _ = env.do(t, http.MethodGet, "/api/auth/verify", nil, token)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestEmployeeAttendance(t *testing.T) {
	env := newEnv(t)
	env.now = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	code, body := env.do(t, http.MethodPost, "/api/employee/checkin", map[string]string{"employeeId": "E7"}, "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "checked-in", data(t, body)["status"])

	code, body = env.do(t, http.MethodPost, "/api/employee/checkin", map[string]string{"employeeId": "E7"}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Already checked in today. Please check out first.", body["message"])

	env.now = env.now.Add(90 * time.Minute)
	code, body = env.do(t, http.MethodGet, "/api/employee/checkin/status?employeeId=E7", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(90), data(t, body)["totalMinutes"])

	code, body = env.do(t, http.MethodPost, "/api/employee/checkout", map[string]string{"employeeId": "E7"}, "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, 1.5, data(t, body)["totalHours"])

	code, body = env.do(t, http.MethodPost, "/api/employee/checkout", map[string]string{"employeeId": "E7"}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No active check-in found. Please check in first.", body["message"])

	code, body = env.do(t, http.MethodGet, "/api/employee/checkin/history?employeeId=E7", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, data(t, body)["history"], 1)

	code, body = env.do(t, http.MethodPost, "/api/employee/checkin", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Employee ID is required", body["message"])
}

func TestEmployeeDocumentsAndStubs(t *testing.T) {
	env := newEnv(t)

	for _, path := range []string{"/api/employee/dashboard", "/api/employee/org?employeeId=E1", "/api/employee/reports"} {
		code, body := env.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, code, path)
		assert.NotEmpty(t, data(t, body), path)
	}

	code, body := env.do(t, http.MethodGet, "/api/hrms/leaves", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "HRMS leaves endpoint - to be implemented", body["message"])
	assert.Equal(t, []any{}, body["data"])

	code, body = env.do(t, http.MethodGet, "/api/asset-tracker/assets/A-9", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "A-9", data(t, body)["id"])

	code, _ = env.do(t, http.MethodPost, "/api/finance/invoices/process", nil, "")
	assert.Equal(t, http.StatusOK, code)

	code, body = env.do(t, http.MethodGet, "/api/hrms/employees", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, body["data"])
}
