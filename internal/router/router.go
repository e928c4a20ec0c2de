// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-portal-backend/internal/handler"
	"github.com/iliyamo/hr-portal-backend/internal/middleware"
	"github.com/iliyamo/hr-portal-backend/internal/model"
)

// Handlers groups every HTTP handler the API exposes.
type Handlers struct {
	Auth         *handler.AuthHandler
	AdminUsers   *handler.AdminUsersHandler
	Employee     *handler.EmployeeHandler
	QueryTracker *handler.QueryTrackerHandler
	Portals      *handler.PortalsHandler
	Health       *handler.HealthHandler
	Metrics      echo.HandlerFunc
}

// Guards are the middlewares applied per route group. Nil entries are skipped.
type Guards struct {
	// SharedAuth resolves principals against the primary store.
	SharedAuth echo.MiddlewareFunc
	// QueryTrackerAuth resolves principals through the cross-store resolver.
	QueryTrackerAuth echo.MiddlewareFunc
	RateLimit        echo.MiddlewareFunc
	Cache            echo.MiddlewareFunc
}

func use(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Register mounts the routes. Everything except liveness and metrics lives
// under /api.
func Register(e *echo.Echo, h Handlers, g Guards) {
	e.GET("/healthz", handler.Liveness)
	if h.Metrics != nil {
		e.GET("/metrics", h.Metrics)
	}

	api := e.Group("/api")
	api.GET("/health", h.Health.Health)

	registerAuth(api, h, g)
	registerAdminUsers(api, h, g)
	registerEmployee(api, h, g)
	registerQueryTracker(api, h, g)
	registerPortals(api, h, g)
}

func registerAuth(api *echo.Group, h Handlers, g Guards) {
	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login, use(g.RateLimit)...)
	auth.POST("/signup", h.Auth.Signup, use(g.RateLimit)...)
	auth.GET("/verify", h.Auth.Verify, use(g.SharedAuth)...)
}

func registerAdminUsers(api *echo.Group, h Handlers, g Guards) {
	admin := api.Group("/admin-users", use(g.SharedAuth, middleware.RequireAdmin())...)
	admin.GET("", h.AdminUsers.List)
	admin.POST("", h.AdminUsers.Create)
	admin.GET("/:id", h.AdminUsers.Get)
	admin.PUT("/:id", h.AdminUsers.Update)
	admin.DELETE("/:id", h.AdminUsers.Delete)
	admin.PATCH("/:id/toggle-active", h.AdminUsers.ToggleActive)
	admin.PATCH("/:id/portals", h.AdminUsers.SetPortals)
}

// The employee portal identifies the employee by the employeeId parameter and
// carries no bearer token.
func registerEmployee(api *echo.Group, h Handlers, g Guards) {
	emp := api.Group("/employee")
	emp.POST("/checkin", h.Employee.CheckIn)
	emp.POST("/checkout", h.Employee.CheckOut)
	emp.GET("/checkin/status", h.Employee.Status)
	emp.GET("/checkin/history", h.Employee.History)

	cached := use(g.Cache)
	emp.GET("/dashboard", h.Employee.Document(model.DocDashboard), cached...)
	emp.GET("/attendance", h.Employee.Document(model.DocAttendance), cached...)
	emp.GET("/requests", h.Employee.Document(model.DocRequests), cached...)
	emp.GET("/org", h.Employee.Document(model.DocOrg), cached...)
	emp.GET("/reports", h.Employee.Document(model.DocReports), cached...)
}

func registerQueryTracker(api *echo.Group, h Handlers, g Guards) {
	qt := api.Group("/query-tracker")

	qt.POST("/auth/login", h.QueryTracker.Login, use(g.RateLimit)...)
	authed := qt.Group("", use(g.QueryTrackerAuth)...)
	authed.POST("/auth/register", h.QueryTracker.Register)
	authed.GET("/auth/me", h.QueryTracker.Me)

	authed.GET("/queries", h.QueryTracker.List)
	authed.POST("/queries", h.QueryTracker.Create)
	authed.GET("/queries/:id", h.QueryTracker.Get)
	authed.PUT("/queries/:id", h.QueryTracker.Update)
	authed.DELETE("/queries/:id", h.QueryTracker.Delete)

	authed.GET("/reports", h.QueryTracker.Report)
	authed.GET("/reports/:type", h.QueryTracker.Report)
}

func registerPortals(api *echo.Group, h Handlers, g Guards) {
	cached := use(g.Cache)

	hrms := api.Group("/hrms")
	hrms.GET("/employees", h.Portals.HRMSEmployees)
	hrms.GET("/attendance", h.Portals.HRMSAttendance(), cached...)
	hrms.GET("/leaves", h.Portals.HRMSLeaves(), cached...)

	assets := api.Group("/asset-tracker")
	assets.GET("/assets", h.Portals.Assets(), cached...)
	assets.GET("/assets/:id", h.Portals.Asset, cached...)

	finance := api.Group("/finance")
	finance.GET("/dashboard", h.Portals.FinanceDashboard(), cached...)
	finance.POST("/invoices/process", h.Portals.ProcessInvoices())
}
