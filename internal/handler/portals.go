package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-portal-backend/internal/service"
)

// PortalsHandler serves HRMS, asset tracker and finance. Only the HRMS
// employee list is backed by a store; the rest are placeholders.
type PortalsHandler struct {
	Portals *service.Portals
}

func NewPortalsHandler(p *service.Portals) *PortalsHandler { return &PortalsHandler{Portals: p} }

func (h *PortalsHandler) HRMSEmployees(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	employees, err := h.Portals.Employees(ctx, queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		return err
	}
	msg := ""
	if !h.Portals.DirectoryEnabled() {
		msg = "HRMS directory is not configured"
	}
	return ok(c, http.StatusOK, msg, employees)
}

// placeholder answers a portal endpoint that has no backing store yet.
func placeholder(message string, data any) echo.HandlerFunc {
	if data == nil {
		data = []any{}
	}
	return func(c echo.Context) error {
		return ok(c, http.StatusOK, message, data)
	}
}

func (h *PortalsHandler) HRMSAttendance() echo.HandlerFunc {
	return placeholder("HRMS attendance endpoint - to be implemented", nil)
}

func (h *PortalsHandler) HRMSLeaves() echo.HandlerFunc {
	return placeholder("HRMS leaves endpoint - to be implemented", nil)
}

func (h *PortalsHandler) Assets() echo.HandlerFunc {
	return placeholder("Asset Tracker assets endpoint - to be implemented", nil)
}

func (h *PortalsHandler) Asset(c echo.Context) error {
	return ok(c, http.StatusOK, "Asset Tracker asset detail endpoint - to be implemented", echo.Map{"id": c.Param("id")})
}

func (h *PortalsHandler) FinanceDashboard() echo.HandlerFunc {
	return placeholder("Finance dashboard endpoint - to be implemented", nil)
}

func (h *PortalsHandler) ProcessInvoices() echo.HandlerFunc {
	return placeholder("Finance invoice processing endpoint - to be implemented", nil)
}
