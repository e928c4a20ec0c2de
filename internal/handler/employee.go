package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/service"
)

// EmployeeHandler serves the employee portal: attendance and the
// per-employee dashboard documents.
type EmployeeHandler struct {
	Attendance *service.AttendanceService
	Portals    *service.Portals
	Now        func() time.Time
}

func NewEmployeeHandler(a *service.AttendanceService, p *service.Portals, now func() time.Time) *EmployeeHandler {
	if now == nil {
		now = time.Now
	}
	return &EmployeeHandler{Attendance: a, Portals: p, Now: now}
}

type employeeReq struct {
	EmployeeID string `json:"employeeId"`
}

func (h *EmployeeHandler) CheckIn(c echo.Context) error {
	var req employeeReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Attendance.CheckIn(ctx, req.EmployeeID, h.Now())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Checked in successfully", echo.Map{
		"checkInTime": rec.CheckInTime,
		"status":      rec.Status,
		"employeeId":  rec.EmployeeID,
		"date":        rec.Date,
	})
}

func (h *EmployeeHandler) CheckOut(c echo.Context) error {
	var req employeeReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Attendance.CheckOut(ctx, req.EmployeeID, h.Now())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Checked out successfully", echo.Map{
		"checkOutTime": rec.CheckOutTime,
		"totalMinutes": rec.TotalMinutes,
		"totalHours":   service.HoursFromMinutes(rec.TotalMinutes),
		"status":       rec.Status,
		"employeeId":   rec.EmployeeID,
	})
}

func (h *EmployeeHandler) Status(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Attendance.Status(ctx, c.QueryParam("employeeId"), h.Now())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", st)
}

func (h *EmployeeHandler) History(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	employeeID := c.QueryParam("employeeId")
	entries, err := h.Attendance.History(ctx, employeeID, queryInt(c, "limit", 0))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", echo.Map{"employeeId": employeeID, "history": entries})
}

// Document returns a handler for one employee-portal document kind.
func (h *EmployeeHandler) Document(kind model.PortalDocKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := reqCtx(c)
		defer cancel()
		doc, err := h.Portals.EmployeeDocument(ctx, kind, c.QueryParam("employeeId"))
		if err != nil {
			return err
		}
		return ok(c, http.StatusOK, "", doc)
	}
}
