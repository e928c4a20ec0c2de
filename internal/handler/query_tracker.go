package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-portal-backend/internal/middleware"
	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/service"
)

// QueryTrackerHandler serves the ticket portal and its own login.
type QueryTrackerHandler struct {
	Tickets *service.TicketService
	Auth    *service.AuthService
}

func NewQueryTrackerHandler(t *service.TicketService, a *service.AuthService) *QueryTrackerHandler {
	return &QueryTrackerHandler{Tickets: t, Auth: a}
}

// ticketReq is the JSON body of create and update. Absent fields stay nil so
// an update only touches what the client sent.
type ticketReq struct {
	Platform             *string   `json:"platform"`
	CustomerName         *string   `json:"customerName"`
	CustomerMobile       *string   `json:"customerMobile"`
	CustomerEmail        *string   `json:"customerEmail"`
	CompanyName          *string   `json:"companyName"`
	Location             *string   `json:"location"`
	CustomerQuery        *string   `json:"customerQuery"`
	AgentRemark          *string   `json:"agentRemark"`
	QueryReceivedDate    *flexTime `json:"queryReceivedDate"`
	AgentCallingDate     *flexTime `json:"agentCallingDate"`
	Status               *string   `json:"status"`
	AssignedTo           *string   `json:"assignedTo"`
	QueryType            *string   `json:"queryType"`
	HowDidYouHearAboutUs *string   `json:"howDidYouHearAboutUs"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

func (r ticketReq) ticket() *model.Ticket {
	t := &model.Ticket{
		Platform:             model.Platform(str(r.Platform)),
		CustomerName:         str(r.CustomerName),
		CustomerMobile:       str(r.CustomerMobile),
		CustomerEmail:        str(r.CustomerEmail),
		CompanyName:          str(r.CompanyName),
		Location:             str(r.Location),
		CustomerQuery:        str(r.CustomerQuery),
		AgentRemark:          str(r.AgentRemark),
		AgentCallingDate:     r.AgentCallingDate.ptr(),
		Status:               model.TicketStatus(str(r.Status)),
		AssignedTo:           str(r.AssignedTo),
		QueryType:            str(r.QueryType),
		HowDidYouHearAboutUs: str(r.HowDidYouHearAboutUs),
	}
	if d := r.QueryReceivedDate.ptr(); d != nil {
		t.QueryReceivedDate = *d
	}
	return t
}

func (r ticketReq) patch() model.TicketPatch {
	p := model.TicketPatch{
		CustomerName:         trimmed(r.CustomerName),
		CustomerMobile:       trimmed(r.CustomerMobile),
		CustomerEmail:        trimmed(r.CustomerEmail),
		CompanyName:          trimmed(r.CompanyName),
		Location:             trimmed(r.Location),
		CustomerQuery:        trimmed(r.CustomerQuery),
		AgentRemark:          trimmed(r.AgentRemark),
		QueryReceivedDate:    r.QueryReceivedDate.ptr(),
		AgentCallingDate:     r.AgentCallingDate.ptr(),
		AssignedTo:           trimmed(r.AssignedTo),
		QueryType:            trimmed(r.QueryType),
		HowDidYouHearAboutUs: trimmed(r.HowDidYouHearAboutUs),
	}
	if r.Platform != nil {
		v := model.Platform(str(r.Platform))
		p.Platform = &v
	}
	if r.Status != nil {
		v := model.TicketStatus(str(r.Status))
		p.Status = &v
	}
	return p
}

// List: GET /query-tracker/queries?status=&assignedTo=&createdBy=&search=&page=&limit=
func (h *QueryTrackerHandler) List(c echo.Context) error {
	f := model.TicketFilter{
		Status:     model.TicketStatus(c.QueryParam("status")),
		AssignedTo: c.QueryParam("assignedTo"),
		CreatedBy:  c.QueryParam("createdBy"),
		Search:     strings.TrimSpace(c.QueryParam("search")),
		Page:       queryInt(c, "page", service.DefaultTicketPage),
		Limit:      queryInt(c, "limit", service.DefaultTicketLimit),
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Tickets.List(ctx, middleware.Principal(c), f)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", page)
}

func (h *QueryTrackerHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Tickets.Get(ctx, middleware.Principal(c), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", v)
}

func (h *QueryTrackerHandler) Create(c echo.Context) error {
	var req ticketReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Tickets.Create(ctx, middleware.Principal(c), req.ticket())
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "Query created successfully", v)
}

func (h *QueryTrackerHandler) Update(c echo.Context) error {
	var req ticketReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Tickets.Update(ctx, middleware.Principal(c), c.Param("id"), req.patch())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Query updated successfully", v)
}

func (h *QueryTrackerHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tickets.Delete(ctx, middleware.Principal(c), c.Param("id")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Query deleted successfully", nil)
}

// Report: GET /query-tracker/reports?type=all|my|open|closed|in-progress.
// The type may also be given as a path segment.
func (h *QueryTrackerHandler) Report(c echo.Context) error {
	kind := c.Param("type")
	if kind == "" {
		kind = c.QueryParam("type")
	}
	if kind == "" {
		kind = service.ReportAll
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rows, err := h.Tickets.Report(ctx, middleware.Principal(c), kind)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", echo.Map{"type": kind, "rows": rows, "count": len(rows)})
}

// shortUser is the user shape returned by the portal's own auth endpoints.
func shortUser(u *model.User) echo.Map {
	return echo.Map{"id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role}
}

func (h *QueryTrackerHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "token": s.Token, "user": shortUser(s.User)})
}

func (h *QueryTrackerHandler) Register(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Auth.Register(ctx, middleware.Principal(c), service.SignupInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "User created successfully", "user": shortUser(u)})
}

func (h *QueryTrackerHandler) Me(c echo.Context) error {
	p := middleware.Principal(c)
	if p == nil {
		return service.ErrUserNotFound
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": shortUser(p)})
}
