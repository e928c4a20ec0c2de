package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/queue"
	"github.com/iliyamo/hr-portal-backend/internal/repository"
)

const (
	DefaultTicketPage  = 1
	DefaultTicketLimit = 10
	MaxTicketLimit     = 100
)

// TicketView is a ticket with its creator and assignee expanded.
type TicketView struct {
	ID                   string             `json:"_id"`
	Platform             model.Platform     `json:"platform"`
	CustomerName         string             `json:"customerName"`
	CustomerMobile       string             `json:"customerMobile"`
	CustomerEmail        string             `json:"customerEmail,omitempty"`
	CompanyName          string             `json:"companyName,omitempty"`
	Location             string             `json:"location,omitempty"`
	CustomerQuery        string             `json:"customerQuery"`
	AgentRemark          string             `json:"agentRemark,omitempty"`
	QueryReceivedDate    time.Time          `json:"queryReceivedDate"`
	AgentCallingDate     *time.Time         `json:"agentCallingDate,omitempty"`
	Status               model.TicketStatus `json:"status"`
	AssignedTo           *model.UserRef     `json:"assignedTo"`
	CreatedBy            *model.UserRef     `json:"createdBy"`
	QueryType            string             `json:"queryType,omitempty"`
	HowDidYouHearAboutUs string             `json:"howDidYouHearAboutUs,omitempty"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// TicketPage is the result of a ticket listing.
type TicketPage struct {
	Queries    []TicketView `json:"queries"`
	Pagination Pagination   `json:"pagination"`
}

// ReportRow is a ticket flattened with human-readable column names.
type ReportRow map[string]string

// Report kinds accepted by Report.
const (
	ReportAll        = "all"
	ReportMine       = "my"
	ReportOpen       = "open"
	ReportClosed     = "closed"
	ReportInProgress = "in-progress"
)

// TicketService holds the query-tracker rules. Every method takes the resolved
// principal; admin-class principals see and change everything.
type TicketService struct {
	tickets TicketStore
	users   UserStore
	events  EventPublisher
	log     *zap.Logger
}

func NewTicketService(tickets TicketStore, users UserStore, events EventPublisher, log *zap.Logger) *TicketService {
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TicketService{tickets: tickets, users: users, events: events, log: log}
}

func (s *TicketService) Create(ctx context.Context, p *model.User, t *model.Ticket) (*TicketView, error) {
	if p == nil {
		return nil, ErrUserNotFound
	}
	t.CustomerName = strings.TrimSpace(t.CustomerName)
	t.CustomerMobile = strings.TrimSpace(t.CustomerMobile)
	t.CustomerQuery = strings.TrimSpace(t.CustomerQuery)
	switch {
	case !t.Platform.Valid():
		return nil, invalid("platform", "Invalid platform")
	case t.CustomerName == "":
		return nil, invalid("customerName", "Customer name is required")
	case t.CustomerMobile == "":
		return nil, invalid("customerMobile", "Customer mobile is required")
	case t.CustomerQuery == "":
		return nil, invalid("customerQuery", "Customer query is required")
	}
	if t.Status == "" {
		t.Status = model.TicketOpen
	}
	if !t.Status.Valid() {
		return nil, invalid("status", "Invalid status")
	}
	if t.AssignedTo != "" && !model.IsValidID(t.AssignedTo) {
		return nil, invalid("assignedTo", "Invalid assignee")
	}
	t.CreatedBy = p.ID

	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	s.publish(ctx, queue.ActivityEvent{Type: queue.EventTicketCreated, UserID: p.ID, TicketID: t.ID, Status: string(t.Status), At: t.CreatedAt})
	return s.view(ctx, t)
}

// Get returns a ticket the principal created, is assigned to, or may see as admin.
func (s *TicketService) Get(ctx context.Context, p *model.User, id string) (*TicketView, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Role.IsAdmin() && t.CreatedBy != p.ID && t.AssignedTo != p.ID {
		return nil, ErrAccessDenied
	}
	return s.view(ctx, t)
}

// Update applies patch. Only the creator or an admin may update.
func (s *TicketService) Update(ctx context.Context, p *model.User, id string, patch model.TicketPatch) (*TicketView, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Role.IsAdmin() && t.CreatedBy != p.ID {
		return nil, ErrAccessDenied
	}
	if patch.Platform != nil && !patch.Platform.Valid() {
		return nil, invalid("platform", "Invalid platform")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalid("status", "Invalid status")
	}
	if patch.AssignedTo != nil && *patch.AssignedTo != "" && !model.IsValidID(*patch.AssignedTo) {
		return nil, invalid("assignedTo", "Invalid assignee")
	}

	updated, err := s.tickets.Update(ctx, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update ticket: %w", err)
	}
	s.publish(ctx, queue.ActivityEvent{Type: queue.EventTicketUpdated, UserID: p.ID, TicketID: id, Status: string(updated.Status), At: updated.UpdatedAt})
	return s.view(ctx, updated)
}

// Delete removes a ticket. The role check runs before the lookup, so a
// non-admin learns nothing about whether the id exists.
func (s *TicketService) Delete(ctx context.Context, p *model.User, id string) error {
	if err := RequireAdmin(p); err != nil {
		return err
	}
	err := s.tickets.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTicketNotFound
	}
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	s.log.Info("ticket deleted", zap.String("ticket_id", id), zap.String("by", p.ID))
	s.publish(ctx, queue.ActivityEvent{Type: queue.EventTicketDeleted, UserID: p.ID, TicketID: id, At: time.Now().UTC()})
	return nil
}

// List returns one page of the tickets visible to p. Non-admins only see
// tickets they created or are assigned to, whatever the filter says.
func (s *TicketService) List(ctx context.Context, p *model.User, f model.TicketFilter) (*TicketPage, error) {
	if f.Page < 1 {
		f.Page = DefaultTicketPage
	}
	if f.Page > model.MaxTicketPage {
		f.Page = model.MaxTicketPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultTicketLimit
	}
	if f.Limit > MaxTicketLimit {
		f.Limit = MaxTicketLimit
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("status", "Invalid status")
	}
	f.VisibleTo = ""
	if !p.Role.IsAdmin() {
		f.VisibleTo = p.ID
	}

	items, total, err := s.tickets.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	views, err := s.views(ctx, items)
	if err != nil {
		return nil, err
	}
	pages := total / int64(f.Limit)
	if total%int64(f.Limit) != 0 {
		pages++
	}
	return &TicketPage{
		Queries:    views,
		Pagination: Pagination{Page: f.Page, Limit: f.Limit, Total: total, Pages: pages},
	}, nil
}

// Report returns every ticket of the given kind as flat rows, newest first.
func (s *TicketService) Report(ctx context.Context, p *model.User, kind string) ([]ReportRow, error) {
	f := model.TicketFilter{}
	switch kind {
	case ReportAll:
	case ReportMine:
		f.CreatedBy = p.ID
	case ReportOpen:
		f.Status = model.TicketOpen
	case ReportClosed:
		f.Status = model.TicketClosed
	case ReportInProgress:
		f.Status = model.TicketInProgress
	default:
		return nil, invalid("type", "Invalid report type")
	}
	if kind != ReportMine && !p.Role.IsAdmin() {
		f.VisibleTo = p.ID
	}

	items, _, err := s.tickets.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("report tickets: %w", err)
	}
	refs, err := s.refs(ctx, items)
	if err != nil {
		return nil, err
	}
	rows := make([]ReportRow, 0, len(items))
	for _, t := range items {
		rows = append(rows, reportRow(t, refs))
	}
	return rows, nil
}

func reportRow(t *model.Ticket, refs map[string]*model.UserRef) ReportRow {
	day := func(v *time.Time) string {
		if v == nil || v.IsZero() {
			return ""
		}
		return v.Format(model.DateLayout)
	}
	name := func(id string) string {
		if r := refs[id]; r != nil {
			return r.Name
		}
		return ""
	}
	received := t.QueryReceivedDate
	return ReportRow{
		"Platform":                   string(t.Platform),
		"Customer Name":              t.CustomerName,
		"Customer Mobile":            t.CustomerMobile,
		"Customer Email":             t.CustomerEmail,
		"Company Name":               t.CompanyName,
		"Location":                   t.Location,
		"Customer Query":             t.CustomerQuery,
		"How did you hear about us?": t.HowDidYouHearAboutUs,
		"Agent Remark":               t.AgentRemark,
		"Query Received Date":        day(&received),
		"Agent Calling Date":         day(t.AgentCallingDate),
		"Status":                     string(t.Status),
		"Created By":                 name(t.CreatedBy),
		"Assigned To":                name(t.AssignedTo),
	}
}

func (s *TicketService) find(ctx context.Context, id string) (*model.Ticket, error) {
	if !model.IsValidID(id) {
		return nil, ErrTicketNotFound
	}
	t, err := s.tickets.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	return t, nil
}

// refs loads the users referenced by items in one query.
func (s *TicketService) refs(ctx context.Context, items []*model.Ticket) (map[string]*model.UserRef, error) {
	seen := map[string]bool{}
	var ids []string
	for _, t := range items {
		for _, id := range []string{t.CreatedBy, t.AssignedTo} {
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	out := make(map[string]*model.UserRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load ticket users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = &model.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return out, nil
}

func (s *TicketService) view(ctx context.Context, t *model.Ticket) (*TicketView, error) {
	views, err := s.views(ctx, []*model.Ticket{t})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *TicketService) views(ctx context.Context, items []*model.Ticket) ([]TicketView, error) {
	refs, err := s.refs(ctx, items)
	if err != nil {
		return nil, err
	}
	out := make([]TicketView, 0, len(items))
	for _, t := range items {
		v := TicketView{
			ID:                   t.ID,
			Platform:             t.Platform,
			CustomerName:         t.CustomerName,
			CustomerMobile:       t.CustomerMobile,
			CustomerEmail:        t.CustomerEmail,
			CompanyName:          t.CompanyName,
			Location:             t.Location,
			CustomerQuery:        t.CustomerQuery,
			AgentRemark:          t.AgentRemark,
			QueryReceivedDate:    t.QueryReceivedDate,
			AgentCallingDate:     t.AgentCallingDate,
			Status:               t.Status,
			QueryType:            t.QueryType,
			HowDidYouHearAboutUs: t.HowDidYouHearAboutUs,
			CreatedAt:            t.CreatedAt,
			UpdatedAt:            t.UpdatedAt,
		}
		v.CreatedBy = refOrID(refs, t.CreatedBy)
		v.AssignedTo = refOrID(refs, t.AssignedTo)
		out = append(out, v)
	}
	return out, nil
}

// refOrID keeps the bare id when the referenced user no longer exists.
func refOrID(refs map[string]*model.UserRef, id string) *model.UserRef {
	if id == "" {
		return nil
	}
	if r, ok := refs[id]; ok {
		return r
	}
	return &model.UserRef{ID: id}
}

func (s *TicketService) publish(ctx context.Context, ev queue.ActivityEvent) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish activity event failed", zap.String("type", ev.Type), zap.Error(err))
	}
}
