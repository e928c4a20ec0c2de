package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/repository"
)

// Tickets is an in-memory ticket store.
type Tickets struct {
	mu   sync.Mutex
	byID map[string]*model.Ticket
	Err  error
	Now  func() time.Time
}

func NewTickets() *Tickets {
	return &Tickets{byID: map[string]*model.Ticket{}, Now: func() time.Time { return time.Now().UTC() }}
}

func cloneTicket(t *model.Ticket) *model.Ticket {
	c := *t
	if t.AgentCallingDate != nil {
		d := *t.AgentCallingDate
		c.AgentCallingDate = &d
	}
	return &c
}

func (s *Tickets) Create(_ context.Context, t *model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	now := s.Now()
	t.ID = model.NewID()
	if t.QueryReceivedDate.IsZero() {
		t.QueryReceivedDate = now
	}
	t.CreatedAt, t.UpdatedAt = now, now
	s.byID[t.ID] = cloneTicket(t)
	return nil
}

func (s *Tickets) FindByID(_ context.Context, id string) (*model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if t, ok := s.byID[id]; ok {
		return cloneTicket(t), nil
	}
	return nil, repository.ErrNotFound
}

func (s *Tickets) Update(_ context.Context, id string, p model.TicketPatch) (*model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	if p.Platform != nil {
		t.Platform = *p.Platform
	}
	set(&t.CustomerName, p.CustomerName)
	set(&t.CustomerMobile, p.CustomerMobile)
	set(&t.CustomerEmail, p.CustomerEmail)
	set(&t.CompanyName, p.CompanyName)
	set(&t.Location, p.Location)
	set(&t.CustomerQuery, p.CustomerQuery)
	set(&t.AgentRemark, p.AgentRemark)
	set(&t.QueryType, p.QueryType)
	set(&t.HowDidYouHearAboutUs, p.HowDidYouHearAboutUs)
	set(&t.AssignedTo, p.AssignedTo)
	if p.QueryReceivedDate != nil {
		t.QueryReceivedDate = *p.QueryReceivedDate
	}
	if p.AgentCallingDate != nil {
		d := *p.AgentCallingDate
		t.AgentCallingDate = &d
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	t.UpdatedAt = s.Now()
	return cloneTicket(t), nil
}

func (s *Tickets) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *Tickets) List(_ context.Context, f model.TicketFilter) ([]*model.Ticket, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	var matched []*model.Ticket
	for _, t := range s.byID {
		if matches(t, f) {
			matched = append(matched, cloneTicket(t))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	if f.Limit > 0 {
		skip := f.Skip()
		if skip >= total {
			return []*model.Ticket{}, total, nil
		}
		start := int(skip)
		end := start + f.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	if matched == nil {
		matched = []*model.Ticket{}
	}
	return matched, total, nil
}

func matches(t *model.Ticket, f model.TicketFilter) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
		return false
	}
	if f.CreatedBy != "" && t.CreatedBy != f.CreatedBy {
		return false
	}
	if f.VisibleTo != "" && t.CreatedBy != f.VisibleTo && t.AssignedTo != f.VisibleTo {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.CustomerName), q) &&
			!strings.Contains(strings.ToLower(t.CustomerMobile), q) &&
			!strings.Contains(strings.ToLower(t.QueryType), q) {
			return false
		}
	}
	return true
}
