// Package memstore provides in-memory implementations of the repository
// interfaces. It backs STORE_DRIVER=memory for local runs and the unit tests.
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

// Users is an in-memory credential store. Setting Err makes every call fail
// with it, which simulates an unreachable store.
type Users struct {
	mu   sync.Mutex
	byID map[string]*model.User
	Err  error
	Now  func() time.Time
}

func NewUsers() *Users {
	return &Users{byID: map[string]*model.User{}, Now: func() time.Time { return time.Now().UTC() }}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	if u.Portals != nil {
		c.Portals = append([]string(nil), u.Portals...)
	}
	return &c
}

// Count returns the number of stored users.
func (s *Users) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Put stores u as-is, assigning an ID when it has none. It is meant for seeding.
func (s *Users) Put(u *model.User) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = model.NewID()
	}
	if u.Status == "" {
		u.Status = model.StatusActive
	}
	s.byID[u.ID] = cloneUser(u)
	return u
}

func (s *Users) findEmail(email string, exact bool) *model.User {
	for _, u := range s.byID {
		if exact && u.Email == email {
			return u
		}
		if !exact && strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u
		}
	}
	return nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if u := s.findEmail(email, false); u != nil {
		return cloneUser(u), nil
	}
	return nil, repository.ErrNotFound
}

func (s *Users) FindByEmailExact(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if u := s.findEmail(email, true); u != nil {
		return cloneUser(u), nil
	}
	return nil, repository.ErrNotFound
}

func (s *Users) FindByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if u, ok := s.byID[id]; ok {
		return cloneUser(u), nil
	}
	return nil, repository.ErrNotFound
}

func (s *Users) FindByIDs(_ context.Context, ids []string) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []*model.User{}
	for _, id := range ids {
		if u, ok := s.byID[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (s *Users) List(_ context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]*model.User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Users) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u.Email = model.NormalizeEmail(u.Email)
	if s.findEmail(u.Email, false) != nil {
		return repository.ErrDuplicate
	}
	if u.Status == "" {
		u.Status = model.StatusActive
	}
	u.ID = model.NewID()
	u.CreatedAt = s.Now()
	u.UpdatedAt = u.CreatedAt
	s.byID[u.ID] = cloneUser(u)
	return nil
}

func (s *Users) Update(_ context.Context, id string, p model.UserPatch) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Email != nil {
		email := model.NormalizeEmail(*p.Email)
		if other := s.findEmail(email, false); other != nil && other.ID != id {
			return nil, repository.ErrDuplicate
		}
		u.Email = email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.Portals != nil {
		u.Portals = append([]string(nil), (*p.Portals)...)
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	u.UpdatedAt = s.Now()
	return cloneUser(u), nil
}

func (s *Users) Upsert(_ context.Context, u *model.User, overwrite bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if existing := s.findEmail(u.Email, false); existing != nil {
		if overwrite {
			existing.Name, existing.Role, existing.Status = u.Name, u.Role, u.Status
			existing.UpdatedAt = s.Now()
		}
		return cloneUser(existing), nil
	}
	c := cloneUser(u)
	c.ID = model.NewID()
	c.Email = model.NormalizeEmail(u.Email)
	c.CreatedAt = s.Now()
	c.UpdatedAt = c.CreatedAt
	s.byID[c.ID] = c
	return cloneUser(c), nil
}
