package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/repository"
	"github.com/iliyamo/hr-portal-backend/internal/utils"
)

// AdminUserInput is a create or update request from the admin console. Nil
// fields are left unchanged on update.
type AdminUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Active   *bool
	Portals  []string
	Role     *string
}

// AdminUsers manages accounts in the primary store. Every method requires an
// admin-class principal.
type AdminUsers struct {
	users      UserStore
	bcryptCost int
	log        *zap.Logger
}

func NewAdminUsers(users UserStore, bcryptCost int, log *zap.Logger) *AdminUsers {
	if bcryptCost == 0 {
		bcryptCost = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminUsers{users: users, bcryptCost: bcryptCost, log: log}
}

func (s *AdminUsers) List(ctx context.Context, p *model.User) ([]*model.User, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *AdminUsers) Get(ctx context.Context, p *model.User, id string) (*model.User, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *AdminUsers) Create(ctx context.Context, p *model.User, in AdminUserInput) (*model.User, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	name, email, password := deref(in.Name), model.NormalizeEmail(deref(in.Email)), deref(in.Password)
	name = strings.TrimSpace(name)
	switch {
	case name == "" || email == "" || password == "":
		return nil, invalid("name", "Name, email, and password are required")
	case !ValidEmail(email):
		return nil, invalid("email", "Invalid email format")
	case len(password) < MinPasswordLen:
		return nil, invalid("password", "Password must be at least 6 characters long")
	}
	portals, err := normalizePortals(in.Portals)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.ParseRole(deref(in.Role)),
		Status:       model.StatusActive,
		Portals:      portals,
	}
	if in.Active != nil && !*in.Active {
		u.Status = model.StatusDeactivated
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("admin created user", zap.String("user_id", u.ID), zap.String("by", p.ID))
	u.PasswordHash = ""
	return u, nil
}

func (s *AdminUsers) Update(ctx context.Context, p *model.User, id string, in AdminUserInput) (*model.User, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	var patch model.UserPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		patch.Name = &name
	}
	if in.Email != nil {
		email := model.NormalizeEmail(*in.Email)
		if !ValidEmail(email) {
			return nil, invalid("email", "Invalid email format")
		}
		patch.Email = &email
	}
	if in.Password != nil && *in.Password != "" {
		if len(*in.Password) < MinPasswordLen {
			return nil, invalid("password", "Password must be at least 6 characters long")
		}
		hash, err := utils.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		patch.PasswordHash = &hash
	}
	if in.Active != nil {
		st := model.StatusFromActive(in.Active)
		patch.Status = &st
	}
	if in.Portals != nil {
		portals, err := normalizePortals(in.Portals)
		if err != nil {
			return nil, err
		}
		patch.Portals = &portals
	}
	if in.Role != nil {
		role := model.ParseRole(*in.Role)
		patch.Role = &role
	}
	return s.update(ctx, id, patch)
}

// Deactivate is the soft delete used by the admin console.
func (s *AdminUsers) Deactivate(ctx context.Context, p *model.User, id string) error {
	if err := RequireAdmin(p); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	st := model.StatusDeactivated
	_, err := s.update(ctx, id, model.UserPatch{Status: &st})
	return err
}

// ToggleActive flips the account status and returns the new one.
func (s *AdminUsers) ToggleActive(ctx context.Context, p *model.User, id string) (model.UserStatus, error) {
	if err := RequireAdmin(p); err != nil {
		return "", err
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	next := model.StatusDeactivated
	if !u.Status.Active() {
		next = model.StatusActive
	}
	if _, err := s.update(ctx, id, model.UserPatch{Status: &next}); err != nil {
		return "", err
	}
	return next, nil
}

// SetPortals replaces the user's portal access list.
func (s *AdminUsers) SetPortals(ctx context.Context, p *model.User, id string, portals []string) (*model.User, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	if portals == nil {
		return nil, invalid("portals", "Portals must be an array")
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	ids, err := normalizePortals(portals)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, model.UserPatch{Portals: &ids})
}

func (s *AdminUsers) load(ctx context.Context, id string) (*model.User, error) {
	if !model.IsValidID(id) {
		return nil, invalid("id", "Invalid user ID")
	}
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	u.PasswordHash = ""
	return u, nil
}

func (s *AdminUsers) update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	u, err := s.users.Update(ctx, id, patch)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrAccountNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return nil, ErrEmailTaken
	case err != nil:
		return nil, fmt.Errorf("update user: %w", err)
	}
	u.PasswordHash = ""
	return u, nil
}

// normalizePortals maps display names to portal ids, dropping duplicates.
func normalizePortals(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, name := range in {
		id, ok := model.NormalizePortal(name)
		if !ok {
			return nil, invalid("portals", fmt.Sprintf("Unknown portal %q", name))
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
