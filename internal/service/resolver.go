package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/repository"
	"github.com/iliyamo/hr-portal-backend/internal/utils"
)

// UserLookup is one step of user resolution. Find returns (nil, nil) when the
// step does not apply to the claims or finds nothing.
type UserLookup interface {
	Name() string
	Find(ctx context.Context, c *utils.Claims) (*model.User, error)
}

// Resolver turns verified claims into an active principal by trying each
// lookup in order until one produces a user.
type Resolver struct {
	steps []UserLookup
	log   *zap.Logger

	// Observe, when set, is told which step produced the outcome.
	Observe func(step, outcome string)
}

func NewResolver(log *zap.Logger, steps ...UserLookup) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{steps: steps, log: log}
}

// Resolve walks the lookups. A failing step is logged and skipped. If every
// step that ran failed or missed and at least one failed, the outcome is
// ErrStoreUnavailable, since absence cannot be proven. The returned user never
// carries a password hash.
func (r *Resolver) Resolve(ctx context.Context, c *utils.Claims) (*model.User, error) {
	if c == nil {
		return nil, ErrInvalidToken
	}
	failed := 0
	for _, step := range r.steps {
		u, err := step.Find(ctx, c)
		if err != nil {
			failed++
			r.log.Warn("user lookup failed, trying next step",
				zap.String("step", step.Name()), zap.String("email", c.Email), zap.Error(err))
			r.observe(step.Name(), "error")
			continue
		}
		if u == nil {
			continue
		}
		if !u.Status.Active() {
			r.observe(step.Name(), "inactive")
			return nil, ErrUserInactive
		}
		r.observe(step.Name(), "resolved")
		u.PasswordHash = ""
		return u, nil
	}
	if failed > 0 {
		r.observe("none", "unavailable")
		return nil, ErrStoreUnavailable
	}
	r.observe("none", "not_found")
	return nil, ErrUserNotFound
}

func (r *Resolver) observe(step, outcome string) {
	if r.Observe != nil {
		r.Observe(step, outcome)
	}
}

// miss converts ErrNotFound into a (nil, nil) step result.
func miss(u *model.User, err error) (*model.User, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// SecondaryByEmail finds the portal's own record by exact token email.
type SecondaryByEmail struct{ Users UserStore }

func (SecondaryByEmail) Name() string { return "secondary_by_email" }

func (s SecondaryByEmail) Find(ctx context.Context, c *utils.Claims) (*model.User, error) {
	if c.Email == "" {
		return nil, nil
	}
	return miss(s.Users.FindByEmailExact(ctx, c.Email))
}

// PrimarySync finds the user in the primary store and creates or refreshes
// the shadow record in the secondary store. The primary record wins. Shadows
// are always stored active; a deactivated primary user is rejected for this
// call only, so reactivating the primary account is enough to restore access.
type PrimarySync struct {
	Primary   UserStore
	Secondary UserStore
}

func (PrimarySync) Name() string { return "primary_sync" }

func (s PrimarySync) Find(ctx context.Context, c *utils.Claims) (*model.User, error) {
	if c.Email == "" {
		return nil, nil
	}
	p, err := miss(s.Primary.FindByEmail(ctx, c.Email))
	if p == nil || err != nil {
		return nil, err
	}
	shadow, err := s.Secondary.Upsert(ctx, ShadowOf(p), true)
	if err != nil {
		return nil, err
	}
	if !p.Status.Active() {
		shadow.Status = model.StatusDeactivated
	}
	return shadow, nil
}

// ShadowOf derives the secondary-store record for a primary user. Admin-class
// roles map to admin, everything else to user.
func ShadowOf(p *model.User) *model.User {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = p.Email
	}
	role := model.RoleUser
	if p.Role.IsAdmin() {
		role = model.RoleAdmin
	}
	return &model.User{
		Email:        model.NormalizeEmail(p.Email),
		Name:         name,
		Role:         role,
		Status:       model.StatusActive,
		PasswordHash: utils.PlaceholderHash(),
	}
}

// SynthesizeFromToken gets or creates a secondary user straight from the
// token's email and role. An existing record is left untouched.
type SynthesizeFromToken struct{ Secondary UserStore }

func (SynthesizeFromToken) Name() string { return "synthesize_from_token" }

func (s SynthesizeFromToken) Find(ctx context.Context, c *utils.Claims) (*model.User, error) {
	if c.Email == "" {
		return nil, nil
	}
	return s.Secondary.Upsert(ctx, &model.User{
		Email:        model.NormalizeEmail(c.Email),
		Name:         model.EmailLocalPart(c.Email),
		Role:         model.ParseRole(c.Role),
		Status:       model.StatusActive,
		PasswordHash: utils.PlaceholderHash(),
	}, false)
}

// ByID looks the token's userId up in Users. With EmaillessOnly set it only
// applies to tokens without an email claim.
type ByID struct {
	Users         UserStore
	EmaillessOnly bool
	Label         string
}

func (b ByID) Name() string {
	if b.Label != "" {
		return b.Label
	}
	return "by_id"
}

func (b ByID) Find(ctx context.Context, c *utils.Claims) (*model.User, error) {
	if b.EmaillessOnly && c.Email != "" {
		return nil, nil
	}
	if !model.IsValidID(c.UserID) {
		return nil, nil
	}
	return miss(b.Users.FindByID(ctx, c.UserID))
}

// ByEmail looks the token's email up case-insensitively in Users.
type ByEmail struct {
	Users UserStore
	Label string
}

func (b ByEmail) Name() string {
	if b.Label != "" {
		return b.Label
	}
	return "by_email"
}

func (b ByEmail) Find(ctx context.Context, c *utils.Claims) (*model.User, error) {
	if c.Email == "" {
		return nil, nil
	}
	return miss(b.Users.FindByEmail(ctx, c.Email))
}

// NewQueryTrackerResolver chains the lookups used by the query-tracker portal.
func NewQueryTrackerResolver(log *zap.Logger, primary, secondary UserStore) *Resolver {
	return NewResolver(log,
		SecondaryByEmail{Users: secondary},
		PrimarySync{Primary: primary, Secondary: secondary},
		SynthesizeFromToken{Secondary: secondary},
		ByID{Users: secondary, EmaillessOnly: true, Label: "secondary_by_id"},
	)
}

// NewPrimaryResolver resolves principals for the shared routes directly
// against the primary store.
func NewPrimaryResolver(log *zap.Logger, primary UserStore) *Resolver {
	return NewResolver(log,
		ByID{Users: primary, Label: "primary_by_id"},
		ByEmail{Users: primary, Label: "primary_by_email"},
	)
}

// RequireAdmin passes only for admin-class principals.
func RequireAdmin(p *model.User) error {
	if p == nil {
		return ErrUserNotFound
	}
	if !p.Role.IsAdmin() {
		return ErrAccessDenied
	}
	return nil
}
