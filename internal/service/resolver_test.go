package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/repository/memstore"
	"github.com/iliyamo/hr-portal-backend/internal/utils"
)

func newTrackerResolver() (*Resolver, *memstore.Users, *memstore.Users) {
	primary, secondary := memstore.NewUsers(), memstore.NewUsers()
	return NewQueryTrackerResolver(nil, primary, secondary), primary, secondary
}

func TestResolve_SecondaryByEmail(t *testing.T) {
	r, _, secondary := newTrackerResolver()
	u := secondary.Put(&model.User{Email: "agent@acme.io", Name: "Agent", Role: model.RoleUser, PasswordHash: "hash"})

	got, err := r.Resolve(context.Background(), &utils.Claims{Email: "agent@acme.io"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Empty(t, got.PasswordHash)
}

func TestResolve_IdempotentShadow(t *testing.T) {
	r, primary, secondary := newTrackerResolver()
	primary.Put(&model.User{Email: "Boss@Acme.io", Name: "Boss", Role: model.RoleSuperAdmin})
	claims := &utils.Claims{Email: "boss@acme.io", Role: "superadmin"}

	first, err := r.Resolve(context.Background(), claims)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), claims)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, secondary.Count())
	assert.Equal(t, model.RoleAdmin, first.Role)
}

func TestResolve_PrimaryWins(t *testing.T) {
	r, primary, secondary := newTrackerResolver()
	primary.Put(&model.User{Email: "a@acme.io", Name: "A", Role: model.RoleAdmin})
	shadow := secondary.Put(&model.User{Email: "A@acme.io", Name: "B", Role: model.RoleUser})

	// The exact-email step misses on case, so the primary record is synced.
	got, err := r.Resolve(context.Background(), &utils.Claims{Email: "a@acme.io"})
	require.NoError(t, err)
	assert.Equal(t, shadow.ID, got.ID)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, model.RoleAdmin, got.Role)

	stored, err := secondary.FindByID(context.Background(), shadow.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", stored.Name)
	assert.Equal(t, model.RoleAdmin, stored.Role)
}

func TestResolve_SynthesizeFromToken(t *testing.T) {
	r, _, secondary := newTrackerResolver()

	got, err := r.Resolve(context.Background(), &utils.Claims{Email: "new.hire@acme.io", Role: "user"})
	require.NoError(t, err)
	assert.Equal(t, "new.hire", got.Name)
	assert.Equal(t, model.RoleUser, got.Role)
	assert.Equal(t, 1, secondary.Count())

	stored, err := secondary.FindByID(context.Background(), got.ID)
	require.NoError(t, err)
	assert.False(t, utils.VerifyPassword(stored.PasswordHash, ""))
}

func TestResolve_EmaillessTokenByID(t *testing.T) {
	r, _, secondary := newTrackerResolver()
	u := secondary.Put(&model.User{Email: "x@acme.io", Name: "X", Role: model.RoleUser})

	got, err := r.Resolve(context.Background(), &utils.Claims{UserID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = r.Resolve(context.Background(), &utils.Claims{UserID: "not-an-id"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = r.Resolve(context.Background(), &utils.Claims{UserID: model.NewID()})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResolve_InactiveRejected(t *testing.T) {
	tests := []struct {
		name string
		seed func(primary, secondary *memstore.Users) *utils.Claims
	}{
		{"secondary record", func(_, s *memstore.Users) *utils.Claims {
			s.Put(&model.User{Email: "off@acme.io", Status: model.StatusDeactivated})
			return &utils.Claims{Email: "off@acme.io"}
		}},
		{"synced from primary", func(p, _ *memstore.Users) *utils.Claims {
			p.Put(&model.User{Email: "off@acme.io", Status: model.StatusDeactivated})
			return &utils.Claims{Email: "off@acme.io"}
		}},
		{"by id", func(_, s *memstore.Users) *utils.Claims {
			u := s.Put(&model.User{Email: "off@acme.io", Status: model.StatusDeactivated})
			return &utils.Claims{UserID: u.ID}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, primary, secondary := newTrackerResolver()
			_, err := r.Resolve(context.Background(), tt.seed(primary, secondary))
			assert.ErrorIs(t, err, ErrUserInactive)
		})
	}
}

func TestResolve_ReactivatedPrimaryRegainsAccess(t *testing.T) {
	r, primary, secondary := newTrackerResolver()
	ctx := context.Background()
	p := primary.Put(&model.User{Email: "back@acme.io", Name: "Back", Role: model.RoleUser, Status: model.StatusDeactivated})
	claims := &utils.Claims{Email: "back@acme.io"}

	_, err := r.Resolve(ctx, claims)
	assert.ErrorIs(t, err, ErrUserInactive)
	require.Equal(t, 1, secondary.Count())
	shadow, err := secondary.FindByEmailExact(ctx, "back@acme.io")
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, shadow.Status)

	active := model.StatusActive
	_, err = primary.Update(ctx, p.ID, model.UserPatch{Status: &active})
	require.NoError(t, err)

	got, err := r.Resolve(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, shadow.ID, got.ID)
	assert.True(t, got.Status.Active())
}

func TestResolve_SyncReactivatesStaleShadow(t *testing.T) {
	r, primary, secondary := newTrackerResolver()
	primary.Put(&model.User{Email: "c@acme.io", Name: "C", Role: model.RoleUser})
	stale := secondary.Put(&model.User{Email: "C@acme.io", Name: "C", Role: model.RoleUser, Status: model.StatusDeactivated})

	got, err := r.Resolve(context.Background(), &utils.Claims{Email: "c@acme.io"})
	require.NoError(t, err)
	assert.Equal(t, stale.ID, got.ID)

	stored, err := secondary.FindByID(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, stored.Status)
}

func TestShadowOf(t *testing.T) {
	s := ShadowOf(&model.User{Email: " Lead@Acme.io ", Role: model.RoleSuperAdmin, Status: model.StatusDeactivated})
	assert.Equal(t, "lead@acme.io", s.Email)
	assert.Equal(t, model.RoleAdmin, s.Role)
	assert.Equal(t, model.StatusActive, s.Status)
	assert.False(t, utils.VerifyPassword(s.PasswordHash, ""))
}

func TestResolve_StoreUnavailable(t *testing.T) {
	r, primary, secondary := newTrackerResolver()
	down := errors.New("connection refused")
	primary.Err = down
	secondary.Err = down

	var outcomes []string
	r.Observe = func(step, outcome string) { outcomes = append(outcomes, step+":"+outcome) }

	_, err := r.Resolve(context.Background(), &utils.Claims{Email: "a@acme.io"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Contains(t, outcomes, "none:unavailable")
}

func TestResolve_SkipsFailingStep(t *testing.T) {
	r, primary, _ := newTrackerResolver()
	primary.Err = errors.New("timeout")

	// Primary is down but the token still carries enough to synthesize.
	got, err := r.Resolve(context.Background(), &utils.Claims{Email: "a@acme.io", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
}

func TestPrimaryResolver(t *testing.T) {
	primary := memstore.NewUsers()
	u := primary.Put(&model.User{Email: "hr@acme.io", Name: "HR", Role: model.RoleAdmin, PasswordHash: "h"})
	r := NewPrimaryResolver(nil, primary)

	got, err := r.Resolve(context.Background(), &utils.Claims{UserID: u.ID, Email: "hr@acme.io"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	got, err = r.Resolve(context.Background(), &utils.Claims{Email: "HR@acme.io"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = r.Resolve(context.Background(), &utils.Claims{Email: "ghost@acme.io"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, 1, primary.Count())
}

func TestRequireAdmin(t *testing.T) {
	assert.ErrorIs(t, RequireAdmin(nil), ErrUserNotFound)
	assert.ErrorIs(t, RequireAdmin(&model.User{Role: model.RoleUser}), ErrAccessDenied)
	assert.NoError(t, RequireAdmin(&model.User{Role: model.RoleAdmin}))
	assert.NoError(t, RequireAdmin(&model.User{Role: model.RoleSuperAdmin}))
}
