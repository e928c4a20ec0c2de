package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/queue"
	"github.com/iliyamo/hr-portal-backend/internal/repository/memstore"
	"github.com/iliyamo/hr-portal-backend/internal/utils"
)

const authSecret = "unit-test-secret"

var authNow = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

func newAuth(opts AuthOptions) (*AuthService, *memstore.Users, *memstore.Directory, *recorder) {
	users, dir, rec := memstore.NewUsers(), memstore.NewDirectory(), &recorder{}
	opts.Secret = authSecret
	opts.BcryptCost = bcrypt.MinCost
	opts.Clock = func() time.Time { return authNow }
	return NewAuthService(users, dir, rec, opts, nil), users, dir, rec
}

func seedUser(t *testing.T, users *memstore.Users, email, password string, role model.Role, status model.UserStatus) *model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return users.Put(&model.User{Name: "Seed", Email: email, PasswordHash: hash, Role: role, Status: status})
}

func TestAuth_Login(t *testing.T) {
	svc, users, _, _ := newAuth(AuthOptions{})
	u := seedUser(t, users, "pat@acme.io", "s3cret!", model.RoleAdmin, model.StatusActive)

	s, err := svc.Login(context.Background(), " PAT@acme.io ", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, u.ID, s.User.ID)
	assert.Empty(t, s.User.PasswordHash)
	assert.Equal(t, authNow.Add(7*24*time.Hour), s.ExpiresAt)

	c, err := utils.VerifyToken(s.Token, authSecret, authNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, u.ID, c.UserID)
	assert.Equal(t, "pat@acme.io", c.Email)
	assert.Equal(t, "admin", c.Role)
}

func TestAuth_LoginFailures(t *testing.T) {
	svc, users, _, _ := newAuth(AuthOptions{})
	seedUser(t, users, "pat@acme.io", "s3cret!", model.RoleUser, model.StatusActive)
	seedUser(t, users, "gone@acme.io", "s3cret!", model.RoleUser, model.StatusDeactivated)
	ctx := context.Background()

	_, err := svc.Login(ctx, "pat@acme.io", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@acme.io", "s3cret!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	// deactivation is reported even with a wrong password
	_, err = svc.Login(ctx, "gone@acme.io", "wrong")
	assert.ErrorIs(t, err, ErrUserInactive)

	_, err = svc.Login(ctx, "", "x")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Email and password are required", ve.Message)
}

func TestAuth_UserIDOnlyTokens(t *testing.T) {
	svc, users, _, _ := newAuth(AuthOptions{UserIDOnly: true})
	u := seedUser(t, users, "agent@acme.io", "s3cret!", model.RoleUser, model.StatusActive)

	s, err := svc.Login(context.Background(), "agent@acme.io", "s3cret!")
	require.NoError(t, err)
	c, err := utils.VerifyToken(s.Token, authSecret, authNow)
	require.NoError(t, err)
	assert.Equal(t, u.ID, c.UserID)
	assert.Empty(t, c.Email)
	assert.Empty(t, c.Role)
}

func TestAuth_Signup(t *testing.T) {
	svc, users, dir, rec := newAuth(AuthOptions{RequirePhone: true})
	ctx := context.Background()

	s, err := svc.Signup(ctx, SignupInput{Name: "Kim", Email: "Kim@Acme.io", Phone: "555", Role: "user", Password: "abcdef"})
	require.NoError(t, err)
	assert.Equal(t, "kim@acme.io", s.User.Email)
	assert.Equal(t, model.StatusActive, s.User.Status)
	assert.Equal(t, 1, users.Count())
	assert.Equal(t, []string{queue.EventUserCreated}, rec.types())

	entries, err := dir.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, s.User.ID, entries[0].ExternalID)

	_, err = svc.Signup(ctx, SignupInput{Name: "Kim", Email: "kim@acme.io", Phone: "555", Role: "user", Password: "abcdef"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuth_SignupValidation(t *testing.T) {
	valid := SignupInput{Name: "Kim", Email: "kim@acme.io", Phone: "555", Role: "admin", Password: "abcdef"}
	tests := []struct {
		name   string
		mutate func(*SignupInput)
		want   string
	}{
		{"missing name", func(in *SignupInput) { in.Name = "" }, "Name, email, and password are required"},
		{"missing phone", func(in *SignupInput) { in.Phone = "" }, "All fields are required"},
		{"bad role", func(in *SignupInput) { in.Role = "superadmin" }, `Role must be either "admin" or "user"`},
		{"bad email", func(in *SignupInput) { in.Email = "kim.acme.io" }, "Invalid email format"},
		{"short password", func(in *SignupInput) { in.Password = "abc" }, "Password must be at least 6 characters long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, _, _ := newAuth(AuthOptions{RequirePhone: true})
			in := valid
			tt.mutate(&in)
			_, err := svc.Signup(context.Background(), in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.want, ve.Message)
			assert.Zero(t, users.Count())
		})
	}
}

func TestAuth_SignupDirectoryFailureIsNotFatal(t *testing.T) {
	svc, users, dir, _ := newAuth(AuthOptions{})
	dir.Err = assert.AnError

	_, err := svc.Signup(context.Background(), SignupInput{Name: "Kim", Email: "kim@acme.io", Role: "user", Password: "abcdef"})
	require.NoError(t, err)
	assert.Equal(t, 1, users.Count())
}

func TestAuth_Register(t *testing.T) {
	svc, users, _, _ := newAuth(AuthOptions{UserIDOnly: true})
	admin := &model.User{ID: model.NewID(), Role: model.RoleSuperAdmin}
	in := SignupInput{Name: "Agent", Email: "agent@acme.io", Role: "user", Password: "abcdef"}

	_, err := svc.Register(context.Background(), &model.User{ID: model.NewID(), Role: model.RoleUser}, in)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Zero(t, users.Count())

	u, err := svc.Register(context.Background(), admin, in)
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
	assert.Equal(t, model.RoleUser, u.Role)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@b.co"))
	assert.True(t, ValidEmail(" first.last@sub.example.org "))
	assert.False(t, ValidEmail("a@b"))
	assert.False(t, ValidEmail("a b@c.de"))
	assert.False(t, ValidEmail(""))
}
