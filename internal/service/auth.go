package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/queue"
	"github.com/iliyamo/hr-portal-backend/internal/repository"
	"github.com/iliyamo/hr-portal-backend/internal/utils"
)

const MinPasswordLen = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool { return emailPattern.MatchString(strings.TrimSpace(s)) }

// Session is the outcome of a successful login or signup.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// SignupInput carries a self-service or admin registration.
type SignupInput struct {
	Name     string
	Email    string
	Phone    string
	Role     string
	Password string
}

// AuthOptions configures an AuthService.
type AuthOptions struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
	// UserIDOnly issues tokens that carry only the user id, the form minted by
	// the query-tracker's own login.
	UserIDOnly bool
	// RequirePhone makes phone mandatory on signup.
	RequirePhone bool
	Clock        Clock
}

// AuthService logs users in against one credential store. When a directory
// is configured new signups are mirrored into it.
type AuthService struct {
	users     UserStore
	directory Directory
	events    EventPublisher
	opts      AuthOptions
	log       *zap.Logger
}

func NewAuthService(users UserStore, directory Directory, events EventPublisher, opts AuthOptions, log *zap.Logger) *AuthService {
	if opts.Clock == nil {
		opts.Clock = systemClock
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = 10
	}
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, directory: directory, events: events, opts: opts, log: log}
}

// Login checks the credentials. An unknown email and a wrong password both
// fail with ErrInvalidCredentials; a deactivated account fails with
// ErrUserInactive before the password is looked at.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, invalid("email", "Email and password are required")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Info("login rejected", zap.String("email", email), zap.String("reason", "unknown email"))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login lookup: %w", err)
	}
	if !u.Status.Active() {
		s.log.Info("login rejected", zap.String("email", email), zap.String("reason", "deactivated"))
		return nil, ErrUserInactive
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		s.log.Info("login rejected", zap.String("email", email), zap.String("reason", "password mismatch"))
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// Signup creates an active account and logs it in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	u, err := s.create(ctx, in, true)
	if err != nil {
		return nil, err
	}
	if s.directory != nil {
		entry := model.DirectoryEntry{ExternalID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role}
		if _, err := s.directory.Create(ctx, entry, u.PasswordHash); err != nil {
			s.log.Warn("directory mirror failed", zap.String("email", u.Email), zap.Error(err))
		}
	}
	return s.session(u)
}

// Register lets an admin create an account in this store.
func (s *AuthService) Register(ctx context.Context, p *model.User, in SignupInput) (*model.User, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	u, err := s.create(ctx, in, false)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return u, nil
}

func (s *AuthService) create(ctx context.Context, in SignupInput, selfService bool) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = model.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	role := model.Role(strings.ToLower(strings.TrimSpace(in.Role)))

	switch {
	case in.Name == "" || in.Email == "" || in.Password == "":
		return nil, invalid("name", "Name, email, and password are required")
	case selfService && s.opts.RequirePhone && in.Phone == "":
		return nil, invalid("phone", "All fields are required")
	case role != model.RoleAdmin && role != model.RoleUser:
		return nil, invalid("role", `Role must be either "admin" or "user"`)
	case !ValidEmail(in.Email):
		return nil, invalid("email", "Invalid email format")
	case len(in.Password) < MinPasswordLen:
		return nil, invalid("password", "Password must be at least 6 characters long")
	}

	hash, err := utils.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Role:         role,
		Status:       model.StatusActive,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user created", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	if err := s.events.Publish(ctx, queue.ActivityEvent{Type: queue.EventUserCreated, UserID: u.ID, At: u.CreatedAt}); err != nil {
		s.log.Warn("publish activity event failed", zap.String("type", queue.EventUserCreated), zap.Error(err))
	}
	return u, nil
}

func (s *AuthService) session(u *model.User) (*Session, error) {
	claims := utils.Claims{UserID: u.ID}
	if !s.opts.UserIDOnly {
		claims.Email = u.Email
		claims.Role = string(u.Role)
	}
	token, exp, err := utils.IssueToken(claims, s.opts.Secret, s.opts.TTL, s.opts.Clock())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	u.PasswordHash = ""
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}
