package service

import (
	"errors"

	"github.com/iliyamo/hr-portal-backend/internal/utils"
)

// Token failures come straight from the token helpers.
var (
	ErrMissingToken = utils.ErrMissingToken
	ErrInvalidToken = utils.ErrInvalidToken
	ErrExpiredToken = utils.ErrExpiredToken
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is deactivated")
	ErrAccessDenied       = errors.New("access denied")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("user not found")

	ErrAlreadyCheckedIn = errors.New("already checked in today")
	ErrNoActiveCheckIn  = errors.New("no active check-in found")

	ErrTicketNotFound = errors.New("query not found")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, msg string) error { return &ValidationError{Field: field, Message: msg} }

// IsAuthError reports whether err is one of the authentication failures.
func IsAuthError(err error) bool {
	for _, target := range []error{ErrMissingToken, ErrInvalidToken, ErrExpiredToken, ErrUserNotFound, ErrUserInactive, ErrStoreUnavailable} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
