package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role is the authorization role carried by users and tokens.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	// RoleSuperAdmin is a legacy alias. It is treated as admin everywhere.
	RoleSuperAdmin Role = "superadmin"
)

// IsAdmin reports whether r belongs to the admin set {admin, superadmin}.
func (r Role) IsAdmin() bool {
	switch Role(strings.ToLower(strings.TrimSpace(string(r)))) {
	case RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// ParseRole normalizes a role string. Unknown or empty values become user.
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleSuperAdmin:
		return r
	default:
		return RoleUser
	}
}

// UserStatus replaces the legacy isActive flag.
type UserStatus string

const (
	StatusActive      UserStatus = "active"
	StatusDeactivated UserStatus = "deactivated"
)

// StatusFromActive maps the stored isActive field. An absent flag means active.
func StatusFromActive(v *bool) UserStatus {
	if v != nil && !*v {
		return StatusDeactivated
	}
	return StatusActive
}

// Active reports whether the status allows authentication.
func (s UserStatus) Active() bool { return s != StatusDeactivated }

// User is a credential-store record. The same shape is used for primary
// users and for the secondary-store shadows.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	EmployeeID   string
	Department   string
	Company      string
	Phone        string
	Avatar       string
	Portals      []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserView is the client-facing form of a User. It never carries credentials.
type UserView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Status     string    `json:"status"`
	IsActive   bool      `json:"isActive"`
	EmployeeID string    `json:"employeeId,omitempty"`
	Department string    `json:"department,omitempty"`
	Company    string    `json:"company,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Avatar     string    `json:"avatar,omitempty"`
	Portals    []string  `json:"portals"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
	UpdatedAt  time.Time `json:"updatedAt,omitzero"`
}

// View strips credential fields.
func (u *User) View() UserView {
	portals := u.Portals
	if portals == nil {
		portals = []string{}
	}
	return UserView{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Status:     string(u.Status),
		IsActive:   u.Status.Active(),
		EmployeeID: u.EmployeeID,
		Department: u.Department,
		Company:    u.Company,
		Phone:      u.Phone,
		Avatar:     u.Avatar,
		Portals:    portals,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailLocalPart returns the part before '@', or the whole string when there is none.
func EmailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

// IsValidID reports whether id is a well-formed store reference.
func IsValidID(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}

// NewID returns a fresh store reference.
func NewID() string { return bson.NewObjectID().Hex() }

// UserPatch carries the mutable user fields. Nil means unchanged.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *Role
	Status       *UserStatus
	Portals      *[]string
	Phone        *string
}
