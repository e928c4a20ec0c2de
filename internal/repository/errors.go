// Package repository defines the persistence layer and the error values that
// are shared by every store implementation. Handlers and services compare
// against these sentinels with errors.Is rather than inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup by id or unique key matches nothing.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update would violate a unique
// index, such as a second account with the same email or a second open
// check-in for the same employee and day.
var ErrDuplicate = errors.New("duplicate key")

// ErrConflict is returned when a conditional update did not apply because
// the document was no longer in the expected state.
var ErrConflict = errors.New("conflict")

// ErrUnavailable wraps connection-level failures so callers can tell an
// unreachable store apart from a logical miss.
var ErrUnavailable = errors.New("store unavailable")
