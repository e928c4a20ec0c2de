// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import "time"

// Activity event types.
const (
	EventCheckIn       = "attendance.checked_in"
	EventCheckOut      = "attendance.checked_out"
	EventTicketCreated = "ticket.created"
	EventTicketUpdated = "ticket.updated"
	EventTicketDeleted = "ticket.deleted"
	EventUserCreated   = "user.created"
)

// ActivityEvent is published after a state change so downstream consumers can
// log, notify or aggregate without querying the stores.
type ActivityEvent struct {
	Type         string    `json:"type"`
	EmployeeID   string    `json:"employee_id,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	TicketID     string    `json:"ticket_id,omitempty"`
	Status       string    `json:"status,omitempty"`
	TotalMinutes float64   `json:"total_minutes,omitempty"`
	At           time.Time `json:"at"`
}
