package model

import "time"

// Platform is the channel a customer query arrived through.
type Platform string

const (
	PlatformWebsite  Platform = "Website"
	PlatformEmail    Platform = "Email"
	PlatformPhone    Platform = "Phone"
	PlatformWhatsApp Platform = "WhatsApp"
)

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformWebsite, PlatformEmail, PlatformPhone, PlatformWhatsApp:
		return true
	}
	return false
}

// TicketStatus tracks a query through its lifecycle.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketInProgress TicketStatus = "In-Progress"
	TicketClosed     TicketStatus = "Closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketClosed:
		return true
	}
	return false
}

// Ticket is a customer query tracked by the query-tracker portal.
// CreatedBy is fixed at creation.
type Ticket struct {
	ID                   string
	Platform             Platform
	CustomerName         string
	CustomerMobile       string
	CustomerEmail        string
	CompanyName          string
	Location             string
	CustomerQuery        string
	AgentRemark          string
	QueryReceivedDate    time.Time
	AgentCallingDate     *time.Time
	Status               TicketStatus
	AssignedTo           string
	CreatedBy            string
	QueryType            string
	HowDidYouHearAboutUs string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TicketFilter narrows a ticket listing. VisibleTo, when set, restricts the
// result to tickets created by or assigned to that user.
type TicketFilter struct {
	Status     TicketStatus
	AssignedTo string
	CreatedBy  string
	Search     string
	VisibleTo  string
	Page       int
	Limit      int
}

// MaxTicketPage bounds the page number so the skip offset cannot overflow.
const MaxTicketPage = 1_000_000

// Skip returns how many matches precede the requested page. Page is clamped
// to [1, MaxTicketPage].
func (f TicketFilter) Skip() int64 {
	if f.Limit <= 0 {
		return 0
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	if page > MaxTicketPage {
		page = MaxTicketPage
	}
	return int64(page-1) * int64(f.Limit)
}

// TicketPatch carries the mutable ticket fields. Nil means unchanged.
type TicketPatch struct {
	Platform             *Platform
	CustomerName         *string
	CustomerMobile       *string
	CustomerEmail        *string
	CompanyName          *string
	Location             *string
	CustomerQuery        *string
	AgentRemark          *string
	QueryReceivedDate    *time.Time
	AgentCallingDate     *time.Time
	Status               *TicketStatus
	AssignedTo           *string
	QueryType            *string
	HowDidYouHearAboutUs *string
}

// UserRef is the short user form embedded in ticket responses.
type UserRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
