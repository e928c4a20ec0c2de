package service

import (
	"context"
	"time"

	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/queue"
)

// UserStore is a credential store. Lookups report a miss as repository.ErrNotFound.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByEmailExact(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, id string, p model.UserPatch) (*model.User, error)
	Upsert(ctx context.Context, u *model.User, overwrite bool) (*model.User, error)
}

type TicketStore interface {
	Create(ctx context.Context, t *model.Ticket) error
	FindByID(ctx context.Context, id string) (*model.Ticket, error)
	Update(ctx context.Context, id string, p model.TicketPatch) (*model.Ticket, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f model.TicketFilter) ([]*model.Ticket, int64, error)
}

type AttendanceStore interface {
	InsertCheckIn(ctx context.Context, rec *model.AttendanceRecord) error
	FindOpen(ctx context.Context, employeeID, date string) (*model.AttendanceRecord, error)
	FindLatest(ctx context.Context, employeeID, date string) (*model.AttendanceRecord, error)
	Close(ctx context.Context, id string, at time.Time, minutes float64) error
	History(ctx context.Context, employeeID string, limit int) ([]*model.AttendanceRecord, error)
}

type PortalDocStore interface {
	GetOrCreate(ctx context.Context, kind model.PortalDocKind, employeeID string, defaults map[string]any) (map[string]any, error)
}

// Directory is the HRMS employee directory.
type Directory interface {
	Create(ctx context.Context, e model.DirectoryEntry, passwordHash string) (uint64, error)
	List(ctx context.Context, limit, offset int) ([]model.DirectoryEntry, error)
}

// EventPublisher sends activity events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.ActivityEvent) error { return nil }

// Clock returns the current time. Services take it as a dependency so tests
// can pin the time.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }
