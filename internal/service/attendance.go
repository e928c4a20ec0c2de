package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/queue"
	"github.com/iliyamo/hr-portal-backend/internal/repository"
)

const (
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 365
)

// AttendanceStatus is the live view of an employee's day.
type AttendanceStatus struct {
	EmployeeID   string                 `json:"employeeId"`
	Status       model.AttendanceStatus `json:"status"`
	Date         string                 `json:"date"`
	CheckInTime  *time.Time             `json:"checkInTime"`
	CheckOutTime *time.Time             `json:"checkOutTime"`
	TotalMinutes float64                `json:"totalMinutes"`
	TotalHours   float64                `json:"totalHours"`
}

// HistoryEntry is one attendance record prepared for display.
type HistoryEntry struct {
	ID           string                 `json:"_id"`
	EmployeeID   string                 `json:"employeeId"`
	Date         string                 `json:"date"`
	CheckInTime  time.Time              `json:"checkInTime"`
	CheckOutTime *time.Time             `json:"checkOutTime"`
	TotalMinutes float64                `json:"totalMinutes"`
	TotalHours   float64                `json:"totalHours"`
	Status       model.AttendanceStatus `json:"status"`
}

// AttendanceService tracks daily check-ins. The calendar day of a timestamp
// is taken in Location.
type AttendanceService struct {
	store    AttendanceStore
	events   EventPublisher
	log      *zap.Logger
	location *time.Location

	// OnCheckIn and OnCheckOut, when set, are called after a successful change.
	OnCheckIn  func()
	OnCheckOut func(minutes float64)
}

func NewAttendanceService(store AttendanceStore, events EventPublisher, loc *time.Location, log *zap.Logger) *AttendanceService {
	if events == nil {
		events = NopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AttendanceService{store: store, events: events, log: log, location: loc}
}

// DayKey returns the record date for t.
func (s *AttendanceService) DayKey(t time.Time) string {
	return t.In(s.location).Format(model.DateLayout)
}

// HoursFromMinutes converts minutes to hours rounded to two decimals.
func HoursFromMinutes(m float64) float64 {
	return math.Round(m/60*100) / 100
}

func requireEmployee(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalid("employeeId", "Employee ID is required")
	}
	return id, nil
}

// CheckIn opens today's record. A second check-in before checking out fails
// with ErrAlreadyCheckedIn, including when two requests race.
func (s *AttendanceService) CheckIn(ctx context.Context, employeeID string, now time.Time) (*model.AttendanceRecord, error) {
	employeeID, err := requireEmployee(employeeID)
	if err != nil {
		return nil, err
	}
	date := s.DayKey(now)

	if _, err := s.store.FindOpen(ctx, employeeID, date); err == nil {
		return nil, ErrAlreadyCheckedIn
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check-in lookup: %w", err)
	}

	rec := &model.AttendanceRecord{
		EmployeeID:  employeeID,
		Date:        date,
		CheckInTime: now.UTC(),
		Status:      model.AttendanceCheckedIn,
	}
	if err := s.store.InsertCheckIn(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("check-in insert: %w", err)
	}

	s.log.Info("employee checked in", zap.String("employee_id", employeeID), zap.String("date", date))
	if s.OnCheckIn != nil {
		s.OnCheckIn()
	}
	s.publish(ctx, queue.ActivityEvent{Type: queue.EventCheckIn, EmployeeID: employeeID, Status: string(rec.Status), At: rec.CheckInTime})
	return rec, nil
}

// CheckOut closes today's open record and stores the elapsed minutes.
func (s *AttendanceService) CheckOut(ctx context.Context, employeeID string, now time.Time) (*model.AttendanceRecord, error) {
	employeeID, err := requireEmployee(employeeID)
	if err != nil {
		return nil, err
	}
	date := s.DayKey(now)

	open, err := s.store.FindOpen(ctx, employeeID, date)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoActiveCheckIn
	}
	if err != nil {
		return nil, fmt.Errorf("check-out lookup: %w", err)
	}

	at := now.UTC()
	minutes := model.ElapsedMinutes(open.CheckInTime, at)
	if err := s.store.Close(ctx, open.ID, at, minutes); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrNoActiveCheckIn
		}
		return nil, fmt.Errorf("check-out update: %w", err)
	}
	open.CheckOutTime = &at
	open.TotalMinutes = minutes
	open.Status = model.AttendanceCheckedOut
	open.UpdatedAt = at

	s.log.Info("employee checked out",
		zap.String("employee_id", employeeID), zap.String("date", date), zap.Float64("minutes", minutes))
	if s.OnCheckOut != nil {
		s.OnCheckOut(minutes)
	}
	s.publish(ctx, queue.ActivityEvent{Type: queue.EventCheckOut, EmployeeID: employeeID, Status: string(open.Status), TotalMinutes: minutes, At: at})
	return open, nil
}

// Status reports the state of today's latest record without changing it. An
// open record reports minutes elapsed up to now.
func (s *AttendanceService) Status(ctx context.Context, employeeID string, now time.Time) (*AttendanceStatus, error) {
	employeeID, err := requireEmployee(employeeID)
	if err != nil {
		return nil, err
	}
	date := s.DayKey(now)

	rec, err := s.store.FindLatest(ctx, employeeID, date)
	if errors.Is(err, repository.ErrNotFound) {
		return &AttendanceStatus{EmployeeID: employeeID, Status: model.AttendanceCheckedOut, Date: date}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("status lookup: %w", err)
	}

	st := &AttendanceStatus{
		EmployeeID:   employeeID,
		Status:       rec.Status,
		Date:         date,
		CheckOutTime: rec.CheckOutTime,
		TotalMinutes: rec.TotalMinutes,
	}
	in := rec.CheckInTime
	st.CheckInTime = &in
	if rec.Status == model.AttendanceCheckedIn {
		st.TotalMinutes = model.ElapsedMinutes(rec.CheckInTime, now)
	}
	st.TotalHours = HoursFromMinutes(st.TotalMinutes)
	return st, nil
}

// History returns up to limit records, newest day first. A non-positive limit
// means DefaultHistoryLimit.
func (s *AttendanceService) History(ctx context.Context, employeeID string, limit int) ([]HistoryEntry, error) {
	employeeID, err := requireEmployee(employeeID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	recs, err := s.store.History(ctx, employeeID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	out := make([]HistoryEntry, 0, len(recs))
	for _, r := range recs {
		out = append(out, HistoryEntry{
			ID:           r.ID,
			EmployeeID:   r.EmployeeID,
			Date:         r.Date,
			CheckInTime:  r.CheckInTime,
			CheckOutTime: r.CheckOutTime,
			TotalMinutes: r.TotalMinutes,
			TotalHours:   HoursFromMinutes(r.TotalMinutes),
			Status:       r.Status,
		})
	}
	return out, nil
}

func (s *AttendanceService) publish(ctx context.Context, ev queue.ActivityEvent) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish activity event failed", zap.String("type", ev.Type), zap.Error(err))
	}
}
