package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/repository"
)

// Attendance is an in-memory attendance store. Like the Mongo store it allows
// one checked-in record per employee and day.
type Attendance struct {
	mu      sync.Mutex
	records []*model.AttendanceRecord
	Err     error
}

func NewAttendance() *Attendance { return &Attendance{} }

func cloneRecord(r *model.AttendanceRecord) *model.AttendanceRecord {
	c := *r
	if r.CheckOutTime != nil {
		t := *r.CheckOutTime
		c.CheckOutTime = &t
	}
	return &c
}

func (s *Attendance) InsertCheckIn(_ context.Context, rec *model.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, r := range s.records {
		if r.EmployeeID == rec.EmployeeID && r.Date == rec.Date && r.Status == model.AttendanceCheckedIn {
			return repository.ErrDuplicate
		}
	}
	rec.ID = model.NewID()
	rec.Status = model.AttendanceCheckedIn
	rec.CreatedAt, rec.UpdatedAt = rec.CheckInTime, rec.CheckInTime
	s.records = append(s.records, cloneRecord(rec))
	return nil
}

func (s *Attendance) FindOpen(_ context.Context, employeeID, date string) (*model.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, r := range s.records {
		if r.EmployeeID == employeeID && r.Date == date && r.Status == model.AttendanceCheckedIn {
			return cloneRecord(r), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Attendance) FindLatest(_ context.Context, employeeID, date string) (*model.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var latest *model.AttendanceRecord
	for _, r := range s.records {
		if r.EmployeeID == employeeID && r.Date == date && (latest == nil || r.CheckInTime.After(latest.CheckInTime)) {
			latest = r
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return cloneRecord(latest), nil
}

func (s *Attendance) Close(_ context.Context, id string, at time.Time, minutes float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, r := range s.records {
		if r.ID != id {
			continue
		}
		if r.Status != model.AttendanceCheckedIn {
			return repository.ErrConflict
		}
		out := at
		r.CheckOutTime = &out
		r.TotalMinutes = minutes
		r.Status = model.AttendanceCheckedOut
		r.UpdatedAt = at
		return nil
	}
	return repository.ErrConflict
}

func (s *Attendance) History(_ context.Context, employeeID string, limit int) ([]*model.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []*model.AttendanceRecord{}
	for _, r := range s.records {
		if r.EmployeeID == employeeID {
			out = append(out, cloneRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CheckInTime.After(out[j].CheckInTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Stored returns a copy of the record with the given ID.
func (s *Attendance) Stored(id string) (*model.AttendanceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			return cloneRecord(r), true
		}
	}
	return nil, false
}
