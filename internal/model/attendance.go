package model

import "time"

// AttendanceStatus is the state of a daily attendance record.
type AttendanceStatus string

const (
	AttendanceCheckedIn  AttendanceStatus = "checked-in"
	AttendanceCheckedOut AttendanceStatus = "checked-out"
)

// DateLayout is the calendar-day key format for attendance records.
const DateLayout = "2006-01-02"

// AttendanceRecord is one check-in/check-out pair for an employee on a day.
// TotalMinutes is stored unrounded.
type AttendanceRecord struct {
	ID           string
	EmployeeID   string
	Date         string
	CheckInTime  time.Time
	CheckOutTime *time.Time
	TotalMinutes float64
	Status       AttendanceStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ElapsedMinutes returns minutes between from and to, floored at zero.
func ElapsedMinutes(from, to time.Time) float64 {
	m := to.Sub(from).Minutes()
	if m < 0 {
		return 0
	}
	return m
}
