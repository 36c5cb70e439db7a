package models

import "time"

// AttendanceMode is how a diploma is offered.
type AttendanceMode string

// Supported attendance modes.
const (
	AttendanceModeOnline  AttendanceMode = "online"
	AttendanceModeOffline AttendanceMode = "offline"
	AttendanceModeHybrid  AttendanceMode = "hybrid"
)

// Valid reports whether m is a known attendance mode.
func (m AttendanceMode) Valid() bool {
	switch m {
	case AttendanceModeOnline, AttendanceModeOffline, AttendanceModeHybrid:
		return true
	default:
		return false
	}
}

// Diploma is a course offering in the catalog.
type Diploma struct {
	ID             string         `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Date           time.Time      `db:"date" json:"date"`
	AttendanceMode AttendanceMode `db:"attendance_mode" json:"attendance_mode"`
	DurationHours  *int           `db:"duration_hours" json:"duration_hours,omitempty"`
	DurationDays   *int           `db:"duration_days" json:"duration_days,omitempty"`
	StartDate      *time.Time     `db:"start_date" json:"start_date,omitempty"`
	EndDate        *time.Time     `db:"end_date" json:"end_date,omitempty"`
	StartDateHijri *string        `db:"start_date_hijri" json:"start_date_hijri,omitempty"`
	EndDateHijri   *string        `db:"end_date_hijri" json:"end_date_hijri,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// DiplomaFilter narrows catalog listings.
type DiplomaFilter struct {
	AttendanceMode AttendanceMode
	Search         string
}
