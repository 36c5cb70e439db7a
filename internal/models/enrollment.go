package models

import (
	"fmt"
	"strings"
	"time"
)

// AttendanceType is how a client attends a diploma they enrolled in.
type AttendanceType string

// Supported attendance types.
const (
	AttendanceOnline  AttendanceType = "online"
	AttendanceOffline AttendanceType = "offline"
)

// Valid reports whether t is a known attendance type.
func (t AttendanceType) Valid() bool {
	switch t {
	case AttendanceOnline, AttendanceOffline:
		return true
	default:
		return false
	}
}

// AttendanceError describes an attendance type the diploma does not offer.
type AttendanceError struct {
	Mode AttendanceMode
	Type AttendanceType
}

func (e *AttendanceError) Error() string {
	switch e.Mode {
	case AttendanceModeOnline:
		return "this diploma is online-only"
	case AttendanceModeOffline:
		return "this diploma is offline-only"
	default:
		if !e.Mode.Valid() {
			return fmt.Sprintf("diploma has unknown attendance mode %q", e.Mode)
		}
		return fmt.Sprintf("attendance type %q is not supported", e.Type)
	}
}

// HeldError reports diplomas a client already holds at some institute, detected while the
// client row is locked.
type HeldError struct {
	Diplomas []Diploma
}

func (e *HeldError) Error() string {
	names := make([]string, 0, len(e.Diplomas))
	for _, d := range e.Diplomas {
		names = append(names, d.Name)
	}
	return "client already holds: " + strings.Join(names, ", ")
}

// CheckAttendance is the single compatibility rule between a diploma's mode and an
// enrollment's attendance type. Hybrid diplomas accept either type.
func CheckAttendance(mode AttendanceMode, t AttendanceType) error {
	if !t.Valid() {
		return &AttendanceError{Mode: mode, Type: t}
	}
	switch mode {
	case AttendanceModeOnline:
		if t != AttendanceOnline {
			return &AttendanceError{Mode: mode, Type: t}
		}
		return nil
	case AttendanceModeOffline:
		if t != AttendanceOffline {
			return &AttendanceError{Mode: mode, Type: t}
		}
		return nil
	case AttendanceModeHybrid:
		return nil
	default:
		return &AttendanceError{Mode: mode, Type: t}
	}
}

// Enrollment records that a client holds a diploma at an institute.
type Enrollment struct {
	ID             string         `db:"id" json:"id"`
	ClientID       string         `db:"client_id" json:"client_id"`
	DiplomaID      string         `db:"diploma_id" json:"diploma_id"`
	InstituteID    string         `db:"institute_id" json:"institute_id"`
	AttendanceType AttendanceType `db:"attendance_type" json:"attendance_type"`
	AddedAt        time.Time      `db:"added_at" json:"added_at"`
	AddedBy        string         `db:"added_by" json:"added_by"`
}

// EnrollmentDetail joins an enrollment with the display fields of its references.
type EnrollmentDetail struct {
	Enrollment
	DiplomaName   string    `db:"diploma_name" json:"diploma_name"`
	DiplomaDate   time.Time `db:"diploma_date" json:"diploma_date"`
	InstituteName string    `db:"institute_name" json:"institute_name"`
	AddedByName   string    `db:"added_by_name" json:"added_by_name"`
}

// Actor identifies the staff user recording a change.
type Actor struct {
	UserID   string
	FullName string
	Role     UserRole
}
