package models

import "time"

// EnrollmentCriteria is the normalised form of report filters. Zero values mean "no filter".
type EnrollmentCriteria struct {
	Sector      Sector
	Area        Area
	Search      string
	From        *time.Time
	ToExclusive *time.Time
	AddedBy     string
	DiplomaID   string
	UserID      string
	InstituteID string
	ClientID    string
}

// ReportRow is one denormalised enrollment line as shown in listings and exports.
type ReportRow struct {
	EnrollmentID   string         `db:"enrollment_id" json:"enrollment_id"`
	ClientID       string         `db:"client_id" json:"client_id"`
	ClientName     string         `db:"client_name" json:"client_name"`
	IdentityNumber string         `db:"identity_number" json:"identity_number"`
	PhoneNumber    string         `db:"phone_number" json:"phone_number"`
	Email          string         `db:"email" json:"email"`
	Sector         Sector         `db:"sector" json:"sector"`
	Area           Area           `db:"area" json:"area"`
	DiplomaID      string         `db:"diploma_id" json:"diploma_id"`
	DiplomaName    string         `db:"diploma_name" json:"diploma_name"`
	DiplomaDate    time.Time      `db:"diploma_date" json:"diploma_date"`
	InstituteID    string         `db:"institute_id" json:"institute_id"`
	InstituteName  string         `db:"institute_name" json:"institute_name"`
	InstituteCity  string         `db:"institute_city" json:"institute_city"`
	AttendanceType AttendanceType `db:"attendance_type" json:"attendance_type"`
	AddedAt        time.Time      `db:"added_at" json:"added_at"`
	AddedByID      string         `db:"added_by_id" json:"added_by_id"`
	AddedByName    string         `db:"added_by_name" json:"added_by_name"`
}
