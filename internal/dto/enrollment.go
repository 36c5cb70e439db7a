package dto

import (
	"time"

	"github.com/noah-isme/institute-registry-api/internal/models"
)

// DiplomaRef is the diploma summary nested in enrollment responses.
type DiplomaRef struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// InstituteRef is the institute summary nested in enrollment responses.
type InstituteRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EnrollmentResponse is the serialized form of one enrollment.
type EnrollmentResponse struct {
	ID             string                `json:"id"`
	ClientID       string                `json:"client_id"`
	Diploma        DiplomaRef            `json:"diploma"`
	Institute      InstituteRef          `json:"institute"`
	AttendanceType models.AttendanceType `json:"attendance_type"`
	AddedAt        time.Time             `json:"added_at"`
	AddedBy        string                `json:"added_by"`
	AddedByName    string                `json:"added_by_name"`
}

// NewEnrollmentResponse projects a joined enrollment row.
func NewEnrollmentResponse(d models.EnrollmentDetail) EnrollmentResponse {
	return EnrollmentResponse{
		ID:             d.ID,
		ClientID:       d.ClientID,
		Diploma:        DiplomaRef{ID: d.DiplomaID, Name: d.DiplomaName, Date: d.DiplomaDate},
		Institute:      InstituteRef{ID: d.InstituteID, Name: d.InstituteName},
		AttendanceType: d.AttendanceType,
		AddedAt:        d.AddedAt,
		AddedBy:        d.AddedBy,
		AddedByName:    d.AddedByName,
	}
}

// NewEnrollmentResponses projects a slice, never returning nil.
func NewEnrollmentResponses(details []models.EnrollmentDetail) []EnrollmentResponse {
	out := make([]EnrollmentResponse, 0, len(details))
	for _, d := range details {
		out = append(out, NewEnrollmentResponse(d))
	}
	return out
}

// ClientDetailResponse is a client with its enrollments.
type ClientDetailResponse struct {
	models.Client
	Enrollments []EnrollmentResponse `json:"enrollments"`
}

// RegistrationResponse answers POST /clients.
type RegistrationResponse struct {
	Client      *models.Client       `json:"client"`
	Created     bool                 `json:"created"`
	Enrollments []EnrollmentResponse `json:"enrollments"`
}
