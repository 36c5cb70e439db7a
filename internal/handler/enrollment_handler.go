package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-registry-api/internal/dto"
	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/internal/service"
	"github.com/noah-isme/institute-registry-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, clientID string, req service.EnrollRequest, actor models.Actor) (*models.EnrollmentDetail, error)
	EnrollBatch(ctx context.Context, clientID string, req service.EnrollBatchRequest, actor models.Actor) ([]models.EnrollmentDetail, error)
}

// EnrollmentPayload accepts either a single diploma_id or a diploma_ids list.
type EnrollmentPayload struct {
	DiplomaID      string                `json:"diploma_id"`
	DiplomaIDs     []string              `json:"diploma_ids"`
	InstituteID    string                `json:"institute_id"`
	AttendanceType models.AttendanceType `json:"attendance_type"`
}

// EnrollmentHandler records enrollments for existing clients.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(svc enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Create godoc
// @Summary Enroll client
// @Description Enroll a client in one diploma (diploma_id) or several at once (diploma_ids)
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param payload body handler.EnrollmentPayload true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /clients/{id}/enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var payload EnrollmentPayload
	if !bindJSON(c, &payload, "invalid payload") {
		return
	}

	clientID := c.Param("id")
	actor := actorFromContext(c)

	if len(payload.DiplomaIDs) == 0 {
		detail, err := h.service.Enroll(c.Request.Context(), clientID, service.EnrollRequest{
			DiplomaID:      payload.DiplomaID,
			InstituteID:    payload.InstituteID,
			AttendanceType: payload.AttendanceType,
		}, actor)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, dto.NewEnrollmentResponse(*detail))
		return
	}

	ids := payload.DiplomaIDs
	if payload.DiplomaID != "" {
		ids = append([]string{payload.DiplomaID}, ids...)
	}
	details, err := h.service.EnrollBatch(c.Request.Context(), clientID, service.EnrollBatchRequest{
		DiplomaIDs:     ids,
		InstituteID:    payload.InstituteID,
		AttendanceType: payload.AttendanceType,
	}, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewEnrollmentResponses(details))
}
