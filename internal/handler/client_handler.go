package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-registry-api/internal/dto"
	"github.com/noah-isme/institute-registry-api/internal/middleware"
	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/internal/service"
	"github.com/noah-isme/institute-registry-api/pkg/response"
)

type clientService interface {
	Get(ctx context.Context, id string) (*models.ClientDetail, error)
	Update(ctx context.Context, id string, attrs models.ClientAttributes) (*models.Client, error)
	Delete(ctx context.Context, id string) error
}

type clientRegistrar interface {
	RegisterClient(ctx context.Context, req service.RegisterClientRequest, actor models.Actor) (*service.RegistrationResult, error)
}

type enrollmentFilter interface {
	FilterEnrollments(ctx context.Context, q service.ReportQuery) ([]models.ReportRow, error)
}

// ClientHandler exposes client registration and maintenance.
type ClientHandler struct {
	clients   clientService
	registrar clientRegistrar
	reports   enrollmentFilter
}

// NewClientHandler constructs ClientHandler.
func NewClientHandler(clients clientService, registrar clientRegistrar, reports enrollmentFilter) *ClientHandler {
	return &ClientHandler{clients: clients, registrar: registrar, reports: reports}
}

// List godoc
// @Summary List enrolled clients
// @Description One row per enrollment, filtered like the enrollment report
// @Tags Clients
// @Produce json
// @Param sector query string false "Sector"
// @Param area query string false "Area"
// @Param search query string false "Client or diploma name"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD, inclusive"
// @Param added_by query string false "Recording user name"
// @Param diploma query string false "Diploma ID"
// @Param user query string false "Recording user ID"
// @Param institute query string false "Institute ID"
// @Success 200 {object} response.Envelope
// @Router /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	var q service.ReportQuery
	if !bindQuery(c, &q) {
		return
	}

	rows, err := h.reports.FilterEnrollments(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetMeta(c, "count", len(rows))
	response.JSON(c, http.StatusOK, rows, nil, middleware.ExtractMeta(c))
}

// Register godoc
// @Summary Register client
// @Description Find a client by identity number or create it, then enroll it in the listed diplomas
// @Tags Clients
// @Accept json
// @Produce json
// @Param payload body service.RegisterClientRequest true "Registration payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /clients [post]
func (h *ClientHandler) Register(c *gin.Context) {
	var req service.RegisterClientRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	result, err := h.registrar.RegisterClient(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	response.JSON(c, status, dto.RegistrationResponse{
		Client:      result.Client,
		Created:     result.Created,
		Enrollments: dto.NewEnrollmentResponses(result.Enrollments),
	}, nil)
}

// Get godoc
// @Summary Get client
// @Description Client detail with every enrollment it holds
// @Tags Clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /clients/{id} [get]
func (h *ClientHandler) Get(c *gin.Context) {
	detail, err := h.clients.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.ClientDetailResponse{
		Client:      detail.Client,
		Enrollments: dto.NewEnrollmentResponses(detail.Enrollments),
	}, nil)
}

// Update godoc
// @Summary Update client
// @Description Replace a client's descriptive fields; the identity number never changes
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param payload body models.ClientAttributes true "Client attributes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	var attrs models.ClientAttributes
	if !bindJSON(c, &attrs, "invalid payload") {
		return
	}

	client, err := h.clients.Update(c.Request.Context(), c.Param("id"), attrs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, client, nil)
}

// Delete godoc
// @Summary Delete client
// @Description Permanently delete a client and its enrollments
// @Tags Clients
// @Param id path string true "Client ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /clients/{id} [delete]
func (h *ClientHandler) Delete(c *gin.Context) {
	if err := h.clients.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
