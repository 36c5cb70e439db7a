package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-registry-api/internal/middleware"
	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/internal/service"
	"github.com/noah-isme/institute-registry-api/pkg/response"
)

type diplomaService interface {
	List(ctx context.Context, filter models.DiplomaFilter) ([]models.Diploma, bool, error)
	Get(ctx context.Context, id string) (*models.Diploma, error)
	Create(ctx context.Context, req service.DiplomaRequest) (*models.Diploma, error)
	Update(ctx context.Context, id string, req service.DiplomaRequest) (*models.Diploma, error)
	Delete(ctx context.Context, id string) error
}

// DiplomaHandler serves the diploma catalog.
type DiplomaHandler struct {
	service diplomaService
}

// NewDiplomaHandler constructs DiplomaHandler.
func NewDiplomaHandler(svc diplomaService) *DiplomaHandler {
	return &DiplomaHandler{service: svc}
}

// List godoc
// @Summary List diplomas
// @Tags Diplomas
// @Produce json
// @Param type query string false "Attendance mode (online, offline, hybrid)"
// @Param search query string false "Name contains"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /diplomas [get]
func (h *DiplomaHandler) List(c *gin.Context) {
	filter := models.DiplomaFilter{
		AttendanceMode: models.AttendanceMode(strings.TrimSpace(c.Query("type"))),
		Search:         strings.TrimSpace(c.Query("search")),
	}

	diplomas, hit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, diplomas, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get diploma
// @Tags Diplomas
// @Produce json
// @Param id path string true "Diploma ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /diplomas/{id} [get]
func (h *DiplomaHandler) Get(c *gin.Context) {
	diploma, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, diploma, nil)
}

// Create godoc
// @Summary Create diploma
// @Description Hijri dates default to the conversion of the Gregorian ones
// @Tags Diplomas
// @Accept json
// @Produce json
// @Param payload body service.DiplomaRequest true "Diploma payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /diplomas [post]
func (h *DiplomaHandler) Create(c *gin.Context) {
	var req service.DiplomaRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	diploma, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, diploma)
}

// Update godoc
// @Summary Update diploma
// @Tags Diplomas
// @Accept json
// @Produce json
// @Param id path string true "Diploma ID"
// @Param payload body service.DiplomaRequest true "Diploma payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /diplomas/{id} [put]
func (h *DiplomaHandler) Update(c *gin.Context) {
	var req service.DiplomaRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	diploma, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, diploma, nil)
}

// Delete godoc
// @Summary Delete diploma
// @Description Deletes the diploma and every enrollment in it
// @Tags Diplomas
// @Param id path string true "Diploma ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /diplomas/{id} [delete]
func (h *DiplomaHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
