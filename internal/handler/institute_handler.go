package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-registry-api/internal/middleware"
	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/internal/service"
	"github.com/noah-isme/institute-registry-api/pkg/response"
)

type instituteService interface {
	List(ctx context.Context) ([]models.Institute, bool, error)
	Get(ctx context.Context, id string) (*models.Institute, error)
	Create(ctx context.Context, req service.InstituteRequest) (*models.Institute, error)
	Update(ctx context.Context, id string, req service.InstituteRequest) (*models.Institute, error)
	Delete(ctx context.Context, id string) error
}

// InstituteHandler serves training venues.
type InstituteHandler struct {
	service instituteService
}

// NewInstituteHandler constructs InstituteHandler.
func NewInstituteHandler(svc instituteService) *InstituteHandler {
	return &InstituteHandler{service: svc}
}

// List godoc
// @Summary List institutes
// @Tags Institutes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /institutes [get]
func (h *InstituteHandler) List(c *gin.Context) {
	institutes, hit, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, institutes, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get institute
// @Tags Institutes
// @Produce json
// @Param id path string true "Institute ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /institutes/{id} [get]
func (h *InstituteHandler) Get(c *gin.Context) {
	institute, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, institute, nil)
}

// Create godoc
// @Summary Create institute
// @Tags Institutes
// @Accept json
// @Produce json
// @Param payload body service.InstituteRequest true "Institute payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /institutes [post]
func (h *InstituteHandler) Create(c *gin.Context) {
	var req service.InstituteRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	institute, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, institute)
}

// Update godoc
// @Summary Update institute
// @Tags Institutes
// @Accept json
// @Produce json
// @Param id path string true "Institute ID"
// @Param payload body service.InstituteRequest true "Institute payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /institutes/{id} [put]
func (h *InstituteHandler) Update(c *gin.Context) {
	var req service.InstituteRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	institute, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, institute, nil)
}

// Delete godoc
// @Summary Delete institute
// @Description Deletes the institute and every enrollment recorded at it
// @Tags Institutes
// @Param id path string true "Institute ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /institutes/{id} [delete]
func (h *InstituteHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
