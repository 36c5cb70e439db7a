package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/pkg/response"
)

type certificateService interface {
	Build(ctx context.Context, clientID, diplomaID, requestBaseURL string) (*models.CertificateData, error)
	Render(ctx context.Context, data *models.CertificateData) ([]byte, error)
}

// CertificateHandler renders completion certificates.
type CertificateHandler struct {
	service certificateService
}

// NewCertificateHandler constructs CertificateHandler.
func NewCertificateHandler(svc certificateService) *CertificateHandler {
	return &CertificateHandler{service: svc}
}

// Download godoc
// @Summary Client certificate
// @Description Render the certificate for a diploma the client holds, using the institute's artwork
// @Tags Certificates
// @Produce application/pdf
// @Param id path string true "Client ID"
// @Param diplomaId path string true "Diploma ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /clients/{id}/diplomas/{diplomaId}/certificate [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	data, err := h.service.Build(c.Request.Context(), c.Param("id"), c.Param("diplomaId"), requestBaseURL(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	pdf, err := h.service.Render(c.Request.Context(), data)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Document(c, "application/pdf", data.Filename, pdf, true)
}

func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + c.Request.Host
}
