package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-registry-api/internal/middleware"
	"github.com/noah-isme/institute-registry-api/internal/service"
	"github.com/noah-isme/institute-registry-api/pkg/response"
)

type reportExporter interface {
	Export(ctx context.Context, q service.ReportQuery, format string) (*service.ExportResult, error)
}

// ReportHandler exposes the enrollment report and its exports.
type ReportHandler struct {
	reports  enrollmentFilter
	exporter reportExporter
}

// NewReportHandler constructs handler.
func NewReportHandler(reports enrollmentFilter, exporter reportExporter) *ReportHandler {
	return &ReportHandler{reports: reports, exporter: exporter}
}

// Enrollments godoc
// @Summary Enrollment report
// @Description Flat enrollment rows ordered by recording time; malformed dates are ignored
// @Tags Reports
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
// @Param client query string false "Client ID"
// @Success 200 {object} response.Envelope
// @Router /reports/enrollments [get]
func (h *ReportHandler) Enrollments(c *gin.Context) {
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

// Export godoc
// @Summary Export enrollment report
// @Description Download the filtered report as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/enrollments/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	var q service.ReportQuery
	if !bindQuery(c, &q) {
		return
	}

	result, err := h.exporter.Export(c.Request.Context(), q, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Document(c, result.ContentType, result.Filename, result.Data, false)
}
