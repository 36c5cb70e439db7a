package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/institute-registry-api/internal/models"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
	"github.com/noah-isme/institute-registry-api/pkg/export"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var reportHeaders = []string{
	"Client", "Identity Number", "Phone", "Email", "Sector", "Area",
	"Diploma", "Diploma Date", "Institute", "Attendance", "Added At", "Added By",
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig bounds synchronous exports.
type ExportConfig struct {
	MaxRows  int
	PDFTitle string
}

// ExportResult is a rendered report file.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders enrollment reports as downloadable files.
type ExportService struct {
	reports *ReportService
	csv     csvRenderer
	pdf     pdfRenderer
	cfg     ExportConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(reports *ReportService, csv csvRenderer, pdf pdfRenderer, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 5000
	}
	if cfg.PDFTitle == "" {
		cfg.PDFTitle = "Enrollment Report"
	}
	return &ExportService{reports: reports, csv: csv, pdf: pdf, cfg: cfg, logger: logger, now: time.Now}
}

// Export renders the filtered enrollment rows. Results beyond MaxRows are rejected rather than
// silently truncated.
func (s *ExportService) Export(ctx context.Context, q ReportQuery, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	rows, err := s.reports.filter(ctx, q, s.cfg.MaxRows+1)
	if err != nil {
		return nil, err
	}
	if len(rows) > s.cfg.MaxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("report exceeds %d rows, narrow the filters", s.cfg.MaxRows))
	}

	dataset := buildReportDataset(rows)
	result := &ExportResult{
		Filename: fmt.Sprintf("enrollments_%s.%s", s.now().UTC().Format("20060102_150405"), format),
		Rows:     len(rows),
	}
	switch format {
	case ExportFormatPDF:
		result.ContentType = "application/pdf"
		result.Data, err = s.pdf.Render(dataset, s.cfg.PDFTitle)
	default:
		result.ContentType = "text/csv; charset=utf-8"
		result.Data, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	s.logger.Info("report exported", zap.String("format", format), zap.Int("rows", len(rows)))
	return result, nil
}

func buildReportDataset(rows []models.ReportRow) export.Dataset {
	dataset := export.Dataset{Headers: reportHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Client":          row.ClientName,
			"Identity Number": row.IdentityNumber,
			"Phone":           row.PhoneNumber,
			"Email":           row.Email,
			"Sector":          string(row.Sector),
			"Area":            string(row.Area),
			"Diploma":         row.DiplomaName,
			"Diploma Date":    row.DiplomaDate.Format(dateLayout),
			"Institute":       row.InstituteName,
			"Attendance":      string(row.AttendanceType),
			"Added At":        row.AddedAt.UTC().Format("2006-01-02 15:04"),
			"Added By":        row.AddedByName,
		})
	}
	return dataset
}
