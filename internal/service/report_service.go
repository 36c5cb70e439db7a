package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/institute-registry-api/internal/models"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
)

type enrollmentReporter interface {
	Report(ctx context.Context, criteria models.EnrollmentCriteria, limit int) ([]models.ReportRow, error)
}

// ReportQuery carries raw filter values as received from the query string.
type ReportQuery struct {
	Sector      string `form:"sector"`
	Area        string `form:"area"`
	Search      string `form:"search"`
	DateFrom    string `form:"date_from"`
	DateTo      string `form:"date_to"`
	AddedBy     string `form:"added_by"`
	DiplomaID   string `form:"diploma"`
	UserID      string `form:"user"`
	InstituteID string `form:"institute"`
	ClientID    string `form:"client"`
}

// Criteria normalises the query. Date bounds are whole UTC days: date_to includes everything
// recorded before the following midnight. A bound that does not parse as YYYY-MM-DD is dropped.
func (q ReportQuery) Criteria() models.EnrollmentCriteria {
	criteria := models.EnrollmentCriteria{
		Sector:      models.Sector(strings.TrimSpace(q.Sector)),
		Area:        models.Area(strings.TrimSpace(q.Area)),
		Search:      strings.TrimSpace(q.Search),
		AddedBy:     strings.TrimSpace(q.AddedBy),
		DiplomaID:   strings.TrimSpace(q.DiplomaID),
		UserID:      strings.TrimSpace(q.UserID),
		InstituteID: strings.TrimSpace(q.InstituteID),
		ClientID:    strings.TrimSpace(q.ClientID),
	}
	if from, ok := parseDay(q.DateFrom); ok {
		criteria.From = &from
	}
	if to, ok := parseDay(q.DateTo); ok {
		next := to.AddDate(0, 0, 1)
		criteria.ToExclusive = &next
	}
	return criteria
}

func parseDay(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ReportService filters the enrollment ledger into flat rows.
type ReportService struct {
	repo    enrollmentReporter
	metrics *MetricsService
	logger  *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(repo enrollmentReporter, metrics *MetricsService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, metrics: metrics, logger: logger}
}

// FilterEnrollments returns every enrollment matching the query. It never fails on empty
// results or malformed dates.
func (s *ReportService) FilterEnrollments(ctx context.Context, q ReportQuery) ([]models.ReportRow, error) {
	return s.filter(ctx, q, 0)
}

func (s *ReportService) filter(ctx context.Context, q ReportQuery, limit int) ([]models.ReportRow, error) {
	criteria := q.Criteria()
	start := time.Now()
	rows, err := s.repo.Report(ctx, criteria, limit)
	s.metrics.ObserveDBQuery("enrollment_report", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment report")
	}
	s.metrics.ObserveReport(len(rows))
	s.logger.Debug("enrollment report",
		zap.Int("rows", len(rows)),
		zap.Bool("date_from", criteria.From != nil),
		zap.Bool("date_to", criteria.ToExclusive != nil),
	)
	return rows, nil
}
