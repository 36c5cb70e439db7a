package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/institute-registry-api/internal/models"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
	"github.com/noah-isme/institute-registry-api/pkg/export"
	"github.com/noah-isme/institute-registry-api/pkg/storage"
)

type holdingFinder interface {
	FindFirstHolding(ctx context.Context, clientID, diplomaID string) (*models.EnrollmentDetail, error)
}

type certificateClientReader interface {
	FindByID(ctx context.Context, id string) (*models.Client, error)
}

type certificateDiplomaReader interface {
	FindByID(ctx context.Context, id string) (*models.Diploma, error)
}

type assetLocator interface {
	Path(name string) (string, error)
	Exists(name string) bool
}

type certificateRenderer interface {
	Render(doc export.CertificateDocument) ([]byte, error)
}

// CertificateConfig controls how asset URLs are published.
type CertificateConfig struct {
	BaseURL      string
	StaticPrefix string
}

// CertificateService assembles certificate data for one client and diploma.
type CertificateService struct {
	enrollments holdingFinder
	clients     certificateClientReader
	diplomas    certificateDiplomaReader
	assets      assetLocator
	renderer    certificateRenderer
	cfg         CertificateConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewCertificateService constructs CertificateService.
func NewCertificateService(enrollments holdingFinder, clients certificateClientReader, diplomas certificateDiplomaReader, assets assetLocator, renderer certificateRenderer, cfg CertificateConfig, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StaticPrefix == "" {
		cfg.StaticPrefix = "/static"
	}
	return &CertificateService{
		enrollments: enrollments,
		clients:     clients,
		diplomas:    diplomas,
		assets:      assets,
		renderer:    renderer,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// Build resolves the enrollment behind a certificate together with its artwork. requestBaseURL
// is used when no public base URL is configured.
func (s *CertificateService) Build(ctx context.Context, clientID, diplomaID, requestBaseURL string) (*models.CertificateData, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, notFoundOr(err, "client not found", "failed to load client")
	}
	diploma, err := s.diplomas.FindByID(ctx, diplomaID)
	if err != nil {
		return nil, notFoundOr(err, "diploma not found", "failed to load diploma")
	}
	enrollment, err := s.enrollments.FindFirstHolding(ctx, clientID, diplomaID)
	if err != nil {
		return nil, notFoundOr(err, "client is not enrolled in this diploma", "failed to load enrollment")
	}

	bundle := models.ResolveTemplateBundle(enrollment.InstituteName)
	base := s.cfg.BaseURL
	if base == "" {
		base = requestBaseURL
	}
	return &models.CertificateData{
		Client:     *client,
		Diploma:    *diploma,
		Enrollment: *enrollment,
		Bundle:     bundle,
		Assets: models.CertificateAssets{
			Background: storage.URL(base, s.cfg.StaticPrefix, bundle.Background),
			Seal:       storage.URL(base, s.cfg.StaticPrefix, bundle.Seal),
			Signature:  storage.URL(base, s.cfg.StaticPrefix, bundle.Signature),
		},
		Filename: fmt.Sprintf("client_%s_diploma_%s.pdf", clientID, diplomaID),
	}, nil
}

// Render turns certificate data into a PDF. Artwork missing on disk is left out.
func (s *CertificateService) Render(ctx context.Context, data *models.CertificateData) ([]byte, error) {
	if data == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "certificate data is required")
	}
	doc := export.CertificateDocument{
		ClientName:     data.Client.Name,
		IdentityNumber: data.Client.IdentityNumber,
		DiplomaName:    data.Diploma.Name,
		InstituteName:  data.Enrollment.InstituteName,
		AttendanceType: string(data.Enrollment.AttendanceType),
		Period:         formatPeriod(data.Diploma.StartDate, data.Diploma.EndDate),
		PeriodHijri:    formatHijriPeriod(data.Diploma.StartDateHijri, data.Diploma.EndDateHijri),
		Duration:       formatDuration(data.Diploma.DurationHours, data.Diploma.DurationDays),
		IssuedOn:       s.now().UTC().Format(dateLayout),
		BackgroundPath: s.assetPath(data.Bundle.Background),
		SealPath:       s.assetPath(data.Bundle.Seal),
		SignaturePath:  s.assetPath(data.Bundle.Signature),
	}
	out, err := s.renderer.Render(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	s.logger.Info("certificate rendered",
		zap.String("client_id", data.Client.ID),
		zap.String("diploma_id", data.Diploma.ID),
		zap.String("template", data.Bundle.Template),
	)
	return out, nil
}

func (s *CertificateService) assetPath(name string) string {
	if s.assets == nil || name == "" || !s.assets.Exists(name) {
		if name != "" {
			s.logger.Warn("certificate asset missing", zap.String("asset", name))
		}
		return ""
	}
	p, err := s.assets.Path(name)
	if err != nil {
		return ""
	}
	return p
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func formatPeriod(start, end *time.Time) string {
	switch {
	case start != nil && end != nil:
		return start.Format(dateLayout) + " - " + end.Format(dateLayout)
	case start != nil:
		return start.Format(dateLayout)
	default:
		return ""
	}
}

func formatHijriPeriod(start, end *string) string {
	switch {
	case start != nil && end != nil:
		return *start + " - " + *end + " AH"
	case start != nil:
		return *start + " AH"
	default:
		return ""
	}
}

func formatDuration(hours, days *int) string {
	parts := make([]string, 0, 2)
	if days != nil && *days > 0 {
		parts = append(parts, fmt.Sprintf("%d days", *days))
	}
	if hours != nil && *hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hours", *hours))
	}
	return strings.Join(parts, ", ")
}
