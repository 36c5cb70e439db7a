package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/pkg/database"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
)

type clientRepository interface {
	FindByID(ctx context.Context, id string) (*models.Client, error)
	FindByIdentityNumber(ctx context.Context, identityNumber string) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, id string) error
}

type clientEnrollmentLister interface {
	ListDetailsByClient(ctx context.Context, clientID string) ([]models.EnrollmentDetail, error)
}

// ClientService is the identity registry: it deduplicates trainees by national identity number.
type ClientService struct {
	repo        clientRepository
	enrollments clientEnrollmentLister
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewClientService constructs a ClientService.
func NewClientService(repo clientRepository, enrollments clientEnrollmentLister, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ClientService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{repo: repo, enrollments: enrollments, metrics: metrics, validator: validate, logger: logger}
}

// ResolveOrCreate returns the client registered under identityNumber, creating it from attrs
// when none exists. Attributes are ignored for existing clients. A concurrent insert of the
// same identity number loses on the unique index and re-reads the winner's row.
func (s *ClientService) ResolveOrCreate(ctx context.Context, identityNumber string, attrs models.ClientAttributes) (*models.Client, bool, error) {
	identityNumber = strings.TrimSpace(identityNumber)
	if !isIdentityNumber(identityNumber) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "identity_number must be exactly 10 digits")
	}

	existing, err := s.repo.FindByIdentityNumber(ctx, identityNumber)
	if err == nil {
		s.metrics.RecordClientResolution(false)
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up client")
	}

	attrs = normaliseAttributes(attrs)
	if err := s.validator.Struct(attrs); err != nil {
		return nil, false, validationError(err, "invalid client attributes")
	}

	client := &models.Client{
		IdentityNumber: identityNumber,
		Name:           attrs.Name,
		PhoneNumber:    attrs.PhoneNumber,
		Email:          attrs.Email,
		Sector:         attrs.Sector,
		Area:           attrs.Area,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create client")
		}
		winner, findErr := s.repo.FindByIdentityNumber(ctx, identityNumber)
		if findErr != nil {
			return nil, false, appErrors.Wrap(findErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload client after concurrent create")
		}
		s.logger.Info("client created concurrently, using existing row", zap.String("client_id", winner.ID))
		s.metrics.RecordClientResolution(false)
		return winner, false, nil
	}

	s.logger.Info("client created", zap.String("client_id", client.ID), zap.String("sector", string(client.Sector)), zap.String("area", string(client.Area)))
	s.metrics.RecordClientResolution(true)
	return client, true, nil
}

// Get returns a client with all of its enrollments.
func (s *ClientService) Get(ctx context.Context, id string) (*models.ClientDetail, error) {
	client, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.ListDetailsByClient(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client enrollments")
	}
	return &models.ClientDetail{Client: *client, Enrollments: enrollments}, nil
}

// Update replaces the descriptive attributes of a client.
func (s *ClientService) Update(ctx context.Context, id string, attrs models.ClientAttributes) (*models.Client, error) {
	attrs = normaliseAttributes(attrs)
	if err := s.validator.Struct(attrs); err != nil {
		return nil, validationError(err, "invalid client attributes")
	}
	client, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	client.Name = attrs.Name
	client.PhoneNumber = attrs.PhoneNumber
	client.Email = attrs.Email
	client.Sector = attrs.Sector
	client.Area = attrs.Area
	if err := s.repo.Update(ctx, client); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update client")
	}
	return client, nil
}

// Delete removes a client and, through the cascade, its enrollments.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete client")
	}
	s.logger.Info("client deleted", zap.String("client_id", id))
	return nil
}

func (s *ClientService) find(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}
	return client, nil
}

func normaliseAttributes(attrs models.ClientAttributes) models.ClientAttributes {
	attrs.Name = strings.TrimSpace(attrs.Name)
	attrs.PhoneNumber = strings.TrimSpace(attrs.PhoneNumber)
	attrs.Email = strings.ToLower(strings.TrimSpace(attrs.Email))
	return attrs
}
