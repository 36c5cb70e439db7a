package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/pkg/database"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
)

const instituteCacheKey = "catalog:institutes"

type instituteRepository interface {
	List(ctx context.Context) ([]models.Institute, error)
	FindByID(ctx context.Context, id string) (*models.Institute, error)
	Create(ctx context.Context, institute *models.Institute) error
	Update(ctx context.Context, institute *models.Institute) error
	Delete(ctx context.Context, id string) error
}

// InstituteRequest is the payload for creating or renaming an institute.
type InstituteRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	City string `json:"city" validate:"max=100"`
}

// InstituteService manages training venues.
type InstituteService struct {
	repo      instituteRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstituteService constructs InstituteService.
func NewInstituteService(repo instituteRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *InstituteService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstituteService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns all institutes ordered by name.
func (s *InstituteService) List(ctx context.Context) ([]models.Institute, bool, error) {
	return readThrough(ctx, s.cache, instituteCacheKey, s.cacheTTL, func(ctx context.Context) ([]models.Institute, error) {
		institutes, err := s.repo.List(ctx)
		if err != nil {
			return nil, internalError(err, "failed to list institutes")
		}
		return institutes, nil
	})
}

// Get returns one institute.
func (s *InstituteService) Get(ctx context.Context, id string) (*models.Institute, error) {
	institute, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institute not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institute")
	}
	return institute, nil
}

// Create adds an institute. Names are unique because certificate artwork is keyed by name.
func (s *InstituteService) Create(ctx context.Context, req InstituteRequest) (*models.Institute, error) {
	req = normaliseInstitute(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid institute payload")
	}
	institute := &models.Institute{Name: req.Name, City: req.City}
	if err := s.repo.Create(ctx, institute); err != nil {
		return nil, instituteWriteError(err, "failed to create institute")
	}
	s.cache.Invalidate(ctx, instituteCacheKey)
	s.logger.Info("institute created", zap.String("institute_id", institute.ID), zap.String("name", institute.Name))
	return institute, nil
}

// Update renames or relocates an institute.
func (s *InstituteService) Update(ctx context.Context, id string, req InstituteRequest) (*models.Institute, error) {
	req = normaliseInstitute(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid institute payload")
	}
	institute, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	institute.Name = req.Name
	institute.City = req.City
	if err := s.repo.Update(ctx, institute); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institute not found")
		}
		return nil, instituteWriteError(err, "failed to update institute")
	}
	s.cache.Invalidate(ctx, instituteCacheKey)
	return institute, nil
}

// Delete removes an institute and every enrollment recorded at it.
func (s *InstituteService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "institute not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete institute")
	}
	s.cache.Invalidate(ctx, instituteCacheKey)
	s.logger.Info("institute deleted", zap.String("institute_id", id))
	return nil
}

func normaliseInstitute(req InstituteRequest) InstituteRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	return req
}

func instituteWriteError(err error, message string) error {
	if database.IsUniqueViolation(err) {
		return appErrors.Clone(appErrors.ErrConflict, "an institute with this name already exists")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
