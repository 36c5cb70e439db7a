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
	"github.com/noah-isme/institute-registry-api/pkg/calendar"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
)

const (
	diplomaCachePrefix  = "catalog:diplomas:"
	diplomaCachePattern = "catalog:diplomas:*"
	dateLayout          = "2006-01-02"
)

type diplomaRepository interface {
	List(ctx context.Context, filter models.DiplomaFilter) ([]models.Diploma, error)
	FindByID(ctx context.Context, id string) (*models.Diploma, error)
	Create(ctx context.Context, diploma *models.Diploma) error
	Update(ctx context.Context, diploma *models.Diploma) error
	Delete(ctx context.Context, id string) error
}

// DiplomaRequest is the payload for creating or replacing a diploma. Dates use YYYY-MM-DD.
type DiplomaRequest struct {
	Name           string                `json:"name" validate:"required,max=255"`
	Date           string                `json:"date" validate:"omitempty,datetime=2006-01-02"`
	AttendanceMode models.AttendanceMode `json:"attendance_mode" validate:"required,attendance_mode"`
	DurationHours  *int                  `json:"duration_hours" validate:"omitempty,min=0"`
	DurationDays   *int                  `json:"duration_days" validate:"omitempty,min=0"`
	StartDate      string                `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string                `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	StartDateHijri string                `json:"start_date_hijri"`
	EndDateHijri   string                `json:"end_date_hijri"`
}

// DiplomaService manages the diploma catalog.
type DiplomaService struct {
	repo      diplomaRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDiplomaService constructs DiplomaService.
func NewDiplomaService(repo diplomaRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *DiplomaService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiplomaService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns diplomas, optionally narrowed to one attendance mode. Unfiltered-by-search
// listings are served from cache when enabled.
func (s *DiplomaService) List(ctx context.Context, filter models.DiplomaFilter) ([]models.Diploma, bool, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.AttendanceMode != "" && !filter.AttendanceMode.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "type must be one of online, offline, hybrid")
	}

	load := func(ctx context.Context) ([]models.Diploma, error) {
		diplomas, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, internalError(err, "failed to list diplomas")
		}
		return diplomas, nil
	}
	if filter.Search != "" {
		diplomas, err := load(ctx)
		return diplomas, false, err
	}

	key := diplomaCachePrefix + "all"
	if filter.AttendanceMode != "" {
		key = diplomaCachePrefix + string(filter.AttendanceMode)
	}
	return readThrough(ctx, s.cache, key, s.cacheTTL, load)
}

// Get returns a single diploma.
func (s *DiplomaService) Get(ctx context.Context, id string) (*models.Diploma, error) {
	diploma, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "diploma not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load diploma")
	}
	return diploma, nil
}

// Create adds a diploma. Hijri dates not supplied by the caller are derived from the
// Gregorian start and end dates.
func (s *DiplomaService) Create(ctx context.Context, req DiplomaRequest) (*models.Diploma, error) {
	diploma := &models.Diploma{}
	if err := s.apply(diploma, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, diploma); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create diploma")
	}
	s.cache.Invalidate(ctx, diplomaCachePattern)
	s.logger.Info("diploma created", zap.String("diploma_id", diploma.ID), zap.String("attendance_mode", string(diploma.AttendanceMode)))
	return diploma, nil
}

// Update replaces a diploma's fields. Stored Hijri dates are kept unless new ones are supplied
// or none were stored yet.
func (s *DiplomaService) Update(ctx context.Context, id string, req DiplomaRequest) (*models.Diploma, error) {
	diploma, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(diploma, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, diploma); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "diploma not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update diploma")
	}
	s.cache.Invalidate(ctx, diplomaCachePattern)
	return diploma, nil
}

// Delete removes a diploma together with every enrollment in it.
func (s *DiplomaService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "diploma not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete diploma")
	}
	s.cache.Invalidate(ctx, diplomaCachePattern)
	s.logger.Info("diploma deleted", zap.String("diploma_id", id))
	return nil
}

func (s *DiplomaService) apply(diploma *models.Diploma, req DiplomaRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid diploma payload")
	}

	date, err := parseOptionalDate(req.Date)
	if err != nil {
		return err
	}
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return err
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}
	startHijri, err := parseOptionalHijri(req.StartDateHijri)
	if err != nil {
		return err
	}
	endHijri, err := parseOptionalHijri(req.EndDateHijri)
	if err != nil {
		return err
	}

	diploma.Name = req.Name
	diploma.AttendanceMode = req.AttendanceMode
	diploma.DurationHours = req.DurationHours
	diploma.DurationDays = req.DurationDays
	diploma.StartDate = start
	diploma.EndDate = end
	if date != nil {
		diploma.Date = *date
	}

	if startHijri != nil {
		diploma.StartDateHijri = startHijri
	} else if diploma.StartDateHijri == nil {
		diploma.StartDateHijri = calendar.FormatHijri(start)
	}
	if endHijri != nil {
		diploma.EndDateHijri = endHijri
	} else if diploma.EndDateHijri == nil {
		diploma.EndDateHijri = calendar.FormatHijri(end)
	}
	return nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dates must use YYYY-MM-DD")
	}
	return &t, nil
}

func parseOptionalHijri(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := calendar.ParseHijri(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	normalised := d.String()
	return &normalised, nil
}
