package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/pkg/database"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
)

// Enrollment outcomes recorded in metrics.
const (
	enrollmentOutcomeCreated    = "created"
	enrollmentOutcomeConflict   = "conflict"
	enrollmentOutcomeRejected   = "rejected"
	enrollmentOutcomeIncomplete = "error"
)

type enrollmentStore interface {
	FindHeld(ctx context.Context, clientID string, diplomaIDs []string) ([]models.Diploma, error)
	CreateBatch(ctx context.Context, enrollments []*models.Enrollment) error
	ListDetailsByIDs(ctx context.Context, ids []string) ([]models.EnrollmentDetail, error)
}

type enrollmentClientReader interface {
	FindByID(ctx context.Context, id string) (*models.Client, error)
}

type enrollmentDiplomaReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Diploma, error)
}

type enrollmentInstituteReader interface {
	FindByID(ctx context.Context, id string) (*models.Institute, error)
}

type clientResolver interface {
	ResolveOrCreate(ctx context.Context, identityNumber string, attrs models.ClientAttributes) (*models.Client, bool, error)
}

// EnrollRequest enrolls an existing client in one diploma.
type EnrollRequest struct {
	DiplomaID      string                `json:"diploma_id" validate:"required"`
	InstituteID    string                `json:"institute_id" validate:"required"`
	AttendanceType models.AttendanceType `json:"attendance_type" validate:"required,attendance_type"`
}

// EnrollBatchRequest enrolls an existing client in several diplomas at one institute.
type EnrollBatchRequest struct {
	DiplomaIDs     []string              `json:"diploma_ids" validate:"required,min=1,dive,required"`
	InstituteID    string                `json:"institute_id" validate:"required"`
	AttendanceType models.AttendanceType `json:"attendance_type" validate:"required,attendance_type"`
}

// RegisterClientRequest resolves a client by identity number and enrolls it in the listed diplomas.
type RegisterClientRequest struct {
	IdentityNumber string `json:"identity_number" validate:"required,identity"`
	models.ClientAttributes
	DiplomaIDs     []string              `json:"diploma_ids"`
	InstituteID    string                `json:"institute_id"`
	AttendanceType models.AttendanceType `json:"attendance_type"`
}

// RegistrationResult is the outcome of RegisterClient.
type RegistrationResult struct {
	Client      *models.Client            `json:"client"`
	Created     bool                      `json:"created"`
	Enrollments []models.EnrollmentDetail `json:"enrollments"`
}

// EnrollmentService maintains the enrollment ledger.
type EnrollmentService struct {
	repo       enrollmentStore
	clients    enrollmentClientReader
	diplomas   enrollmentDiplomaReader
	institutes enrollmentInstituteReader
	registry   clientResolver
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentStore, clients enrollmentClientReader, diplomas enrollmentDiplomaReader, institutes enrollmentInstituteReader, registry clientResolver, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:       repo,
		clients:    clients,
		diplomas:   diplomas,
		institutes: institutes,
		registry:   registry,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Enroll records one enrollment for an existing client.
func (s *EnrollmentService) Enroll(ctx context.Context, clientID string, req EnrollRequest, actor models.Actor) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	details, err := s.EnrollBatch(ctx, clientID, EnrollBatchRequest{
		DiplomaIDs:     []string{req.DiplomaID},
		InstituteID:    req.InstituteID,
		AttendanceType: req.AttendanceType,
	}, actor)
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// EnrollBatch validates every requested diploma before writing, then inserts all rows in one
// transaction. Either every enrollment is recorded or none is.
func (s *EnrollmentService) EnrollBatch(ctx context.Context, clientID string, req EnrollBatchRequest, actor models.Actor) ([]models.EnrollmentDetail, error) {
	if actor.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "recording user is required")
	}
	req.DiplomaIDs = dedupe(req.DiplomaIDs)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}

	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}

	if err := s.checkBatch(ctx, clientID, req); err != nil {
		return nil, err
	}

	rows := make([]*models.Enrollment, 0, len(req.DiplomaIDs))
	for _, diplomaID := range req.DiplomaIDs {
		rows = append(rows, &models.Enrollment{
			ClientID:       clientID,
			DiplomaID:      diplomaID,
			InstituteID:    req.InstituteID,
			AttendanceType: req.AttendanceType,
			AddedBy:        actor.UserID,
		})
	}
	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return nil, s.mapWriteError(ctx, clientID, req.DiplomaIDs, err)
	}
	s.metrics.RecordEnrollment(enrollmentOutcomeCreated, len(rows))

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	details, err := s.repo.ListDetailsByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	s.logger.Info("enrollments recorded",
		zap.String("client_id", clientID),
		zap.Strings("diploma_ids", req.DiplomaIDs),
		zap.String("institute_id", req.InstituteID),
		zap.String("added_by", actor.UserID),
	)
	return details, nil
}

// RegisterClient resolves the client by identity number and, when diplomas are listed, enrolls
// it in all of them. A newly created client is kept even if the enrollment step fails.
func (s *EnrollmentService) RegisterClient(ctx context.Context, req RegisterClientRequest, actor models.Actor) (*RegistrationResult, error) {
	if actor.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "recording user is required")
	}
	client, created, err := s.registry.ResolveOrCreate(ctx, req.IdentityNumber, req.ClientAttributes)
	if err != nil {
		return nil, err
	}
	result := &RegistrationResult{Client: client, Created: created, Enrollments: []models.EnrollmentDetail{}}
	if len(req.DiplomaIDs) == 0 {
		return result, nil
	}

	details, err := s.EnrollBatch(ctx, client.ID, EnrollBatchRequest{
		DiplomaIDs:     req.DiplomaIDs,
		InstituteID:    req.InstituteID,
		AttendanceType: req.AttendanceType,
	}, actor)
	if err != nil {
		return nil, err
	}
	result.Enrollments = details
	return result, nil
}

func (s *EnrollmentService) checkBatch(ctx context.Context, clientID string, req EnrollBatchRequest) error {
	held, err := s.repo.FindHeld(ctx, clientID, req.DiplomaIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollments")
	}
	if len(held) > 0 {
		s.metrics.RecordEnrollment(enrollmentOutcomeConflict, len(req.DiplomaIDs))
		return heldConflict(held)
	}

	if _, err := s.institutes.FindByID(ctx, req.InstituteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordEnrollment(enrollmentOutcomeRejected, len(req.DiplomaIDs))
			return appErrors.Clone(appErrors.ErrNotFound, "institute not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institute")
	}

	diplomas, err := s.diplomas.FindByIDs(ctx, req.DiplomaIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load diplomas")
	}
	byID := make(map[string]models.Diploma, len(diplomas))
	for _, d := range diplomas {
		byID[d.ID] = d
	}
	for _, id := range req.DiplomaIDs {
		diploma, ok := byID[id]
		if !ok {
			s.metrics.RecordEnrollment(enrollmentOutcomeRejected, len(req.DiplomaIDs))
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("diploma %s not found", id))
		}
		if err := models.CheckAttendance(diploma.AttendanceMode, req.AttendanceType); err != nil {
			s.metrics.RecordEnrollment(enrollmentOutcomeRejected, len(req.DiplomaIDs))
			return attendanceError(diploma.Name, err)
		}
	}
	return nil
}

// mapWriteError translates failures from the transactional insert. The locked re-check and the
// unique constraint are the authoritative duplicate checks, so both are reported like the
// pre-check would.
func (s *EnrollmentService) mapWriteError(ctx context.Context, clientID string, diplomaIDs []string, err error) error {
	var attErr *models.AttendanceError
	var heldErr *models.HeldError
	switch {
	case errors.As(err, &heldErr):
		s.metrics.RecordEnrollment(enrollmentOutcomeConflict, len(diplomaIDs))
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, heldErr.Error())
	case database.IsUniqueViolation(err):
		s.metrics.RecordEnrollment(enrollmentOutcomeConflict, len(diplomaIDs))
		held, findErr := s.repo.FindHeld(ctx, clientID, diplomaIDs)
		if findErr != nil || len(held) == 0 {
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "client is already enrolled in the requested diploma")
		}
		return heldConflict(held)
	case errors.As(err, &attErr):
		s.metrics.RecordEnrollment(enrollmentOutcomeRejected, len(diplomaIDs))
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, attErr.Error())
	case errors.Is(err, sql.ErrNoRows), database.IsForeignKeyViolation(err):
		s.metrics.RecordEnrollment(enrollmentOutcomeRejected, len(diplomaIDs))
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "referenced record no longer exists")
	default:
		s.metrics.RecordEnrollment(enrollmentOutcomeIncomplete, len(diplomaIDs))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record enrollments")
	}
}

func heldConflict(held []models.Diploma) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrConflict, (&models.HeldError{Diplomas: held}).Error())
}

func attendanceError(diplomaName string, err error) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("%s: %s", diplomaName, err.Error()))
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
