package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/pkg/database"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIdentityNumber(ctx context.Context, identityNumber string) (*models.User, error)
	SlugsWithPrefix(ctx context.Context, base string) ([]string, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateUserRequest represents payload for creating staff users.
type CreateUserRequest struct {
	IdentityNumber string          `json:"identity_number" validate:"required,staff_identity"`
	Email          string          `json:"email" validate:"required,email"`
	FullName       string          `json:"full_name" validate:"required,max=255"`
	Branch         *models.Branch  `json:"branch" validate:"omitempty,branch"`
	Role           models.UserRole `json:"role" validate:"required,role"`
	Active         *bool           `json:"active"`
	Password       string          `json:"password" validate:"required,min=8"`
}

// UpdateUserRequest payload for updating users. The identity number and slug never change.
type UpdateUserRequest struct {
	FullName string          `json:"full_name" validate:"required,max=255"`
	Email    string          `json:"email" validate:"required,email"`
	Branch   *models.Branch  `json:"branch" validate:"omitempty,branch"`
	Role     models.UserRole `json:"role" validate:"required,role"`
	Active   *bool           `json:"active"`
}

// UserService handles staff account management.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	filter.Normalize()
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list users")
	}
	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create adds a new staff user with a unique slug derived from the full name, or from the
// email local part when the name yields nothing.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actorID string, meta models.RequestMeta) (*models.User, error) {
	req.IdentityNumber = strings.TrimSpace(req.IdentityNumber)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid create user payload")
	}

	if _, err := s.repo.FindByIdentityNumber(ctx, req.IdentityNumber); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "identity number already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check identity number uniqueness")
	}

	slug, err := s.uniqueSlug(ctx, req.FullName, req.Email)
	if err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	user := &models.User{
		ID:             uuid.NewString(),
		IdentityNumber: req.IdentityNumber,
		Email:          req.Email,
		FullName:       req.FullName,
		Slug:           slug,
		Branch:         req.Branch,
		Role:           req.Role,
		Active:         active,
		PasswordHash:   string(passwordHash),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, userWriteError(err, "failed to create user")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"id": user.ID, "identity_number": user.IdentityNumber, "slug": user.Slug, "role": user.Role})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionUserCreate,
		Resource:   "users",
		ResourceID: &user.ID,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record user create audit log", zap.Error(err))
	}

	return user, nil
}

// Update modifies the user attributes. Only admins may change role or active state; self
// edits keep both.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, actor models.Actor, meta models.RequestMeta) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid update payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	privileged := actor.Role == models.RoleAdmin || actor.Role == models.RoleSuperAdmin
	if !privileged && (req.Role != user.Role || (req.Active != nil && *req.Active != user.Active)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can change role or status")
	}
	if req.Role == models.RoleSuperAdmin && actor.Role != models.RoleSuperAdmin && user.Role != models.RoleSuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only a superadmin can grant the SUPERADMIN role")
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"role": user.Role, "active": user.Active, "branch": user.Branch})

	user.FullName = req.FullName
	user.Email = req.Email
	user.Branch = req.Branch
	user.Role = req.Role
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, userWriteError(err, "failed to update user")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"role": user.Role, "active": user.Active, "branch": user.Branch})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionUserUpdate,
		Resource:   "users",
		ResourceID: &user.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record user update audit log", zap.Error(err))
	}

	return user, nil
}

// Delete performs a soft delete (inactive) on a user. Enrollments keep pointing at it.
func (s *UserService) Delete(ctx context.Context, id string, actorID string, meta models.RequestMeta) error {
	if id == actorID {
		return appErrors.Clone(appErrors.ErrValidation, "you cannot deactivate your own account")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"active": user.Active})
	newPayload, _ := json.Marshal(map[string]interface{}{"active": false})

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionUserDelete,
		Resource:   "users",
		ResourceID: &user.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record user delete audit log", zap.Error(err))
	}

	return nil
}

func (s *UserService) uniqueSlug(ctx context.Context, fullName, email string) (string, error) {
	base := slugify(fullName)
	if base == "" {
		local, _, _ := strings.Cut(email, "@")
		base = slugify(local)
	}
	if base == "" {
		base = "user"
	}

	taken, err := s.repo.SlugsWithPrefix(ctx, base)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate slug")
	}
	used := make(map[string]struct{}, len(taken))
	for _, slug := range taken {
		used[slug] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base, nil
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, ok := used[candidate]; !ok {
			return candidate, nil
		}
	}
}

// slugify keeps ASCII letters and digits and joins runs of anything else with a single hyphen.
func slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

func userWriteError(err error, message string) error {
	if database.IsUniqueViolation(err) {
		switch database.ConstraintName(err) {
		case "users_email_key":
			return appErrors.Clone(appErrors.ErrConflict, "email already exists")
		case "users_identity_number_key":
			return appErrors.Clone(appErrors.ErrConflict, "identity number already registered")
		case "users_slug_key":
			return appErrors.Clone(appErrors.ErrConflict, "slug already taken, retry the request")
		default:
			return appErrors.Clone(appErrors.ErrConflict, "user already exists")
		}
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
