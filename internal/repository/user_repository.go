package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-registry-api/internal/models"
)

const userColumns = `id, email, identity_number, password_hash, full_name, slug, branch, role, active, last_login, created_at, updated_at`

var userSortColumns = map[string]bool{
	"email":      true,
	"full_name":  true,
	"created_at": true,
	"updated_at": true,
}

// UserRepository stores staff accounts along with their refresh tokens and audit trail.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByIdentityNumber returns the staff member holding the national identity number.
func (r *UserRepository) FindByIdentityNumber(ctx context.Context, identityNumber string) (*models.User, error) {
	return r.findOne(ctx, "identity_number", identityNumber)
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *UserRepository) findOne(ctx context.Context, column, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by %s: %w", column, err)
	}
	return &user, nil
}

// SlugsWithPrefix returns the stored slugs equal to base or of the form base-N.
func (r *UserRepository) SlugsWithPrefix(ctx context.Context, base string) ([]string, error) {
	const query = `SELECT slug FROM users WHERE slug = $1 OR slug LIKE $2`
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(base)
	slugs := make([]string, 0)
	if err := r.db.SelectContext(ctx, &slugs, query, base, escaped+"-%"); err != nil {
		return nil, fmt.Errorf("list user slugs: %w", err)
	}
	return slugs, nil
}

// List returns one page of users matching the filter together with the total match count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var p predicates
	if filter.Role != nil {
		p.add("role = ?", *filter.Role)
	}
	if filter.Branch != nil {
		p.add("branch = ?", *filter.Branch)
	}
	if filter.Active != nil {
		p.add("active = ?", *filter.Active)
	}
	if filter.Search != "" {
		p.add("(LOWER(email) LIKE ? OR LOWER(full_name) LIKE ? OR identity_number LIKE ?)", likePattern(filter.Search))
	}

	from := " FROM users" + p.where()
	query := "SELECT " + userColumns + from +
		orderBy(filter.SortBy, filter.SortOrder, userSortColumns, "created_at") +
		newPage(filter.Page, filter.PageSize, models.DefaultPageSize, models.MaxPageSize).clause()

	users := make([]models.User, 0)
	if err := r.db.SelectContext(ctx, &users, query, p.args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+from, p.args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// Create inserts a new user. Duplicate email, identity number or slug surface as unique violations.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, identity_number, password_hash, full_name, slug, branch, role, active, created_at, updated_at)
        VALUES (:id, :email, :identity_number, :password_hash, :full_name, :slug, :branch, :role, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update writes the mutable profile fields. Slug and identity number never change.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET email = :email, full_name = :full_name, branch = :branch, role = :role, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// Delete deactivates the account. Enrollments keep referencing the user as their recorder.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.touch(ctx, "delete user", `UPDATE users SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
}

// UpdateLastLogin stamps a successful sign-in.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return r.touch(ctx, "update last login", `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`, id, ts)
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return r.touch(ctx, "update password", `UPDATE users SET password_hash = $3, updated_at = $2 WHERE id = $1`, id, updatedAt, passwordHash)
}

func (r *UserRepository) touch(ctx context.Context, op, query string, args ...interface{}) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
