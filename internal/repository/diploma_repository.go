package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/institute-registry-api/internal/models"
)

const diplomaColumns = `id, name, date, attendance_mode, duration_hours, duration_days, start_date, end_date, start_date_hijri, end_date_hijri, created_at, updated_at`

// DiplomaRepository handles persistence of catalog diplomas.
type DiplomaRepository struct {
	db *sqlx.DB
}

// NewDiplomaRepository constructs the repository.
func NewDiplomaRepository(db *sqlx.DB) *DiplomaRepository {
	return &DiplomaRepository{db: db}
}

// List returns diplomas filtered by attendance mode and name.
func (r *DiplomaRepository) List(ctx context.Context, filter models.DiplomaFilter) ([]models.Diploma, error) {
	var p predicates
	if filter.AttendanceMode != "" {
		p.add("attendance_mode = ?", filter.AttendanceMode)
	}
	if filter.Search != "" {
		p.add("LOWER(name) LIKE ?", likePattern(filter.Search))
	}

	query := `SELECT ` + diplomaColumns + ` FROM diplomas` + p.where()
	query += " ORDER BY date DESC, name ASC"

	diplomas := make([]models.Diploma, 0)
	if err := r.db.SelectContext(ctx, &diplomas, query, p.args...); err != nil {
		return nil, fmt.Errorf("list diplomas: %w", err)
	}
	return diplomas, nil
}

// FindByID returns a diploma by its ID.
func (r *DiplomaRepository) FindByID(ctx context.Context, id string) (*models.Diploma, error) {
	query := `SELECT ` + diplomaColumns + ` FROM diplomas WHERE id = $1`
	var diploma models.Diploma
	if err := r.db.GetContext(ctx, &diploma, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find diploma: %w", err)
	}
	return &diploma, nil
}

// FindByIDs returns the diplomas that exist among ids, in no particular order.
func (r *DiplomaRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Diploma, error) {
	diplomas := make([]models.Diploma, 0, len(ids))
	if len(ids) == 0 {
		return diplomas, nil
	}
	query := `SELECT ` + diplomaColumns + ` FROM diplomas WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &diplomas, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find diplomas: %w", err)
	}
	return diplomas, nil
}

// Create persists a new diploma. Date defaults to the creation day.
func (r *DiplomaRepository) Create(ctx context.Context, diploma *models.Diploma) error {
	if diploma.ID == "" {
		diploma.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if diploma.Date.IsZero() {
		diploma.Date = now.Truncate(24 * time.Hour)
	}
	diploma.CreatedAt = now
	diploma.UpdatedAt = now

	const query = `INSERT INTO diplomas (id, name, date, attendance_mode, duration_hours, duration_days, start_date, end_date, start_date_hijri, end_date_hijri, created_at, updated_at)
        VALUES (:id, :name, :date, :attendance_mode, :duration_hours, :duration_days, :start_date, :end_date, :start_date_hijri, :end_date_hijri, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, diploma); err != nil {
		return fmt.Errorf("create diploma: %w", err)
	}
	return nil
}

// Update changes the mutable attributes of a diploma. The creation date is left untouched.
func (r *DiplomaRepository) Update(ctx context.Context, diploma *models.Diploma) error {
	diploma.UpdatedAt = time.Now().UTC()
	const query = `UPDATE diplomas SET name = :name, attendance_mode = :attendance_mode, duration_hours = :duration_hours, duration_days = :duration_days,
        start_date = :start_date, end_date = :end_date, start_date_hijri = :start_date_hijri, end_date_hijri = :end_date_hijri, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, diploma)
	if err != nil {
		return fmt.Errorf("update diploma: %w", err)
	}
	return expectAffected(res, "update diploma")
}

// Delete removes a diploma together with its enrollments.
func (r *DiplomaRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM diplomas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete diploma: %w", err)
	}
	return expectAffected(res, "delete diploma")
}
