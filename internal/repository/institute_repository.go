package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-registry-api/internal/models"
)

// InstituteRepository handles persistence of institutes.
type InstituteRepository struct {
	db *sqlx.DB
}

// NewInstituteRepository constructs the repository.
func NewInstituteRepository(db *sqlx.DB) *InstituteRepository {
	return &InstituteRepository{db: db}
}

// List returns every institute ordered by name.
func (r *InstituteRepository) List(ctx context.Context) ([]models.Institute, error) {
	const query = `SELECT id, name, city, created_at, updated_at FROM institutes ORDER BY name ASC`
	institutes := make([]models.Institute, 0)
	if err := r.db.SelectContext(ctx, &institutes, query); err != nil {
		return nil, fmt.Errorf("list institutes: %w", err)
	}
	return institutes, nil
}

// FindByID returns an institute by its ID.
func (r *InstituteRepository) FindByID(ctx context.Context, id string) (*models.Institute, error) {
	const query = `SELECT id, name, city, created_at, updated_at FROM institutes WHERE id = $1`
	var institute models.Institute
	if err := r.db.GetContext(ctx, &institute, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find institute: %w", err)
	}
	return &institute, nil
}

// Create persists a new institute.
func (r *InstituteRepository) Create(ctx context.Context, institute *models.Institute) error {
	if institute.ID == "" {
		institute.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	institute.CreatedAt = now
	institute.UpdatedAt = now
	const query = `INSERT INTO institutes (id, name, city, created_at, updated_at) VALUES (:id, :name, :city, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, institute); err != nil {
		return fmt.Errorf("create institute: %w", err)
	}
	return nil
}

// Update changes the name and city of an institute.
func (r *InstituteRepository) Update(ctx context.Context, institute *models.Institute) error {
	institute.UpdatedAt = time.Now().UTC()
	const query = `UPDATE institutes SET name = :name, city = :city, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, institute)
	if err != nil {
		return fmt.Errorf("update institute: %w", err)
	}
	return expectAffected(res, "update institute")
}

// Delete removes an institute together with its enrollments.
func (r *InstituteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM institutes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete institute: %w", err)
	}
	return expectAffected(res, "delete institute")
}
