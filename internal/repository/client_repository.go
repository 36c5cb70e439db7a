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

const clientColumns = `id, identity_number, name, phone_number, email, sector, area, created_at, updated_at`

// ClientRepository provides database access for trainees.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// FindByID returns a client by identifier.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find client by id: %w", err)
	}
	return &client, nil
}

// FindByIdentityNumber returns the client registered under a national identity number.
func (r *ClientRepository) FindByIdentityNumber(ctx context.Context, identityNumber string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE identity_number = $1`
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, identityNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find client by identity number: %w", err)
	}
	return &client, nil
}

// Create inserts a client. A duplicate identity number surfaces as the driver's unique violation.
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	const query = `INSERT INTO clients (id, identity_number, name, phone_number, email, sector, area, created_at, updated_at)
        VALUES (:id, :identity_number, :name, :phone_number, :email, :sector, :area, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, client); err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// Update replaces the descriptive fields of a client. The identity number is immutable.
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	client.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clients SET name = :name, phone_number = :phone_number, email = :email, sector = :sector, area = :area, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, client)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return expectAffected(res, "update client")
}

// Delete removes a client. Its enrollments are removed by the foreign key cascade.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return expectAffected(res, "delete client")
}

// expectAffected maps a zero row count to sql.ErrNoRows.
func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
