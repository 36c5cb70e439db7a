package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/pkg/database"
)

var clientColumnNames = []string{"id", "identity_number", "name", "phone_number", "email", "sector", "area", "created_at", "updated_at"}

func TestClientRepositoryFindByIdentityNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + clientColumns + " FROM clients WHERE identity_number = $1")).
		WithArgs("1234567890").
		WillReturnRows(sqlmock.NewRows(clientColumnNames).
			AddRow("c-1", "1234567890", "Sara", "0500000000", "sara@example.com", "health", "riyadh", now, now))

	client, err := repo.FindByIdentityNumber(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, models.SectorHealth, client.Sector)
	assert.Equal(t, models.AreaRiyadh, client.Area)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepositoryFindByIdentityNumberMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectQuery("FROM clients WHERE identity_number").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByIdentityNumber(context.Background(), "1234567890")
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestClientRepositoryCreateSurfacesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectExec("INSERT INTO clients").WillReturnError(&pq.Error{Code: "23505", Constraint: "clients_identity_number_key"})

	err := repo.Create(context.Background(), &models.Client{IdentityNumber: "1234567890"})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE clients SET name = ?")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Client{ID: "missing"})
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM clients WHERE id = $1")).WithArgs("c-1").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "c-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
