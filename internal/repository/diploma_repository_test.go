package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-registry-api/internal/models"
)

var diplomaColumnNames = []string{"id", "name", "date", "attendance_mode", "duration_hours", "duration_days", "start_date", "end_date", "start_date_hijri", "end_date_hijri", "created_at", "updated_at"}

func TestDiplomaRepositoryListByMode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDiplomaRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM diplomas WHERE attendance_mode = $1 AND LOWER(name) LIKE $2 ORDER BY date DESC, name ASC")).
		WithArgs(models.AttendanceModeOnline, `%100\%%`).
		WillReturnRows(sqlmock.NewRows(diplomaColumnNames).
			AddRow("d-1", "100% Excel", now, "online", 40, nil, now, now, "1445-01-01", "1445-01-01", now, now))

	diplomas, err := repo.List(context.Background(), models.DiplomaFilter{AttendanceMode: models.AttendanceModeOnline, Search: "100%"})
	require.NoError(t, err)
	require.Len(t, diplomas, 1)
	require.NotNil(t, diplomas[0].DurationHours)
	assert.Equal(t, 40, *diplomas[0].DurationHours)
	assert.Nil(t, diplomas[0].DurationDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiplomaRepositoryListUnfiltered(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDiplomaRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + diplomaColumns + " FROM diplomas ORDER BY date DESC, name ASC")).
		WillReturnRows(sqlmock.NewRows(diplomaColumnNames))

	diplomas, err := repo.List(context.Background(), models.DiplomaFilter{})
	require.NoError(t, err)
	assert.NotNil(t, diplomas)
	assert.Empty(t, diplomas)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiplomaRepositoryFindByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDiplomaRepository(db)

	diplomas, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, diplomas)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiplomaRepositoryCreateDefaultsDate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDiplomaRepository(db)

	mock.ExpectExec("INSERT INTO diplomas").WillReturnResult(sqlmock.NewResult(1, 1))

	diploma := &models.Diploma{Name: "Leadership", AttendanceMode: models.AttendanceModeHybrid}
	require.NoError(t, repo.Create(context.Background(), diploma))
	assert.NotEmpty(t, diploma.ID)
	assert.False(t, diploma.Date.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstituteRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstituteRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, city, created_at, updated_at FROM institutes ORDER BY name ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "city", "created_at", "updated_at"}).
			AddRow("i-1", "Al-Ahli Higher Institute", "Arar", now, now))

	institutes, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, institutes, 1)
	assert.Equal(t, "Arar", institutes[0].City)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstituteRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInstituteRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM institutes WHERE id = $1")).WithArgs("i-9").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "i-9")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%sara%", likePattern("SARA"))
	assert.Equal(t, `%a\_b\%c\\%`, likePattern(`a_b%c\`))
}
