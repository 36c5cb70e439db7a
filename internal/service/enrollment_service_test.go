package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-registry-api/internal/models"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
)

type ledgerKey struct {
	clientID, diplomaID, instituteID string
}

// fakeLedger behaves like client_diplomas: a unique triple and an all-or-nothing batch insert.
type fakeLedger struct {
	diplomas map[string]models.Diploma
	rows     map[ledgerKey]models.Enrollment
	order    []ledgerKey
	// sneak is inserted right before CreateBatch runs, as if by a concurrent request.
	sneak *models.Enrollment
	// modeOverride simulates a diploma whose mode changed between check and insert.
	modeOverride map[string]models.AttendanceMode
}

func newFakeLedger(diplomas ...models.Diploma) *fakeLedger {
	l := &fakeLedger{diplomas: map[string]models.Diploma{}, rows: map[ledgerKey]models.Enrollment{}}
	for _, d := range diplomas {
		l.diplomas[d.ID] = d
	}
	return l
}

func (l *fakeLedger) insert(e models.Enrollment) {
	key := ledgerKey{e.ClientID, e.DiplomaID, e.InstituteID}
	l.rows[key] = e
	l.order = append(l.order, key)
}

func (l *fakeLedger) FindHeld(_ context.Context, clientID string, diplomaIDs []string) ([]models.Diploma, error) {
	held := []models.Diploma{}
	seen := map[string]bool{}
	for _, id := range diplomaIDs {
		for key := range l.rows {
			if key.clientID == clientID && key.diplomaID == id && !seen[id] {
				seen[id] = true
				held = append(held, models.Diploma{ID: id, Name: l.diplomas[id].Name})
			}
		}
	}
	return held, nil
}

func (l *fakeLedger) CreateBatch(_ context.Context, enrollments []*models.Enrollment) error {
	if l.sneak != nil {
		l.insert(*l.sneak)
		l.sneak = nil
	}
	for _, e := range enrollments {
		held, _ := l.FindHeld(context.Background(), e.ClientID, []string{e.DiplomaID})
		if len(held) > 0 {
			return &models.HeldError{Diplomas: held}
		}
	}
	staged := map[ledgerKey]bool{}
	for _, e := range enrollments {
		mode := l.diplomas[e.DiplomaID].AttendanceMode
		if override, ok := l.modeOverride[e.DiplomaID]; ok {
			mode = override
		}
		if err := models.CheckAttendance(mode, e.AttendanceType); err != nil {
			return err
		}
		key := ledgerKey{e.ClientID, e.DiplomaID, e.InstituteID}
		if _, exists := l.rows[key]; exists || staged[key] {
			return fmt.Errorf("create enrollment: %w", &pq.Error{Code: "23505", Constraint: "client_diplomas_client_diploma_institute_key"})
		}
		staged[key] = true
	}
	for i, e := range enrollments {
		e.ID = fmt.Sprintf("enr-%d-%d", len(l.order), i)
		e.AddedAt = time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
		l.insert(*e)
	}
	return nil
}

func (l *fakeLedger) ListDetailsByIDs(_ context.Context, ids []string) ([]models.EnrollmentDetail, error) {
	out := []models.EnrollmentDetail{}
	for _, id := range ids {
		for _, e := range l.rows {
			if e.ID == id {
				out = append(out, models.EnrollmentDetail{
					Enrollment:    e,
					DiplomaName:   l.diplomas[e.DiplomaID].Name,
					DiplomaDate:   l.diplomas[e.DiplomaID].Date,
					InstituteName: "Al-Ahli Higher Institute",
					AddedByName:   "Staff Member",
				})
			}
		}
	}
	return out, nil
}

func (l *fakeLedger) FindByIDs(_ context.Context, ids []string) ([]models.Diploma, error) {
	out := []models.Diploma{}
	for _, id := range ids {
		if d, ok := l.diplomas[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeInstitutes map[string]models.Institute

func (f fakeInstitutes) FindByID(_ context.Context, id string) (*models.Institute, error) {
	if inst, ok := f[id]; ok {
		return &inst, nil
	}
	return nil, sql.ErrNoRows
}

type enrollmentFixture struct {
	svc     *EnrollmentService
	ledger  *fakeLedger
	clients *fakeClientRepo
}

func newEnrollmentFixture() enrollmentFixture {
	ledger := newFakeLedger(
		models.Diploma{ID: "d-online", Name: "Digital Marketing", AttendanceMode: models.AttendanceModeOnline},
		models.Diploma{ID: "d-offline", Name: "First Aid", AttendanceMode: models.AttendanceModeOffline},
		models.Diploma{ID: "d-hybrid", Name: "Project Management", AttendanceMode: models.AttendanceModeHybrid},
	)
	clients := newFakeClientRepo()
	clients.clients["c1"] = &models.Client{ID: "c1", IdentityNumber: "1234567890", Name: "Sara"}
	institutes := fakeInstitutes{"i1": {ID: "i1", Name: "Al-Ahli Higher Institute"}}
	registry := NewClientService(clients, &fakeClientEnrollments{}, nil, nil, nil)
	svc := NewEnrollmentService(ledger, clients, ledger, institutes, registry, NewMetricsService(), nil, nil)
	return enrollmentFixture{svc: svc, ledger: ledger, clients: clients}
}

var staff = models.Actor{UserID: "u1", FullName: "Staff Member", Role: models.RoleStaff}

func TestEnrollmentServiceEnrollSucceedsThenConflicts(t *testing.T) {
	fx := newEnrollmentFixture()
	req := EnrollRequest{DiplomaID: "d-offline", InstituteID: "i1", AttendanceType: models.AttendanceOffline}

	detail, err := fx.svc.Enroll(context.Background(), "c1", req, staff)
	require.NoError(t, err)
	assert.Equal(t, "First Aid", detail.DiplomaName)
	assert.Equal(t, "u1", detail.AddedBy)
	assert.Equal(t, "Staff Member", detail.AddedByName)
	assert.False(t, detail.AddedAt.IsZero())

	_, err = fx.svc.Enroll(context.Background(), "c1", req, staff)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, err.Error(), "First Aid")
	assert.Len(t, fx.ledger.rows, 1)
}

func TestEnrollmentServiceConflictAcrossInstitutes(t *testing.T) {
	fx := newEnrollmentFixture()
	fx.ledger.insert(models.Enrollment{ID: "old", ClientID: "c1", DiplomaID: "d-hybrid", InstituteID: "other"})

	_, err := fx.svc.Enroll(context.Background(), "c1", EnrollRequest{DiplomaID: "d-hybrid", InstituteID: "i1", AttendanceType: models.AttendanceOnline}, staff)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestEnrollmentServiceAttendanceCompatibility(t *testing.T) {
	cases := []struct {
		diploma string
		t       models.AttendanceType
		wantErr string
	}{
		{"d-online", models.AttendanceOffline, "this diploma is online-only"},
		{"d-offline", models.AttendanceOnline, "this diploma is offline-only"},
		{"d-hybrid", models.AttendanceOnline, ""},
		{"d-online", models.AttendanceOnline, ""},
	}
	for _, tc := range cases {
		t.Run(tc.diploma+"/"+string(tc.t), func(t *testing.T) {
			fx := newEnrollmentFixture()
			_, err := fx.svc.Enroll(context.Background(), "c1", EnrollRequest{DiplomaID: tc.diploma, InstituteID: "i1", AttendanceType: tc.t}, staff)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.Empty(t, fx.ledger.rows)
		})
	}
}

func TestEnrollmentServiceNotFound(t *testing.T) {
	fx := newEnrollmentFixture()

	_, err := fx.svc.Enroll(context.Background(), "c1", EnrollRequest{DiplomaID: "d-online", InstituteID: "missing", AttendanceType: models.AttendanceOnline}, staff)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Contains(t, err.Error(), "institute")

	_, err = fx.svc.Enroll(context.Background(), "c1", EnrollRequest{DiplomaID: "missing", InstituteID: "i1", AttendanceType: models.AttendanceOnline}, staff)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Contains(t, err.Error(), "diploma")

	_, err = fx.svc.Enroll(context.Background(), "nobody", EnrollRequest{DiplomaID: "d-online", InstituteID: "i1", AttendanceType: models.AttendanceOnline}, staff)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestEnrollmentServiceRequiresActor(t *testing.T) {
	fx := newEnrollmentFixture()
	_, err := fx.svc.Enroll(context.Background(), "c1", EnrollRequest{DiplomaID: "d-online", InstituteID: "i1", AttendanceType: models.AttendanceOnline}, models.Actor{})
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestEnrollmentServiceRejectsUnknownAttendanceType(t *testing.T) {
	fx := newEnrollmentFixture()
	_, err := fx.svc.Enroll(context.Background(), "c1", EnrollRequest{DiplomaID: "d-hybrid", InstituteID: "i1", AttendanceType: "carrier-pigeon"}, staff)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestEnrollmentServiceBatchListsEveryHeldDiploma(t *testing.T) {
	fx := newEnrollmentFixture()
	fx.ledger.insert(models.Enrollment{ID: "a", ClientID: "c1", DiplomaID: "d-offline", InstituteID: "i1"})
	fx.ledger.insert(models.Enrollment{ID: "b", ClientID: "c1", DiplomaID: "d-hybrid", InstituteID: "i1"})

	_, err := fx.svc.EnrollBatch(context.Background(), "c1", EnrollBatchRequest{
		DiplomaIDs:     []string{"d-online", "d-offline", "d-hybrid"},
		InstituteID:    "i1",
		AttendanceType: models.AttendanceOffline,
	}, staff)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, err.Error(), "First Aid")
	assert.Contains(t, err.Error(), "Project Management")
	assert.Len(t, fx.ledger.rows, 2)
}

func TestEnrollmentServiceBatchIsAllOrNothing(t *testing.T) {
	fx := newEnrollmentFixture()

	_, err := fx.svc.EnrollBatch(context.Background(), "c1", EnrollBatchRequest{
		DiplomaIDs:     []string{"d-hybrid", "d-online"},
		InstituteID:    "i1",
		AttendanceType: models.AttendanceOffline,
	}, staff)
	require.Error(t, err)
	assert.Empty(t, fx.ledger.rows)

	details, err := fx.svc.EnrollBatch(context.Background(), "c1", EnrollBatchRequest{
		DiplomaIDs:     []string{"d-hybrid", "d-offline", "d-hybrid"},
		InstituteID:    "i1",
		AttendanceType: models.AttendanceOffline,
	}, staff)
	require.NoError(t, err)
	assert.Len(t, details, 2)
	assert.Len(t, fx.ledger.rows, 2)
}

func TestEnrollmentServiceUniqueViolationIsConflict(t *testing.T) {
	fx := newEnrollmentFixture()
	fx.ledger.sneak = &models.Enrollment{ID: "racer", ClientID: "c1", DiplomaID: "d-hybrid", InstituteID: "i1"}

	_, err := fx.svc.Enroll(context.Background(), "c1", EnrollRequest{DiplomaID: "d-hybrid", InstituteID: "i1", AttendanceType: models.AttendanceOnline}, staff)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, err.Error(), "Project Management")
	assert.Len(t, fx.ledger.rows, 1)
}

func TestEnrollmentServiceConcurrentEnrollmentAtOtherInstituteIsConflict(t *testing.T) {
	fx := newEnrollmentFixture()
	fx.ledger.sneak = &models.Enrollment{ID: "racer", ClientID: "c1", DiplomaID: "d-hybrid", InstituteID: "i2"}

	_, err := fx.svc.Enroll(context.Background(), "c1", EnrollRequest{DiplomaID: "d-hybrid", InstituteID: "i1", AttendanceType: models.AttendanceOnline}, staff)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, err.Error(), "Project Management")

	held := 0
	for key := range fx.ledger.rows {
		if key.clientID == "c1" && key.diplomaID == "d-hybrid" {
			held++
		}
	}
	assert.Equal(t, 1, held)
}

func TestEnrollmentServiceUniqueViolationFallsBackToGenericConflict(t *testing.T) {
	fx := newEnrollmentFixture()

	err := fx.svc.mapWriteError(context.Background(), "c1", []string{"d-online"},
		fmt.Errorf("create enrollment: %w", &pq.Error{Code: "23505"}))
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, err.Error(), "already enrolled")
}

func TestEnrollmentServiceRecheckInsideTransaction(t *testing.T) {
	fx := newEnrollmentFixture()
	fx.ledger.modeOverride = map[string]models.AttendanceMode{"d-hybrid": models.AttendanceModeOnline}

	_, err := fx.svc.Enroll(context.Background(), "c1", EnrollRequest{DiplomaID: "d-hybrid", InstituteID: "i1", AttendanceType: models.AttendanceOffline}, staff)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, fx.ledger.rows)
}

func TestEnrollmentServiceRegisterClient(t *testing.T) {
	fx := newEnrollmentFixture()

	result, err := fx.svc.RegisterClient(context.Background(), RegisterClientRequest{
		IdentityNumber:   "2098765432",
		ClientAttributes: validAttrs(),
		DiplomaIDs:       []string{"d-online", "d-hybrid"},
		InstituteID:      "i1",
		AttendanceType:   models.AttendanceOnline,
	}, staff)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Len(t, result.Enrollments, 2)

	again, err := fx.svc.RegisterClient(context.Background(), RegisterClientRequest{IdentityNumber: "2098765432"}, staff)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, result.Client.ID, again.Client.ID)
	assert.Empty(t, again.Enrollments)
}

func TestEnrollmentServiceRegisterKeepsClientWhenEnrollmentFails(t *testing.T) {
	fx := newEnrollmentFixture()

	_, err := fx.svc.RegisterClient(context.Background(), RegisterClientRequest{
		IdentityNumber:   "2098765432",
		ClientAttributes: validAttrs(),
		DiplomaIDs:       []string{"d-online"},
		InstituteID:      "i1",
		AttendanceType:   models.AttendanceOffline,
	}, staff)
	require.Error(t, err)

	_, findErr := fx.clients.FindByIdentityNumber(context.Background(), "2098765432")
	assert.NoError(t, findErr)
	assert.Empty(t, fx.ledger.rows)
}
