package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/internal/service"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
)

type fakeEnrollmentSrv struct {
	single   *service.EnrollRequest
	batch    *service.EnrollBatchRequest
	clientID string
	actor    models.Actor
	err      error
}

func (f *fakeEnrollmentSrv) Enroll(_ context.Context, clientID string, req service.EnrollRequest, actor models.Actor) (*models.EnrollmentDetail, error) {
	f.single, f.clientID, f.actor = &req, clientID, actor
	if f.err != nil {
		return nil, f.err
	}
	return &models.EnrollmentDetail{
		Enrollment:  models.Enrollment{ID: "e-1", ClientID: clientID, DiplomaID: req.DiplomaID, AddedBy: actor.UserID},
		AddedByName: actor.FullName,
	}, nil
}

func (f *fakeEnrollmentSrv) EnrollBatch(_ context.Context, clientID string, req service.EnrollBatchRequest, actor models.Actor) ([]models.EnrollmentDetail, error) {
	f.batch, f.clientID, f.actor = &req, clientID, actor
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.EnrollmentDetail, 0, len(req.DiplomaIDs))
	for _, id := range req.DiplomaIDs {
		out = append(out, models.EnrollmentDetail{Enrollment: models.Enrollment{ClientID: clientID, DiplomaID: id}})
	}
	return out, nil
}

func TestEnrollmentHandlerSingleDiploma(t *testing.T) {
	svc := &fakeEnrollmentSrv{}
	h := NewEnrollmentHandler(svc)

	c, w := newGinContext(http.MethodPost, "/clients/c-1/enrollments", []byte(`{"diploma_id":"d-1","institute_id":"i-1","attendance_type":"offline"}`))
	c.Params = append(c.Params, ginParam("id", "c-1"))
	withStaff(c)

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.single)
	assert.Nil(t, svc.batch)
	assert.Equal(t, "c-1", svc.clientID)
	assert.Equal(t, models.AttendanceOffline, svc.single.AttendanceType)
	assert.Equal(t, "Omar Khalid", svc.actor.FullName)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Equal(t, "u-1", data["added_by"])
	assert.Equal(t, "Omar Khalid", data["added_by_name"])
}

func TestEnrollmentHandlerBatchMergesSingleID(t *testing.T) {
	svc := &fakeEnrollmentSrv{}
	h := NewEnrollmentHandler(svc)

	c, w := newGinContext(http.MethodPost, "/clients/c-1/enrollments", []byte(`{"diploma_id":"d-0","diploma_ids":["d-1","d-2"],"institute_id":"i-1","attendance_type":"online"}`))
	c.Params = append(c.Params, ginParam("id", "c-1"))
	withStaff(c)

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.batch)
	assert.Equal(t, []string{"d-0", "d-1", "d-2"}, svc.batch.DiplomaIDs)

	var data []map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Len(t, data, 3)
}

func TestEnrollmentHandlerErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"already held", appErrors.Clone(appErrors.ErrConflict, "client already holds: First Aid"), http.StatusConflict},
		{"incompatible", appErrors.Clone(appErrors.ErrValidation, "First Aid: this diploma is online-only"), http.StatusBadRequest},
		{"missing diploma", appErrors.Clone(appErrors.ErrNotFound, "diploma not found"), http.StatusNotFound},
		{"anonymous", appErrors.ErrUnauthorized, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewEnrollmentHandler(&fakeEnrollmentSrv{err: tc.err})
			c, w := newGinContext(http.MethodPost, "/clients/c-1/enrollments", []byte(`{"diploma_id":"d-1","institute_id":"i-1","attendance_type":"offline"}`))

			h.Create(c)

			assert.Equal(t, tc.status, w.Code)
		})
	}
}
