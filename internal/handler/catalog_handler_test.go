package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-registry-api/internal/middleware"
	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/internal/service"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
)

type fakeDiplomaSrv struct {
	filter  models.DiplomaFilter
	hit     bool
	err     error
	created service.DiplomaRequest
}

func (f *fakeDiplomaSrv) List(_ context.Context, filter models.DiplomaFilter) ([]models.Diploma, bool, error) {
	f.filter = filter
	return []models.Diploma{{ID: "d-1", AttendanceMode: filter.AttendanceMode}}, f.hit, f.err
}

func (f *fakeDiplomaSrv) Get(context.Context, string) (*models.Diploma, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "diploma not found")
}

func (f *fakeDiplomaSrv) Create(_ context.Context, req service.DiplomaRequest) (*models.Diploma, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Diploma{ID: "d-new", Name: req.Name}, nil
}

func (f *fakeDiplomaSrv) Update(_ context.Context, id string, req service.DiplomaRequest) (*models.Diploma, error) {
	return &models.Diploma{ID: id, Name: req.Name}, f.err
}

func (f *fakeDiplomaSrv) Delete(context.Context, string) error { return f.err }

type fakeInstituteSrv struct {
	hit bool
	err error
}

func (f *fakeInstituteSrv) List(context.Context) ([]models.Institute, bool, error) {
	return []models.Institute{{ID: "i-1", Name: "Al-Ahli Higher Institute"}}, f.hit, f.err
}

func (f *fakeInstituteSrv) Get(_ context.Context, id string) (*models.Institute, error) {
	return &models.Institute{ID: id}, f.err
}

func (f *fakeInstituteSrv) Create(_ context.Context, req service.InstituteRequest) (*models.Institute, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Institute{ID: "i-new", Name: req.Name}, nil
}

func (f *fakeInstituteSrv) Update(_ context.Context, id string, req service.InstituteRequest) (*models.Institute, error) {
	return &models.Institute{ID: id, Name: req.Name}, f.err
}

func (f *fakeInstituteSrv) Delete(context.Context, string) error { return f.err }

func TestDiplomaHandlerListFiltersAndCacheMeta(t *testing.T) {
	svc := &fakeDiplomaSrv{hit: true}
	h := NewDiplomaHandler(svc)

	c, w := newGinContext(http.MethodGet, "/diplomas?type=%20online%20&search=aid", nil)
	middleware.WithResponseMeta()(c)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.AttendanceModeOnline, svc.filter.AttendanceMode)
	assert.Equal(t, "aid", svc.filter.Search)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, true, decodeEnvelope(t, w).Meta["cache_hit"])
}

func TestDiplomaHandlerListUnknownMode(t *testing.T) {
	h := NewDiplomaHandler(&fakeDiplomaSrv{err: appErrors.Clone(appErrors.ErrValidation, "unknown attendance mode")})

	c, w := newGinContext(http.MethodGet, "/diplomas?type=weekly", nil)
	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDiplomaHandlerCreate(t *testing.T) {
	svc := &fakeDiplomaSrv{}
	h := NewDiplomaHandler(svc)

	c, w := newGinContext(http.MethodPost, "/diplomas", []byte(`{"name":"First Aid","attendance_mode":"hybrid","start_date":"2023-07-19"}`))
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2023-07-19", svc.created.StartDate)
	assert.Equal(t, models.AttendanceModeHybrid, svc.created.AttendanceMode)
}

func TestDiplomaHandlerGetNotFound(t *testing.T) {
	h := NewDiplomaHandler(&fakeDiplomaSrv{})

	c, w := newGinContext(http.MethodGet, "/diplomas/x", nil)
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInstituteHandlerListMiss(t *testing.T) {
	h := NewInstituteHandler(&fakeInstituteSrv{})

	c, w := newGinContext(http.MethodGet, "/institutes", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
}

func TestInstituteHandlerCreateConflict(t *testing.T) {
	h := NewInstituteHandler(&fakeInstituteSrv{err: appErrors.Clone(appErrors.ErrConflict, "an institute with this name already exists")})

	c, w := newGinContext(http.MethodPost, "/institutes", []byte(`{"name":"Al-Ahli Higher Institute"}`))
	h.Create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}
