package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/internal/service"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
)

type fakeUserSrv struct {
	filter models.UserFilter
	actor  models.Actor
	err    error
}

func (f *fakeUserSrv) List(_ context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	f.filter = filter
	return []models.User{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (f *fakeUserSrv) Get(_ context.Context, id string) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (f *fakeUserSrv) Create(_ context.Context, req service.CreateUserRequest, _ string, _ models.RequestMeta) (*models.User, error) {
	return &models.User{ID: "u-new", FullName: req.FullName}, f.err
}

func (f *fakeUserSrv) Update(_ context.Context, id string, _ service.UpdateUserRequest, actor models.Actor, _ models.RequestMeta) (*models.User, error) {
	f.actor = actor
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: id}, nil
}

func (f *fakeUserSrv) Delete(context.Context, string, string, models.RequestMeta) error { return f.err }

func TestUserHandlerListParsesFilters(t *testing.T) {
	svc := &fakeUserSrv{}
	h := NewUserHandler(svc)

	c, w := newGinContext(http.MethodGet, "/users?page=2&page_size=5&role=STAFF&branch=jeddah&active=false", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, svc.filter.Page)
	assert.Equal(t, 5, svc.filter.PageSize)
	require.NotNil(t, svc.filter.Role)
	assert.Equal(t, models.RoleStaff, *svc.filter.Role)
	require.NotNil(t, svc.filter.Branch)
	assert.Equal(t, models.BranchJeddah, *svc.filter.Branch)
	require.NotNil(t, svc.filter.Active)
	assert.False(t, *svc.filter.Active)
}

func TestUserHandlerUpdatePassesActor(t *testing.T) {
	svc := &fakeUserSrv{err: appErrors.Clone(appErrors.ErrForbidden, "cannot change own role")}
	h := NewUserHandler(svc)

	c, w := newGinContext(http.MethodPut, "/users/u-1", []byte(`{"role":"ADMIN"}`))
	withStaff(c)
	h.Update(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, models.RoleStaff, svc.actor.Role)
}

func TestUserHandlerCreateRequiresClaims(t *testing.T) {
	h := NewUserHandler(&fakeUserSrv{})

	c, w := newGinContext(http.MethodPost, "/users", []byte(`{}`))
	h.Create(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
