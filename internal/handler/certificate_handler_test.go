package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-registry-api/internal/models"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
)

type fakeCertificateSrv struct {
	baseURL   string
	clientID  string
	diplomaID string
	err       error
}

func (f *fakeCertificateSrv) Build(_ context.Context, clientID, diplomaID, baseURL string) (*models.CertificateData, error) {
	f.clientID, f.diplomaID, f.baseURL = clientID, diplomaID, baseURL
	if f.err != nil {
		return nil, f.err
	}
	return &models.CertificateData{Filename: "client_" + clientID + "_diploma_" + diplomaID + ".pdf"}, nil
}

func (f *fakeCertificateSrv) Render(context.Context, *models.CertificateData) ([]byte, error) {
	return []byte("%PDF-1.3"), nil
}

func TestCertificateHandlerServesInlinePDF(t *testing.T) {
	svc := &fakeCertificateSrv{}
	h := NewCertificateHandler(svc)

	c, w := newGinContext(http.MethodGet, "/clients/c-1/diplomas/d-2/certificate", nil)
	c.Request.Host = "registry.example"
	c.Request.Header.Set("X-Forwarded-Proto", "https")
	c.Params = append(c.Params, ginParam("id", "c-1"), ginParam("diplomaId", "d-2"))

	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://registry.example", svc.baseURL)
	assert.Equal(t, "c-1", svc.clientID)
	assert.Equal(t, "d-2", svc.diplomaID)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="client_c-1_diploma_d-2.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3", w.Body.String())
}

func TestCertificateHandlerNotEnrolled(t *testing.T) {
	h := NewCertificateHandler(&fakeCertificateSrv{err: appErrors.Clone(appErrors.ErrNotFound, "client is not enrolled in this diploma")})

	c, w := newGinContext(http.MethodGet, "/clients/c-1/diplomas/d-9/certificate", nil)
	h.Download(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "client is not enrolled in this diploma", env.Error.Message)
}
