package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-registry-api/internal/models"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
	"github.com/noah-isme/institute-registry-api/pkg/export"
	"github.com/noah-isme/institute-registry-api/pkg/storage"
)

type fakeHoldings map[string]models.EnrollmentDetail

func (f fakeHoldings) FindFirstHolding(_ context.Context, clientID, diplomaID string) (*models.EnrollmentDetail, error) {
	if d, ok := f[clientID+"/"+diplomaID]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

type recordingRenderer struct {
	doc export.CertificateDocument
}

func (r *recordingRenderer) Render(doc export.CertificateDocument) ([]byte, error) {
	r.doc = doc
	return []byte("%PDF"), nil
}

func certificateFixture(t *testing.T, institute string) (*CertificateService, *recordingRenderer, *storage.AssetStore) {
	t.Helper()
	clients := newFakeClientRepo()
	clients.clients["c1"] = &models.Client{ID: "c1", Name: "Sara", IdentityNumber: "1234567890"}
	diplomas := newFakeDiplomaRepo()
	start := time.Date(2023, 7, 19, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 7, 20, 0, 0, 0, 0, time.UTC)
	hs, he := "1445-01-01", "1445-01-02"
	days := 2
	diplomas.items["d1"] = &models.Diploma{ID: "d1", Name: "First Aid", StartDate: &start, EndDate: &end, StartDateHijri: &hs, EndDateHijri: &he, DurationDays: &days}
	holdings := fakeHoldings{"c1/d1": {
		Enrollment:    models.Enrollment{ID: "e1", ClientID: "c1", DiplomaID: "d1", AttendanceType: models.AttendanceOffline},
		InstituteName: institute,
	}}
	assets, err := storage.NewAssetStore(t.TempDir())
	require.NoError(t, err)
	renderer := &recordingRenderer{}
	svc := NewCertificateService(holdings, clients, diplomas, assets, renderer, CertificateConfig{StaticPrefix: "/static"}, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc, renderer, assets
}

func TestCertificateServiceBuildKnownInstitute(t *testing.T) {
	svc, _, _ := certificateFixture(t, "Al-Faw Specialized Higher Institute for Training")

	data, err := svc.Build(context.Background(), "c1", "d1", "https://api.example")
	require.NoError(t, err)
	assert.Equal(t, "Specialized-Seal.png", data.Bundle.Seal)
	assert.Equal(t, "https://api.example/static/Specialized-Seal.png", data.Assets.Seal)
	assert.Equal(t, "client_c1_diploma_d1.pdf", data.Filename)
	assert.Equal(t, "First Aid", data.Diploma.Name)
}

func TestCertificateServiceBuildFallsBackToDefaultBundle(t *testing.T) {
	svc, _, _ := certificateFixture(t, "Unknown Institute")
	svc.cfg.BaseURL = "https://cdn.example"

	data, err := svc.Build(context.Background(), "c1", "d1", "https://ignored.example")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTemplateBundle, data.Bundle)
	assert.Equal(t, "https://cdn.example/static/Afaq.jpg", data.Assets.Background)
}

func TestCertificateServiceBuildNotFound(t *testing.T) {
	svc, _, _ := certificateFixture(t, "Unknown Institute")

	_, err := svc.Build(context.Background(), "missing", "d1", "")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	_, err = svc.Build(context.Background(), "c1", "missing", "")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	svc.enrollments = fakeHoldings{}
	_, err = svc.Build(context.Background(), "c1", "d1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enrolled")
}

func TestCertificateServiceRenderUsesExistingArtworkOnly(t *testing.T) {
	svc, renderer, assets := certificateFixture(t, "Afaq Al-Tatawor Higher Institute for Training")
	_, err := assets.Save("Afaq-seal.png", []byte("png"))
	require.NoError(t, err)

	data, err := svc.Build(context.Background(), "c1", "d1", "http://localhost")
	require.NoError(t, err)
	out, err := svc.Render(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), out)

	doc := renderer.doc
	assert.Equal(t, "Sara", doc.ClientName)
	assert.Equal(t, "2023-07-19 - 2023-07-20", doc.Period)
	assert.Equal(t, "1445-01-01 - 1445-01-02 AH", doc.PeriodHijri)
	assert.Equal(t, "2 days", doc.Duration)
	assert.Equal(t, "2024-05-01", doc.IssuedOn)
	assert.NotEmpty(t, doc.SealPath)
	assert.Empty(t, doc.BackgroundPath)
	assert.Empty(t, doc.SignaturePath)
}
