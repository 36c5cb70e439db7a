package export

import (
	"bytes"
	"encoding/csv"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"client_name", "diploma_name", "added_by"},
		Rows: []map[string]string{
			{"client_name": "Sara Ahmed", "diploma_name": "Project Management", "added_by": "Omar"},
			{"client_name": "Ali, Jr.", "diploma_name": "Data Analysis"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter(false).Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "client_name,diploma_name,added_by", lines[0])
	assert.Equal(t, "Sara Ahmed,Project Management,Omar", lines[1])
	assert.Equal(t, `"Ali, Jr.",Data Analysis,`, lines[2])
}

func TestCSVExporterNeutralisesFormulas(t *testing.T) {
	out, err := NewCSVExporter(false).Render(Dataset{
		Headers: []string{"client_name", "email", "phone"},
		Rows: []map[string]string{
			{"client_name": `=HYPERLINK("http://evil.example","x")`, "email": "@SUM(A1:A2)", "phone": "+966500000000"},
			{"client_name": "-2+3", "email": "sara@example.com", "phone": "0500000000"},
		},
	})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{`'=HYPERLINK("http://evil.example","x")`, "'@SUM(A1:A2)", "'+966500000000"}, records[1])
	assert.Equal(t, []string{"'-2+3", "sara@example.com", "0500000000"}, records[2])
}

func TestCSVExporterBOM(t *testing.T) {
	out, err := NewCSVExporter(true).Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter(false).Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter("").Render(Dataset{}, "x")
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := sampleDataset()
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, map[string]string{"client_name": "Row", "diploma_name": strings.Repeat("long name ", 10)})
	}
	out, err := NewPDFExporter("").Render(data, "Enrollment Report")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterFallsBackWhenFontMissing(t *testing.T) {
	out, err := NewPDFExporter(filepath.Join(t.TempDir(), "missing.ttf")).Render(sampleDataset(), "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 60))
	got := truncate(strings.Repeat("a", 100), 32)
	assert.Len(t, got, 20)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestCertificateRendererRender(t *testing.T) {
	dir := t.TempDir()
	doc := CertificateDocument{
		ClientName:     "Sara Ahmed",
		IdentityNumber: "1234567890",
		DiplomaName:    "Project Management",
		InstituteName:  "Al-Faw Advanced Higher Institute for Training",
		AttendanceType: "online",
		Period:         "2024-01-01 - 2024-02-01",
		PeriodHijri:    "1445-06-19 - 1445-07-20",
		Duration:       "40 hours",
		IssuedOn:       "Issued 2024-02-02",
		BackgroundPath: writePNG(t, dir, "bg.png"),
		SealPath:       writePNG(t, dir, "seal.png"),
		SignaturePath:  writePNG(t, dir, "sig.png"),
	}

	out, err := NewCertificateRenderer("").Render(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestCertificateRendererRequiresNames(t *testing.T) {
	_, err := NewCertificateRenderer("").Render(CertificateDocument{ClientName: "x"})
	assert.Error(t, err)
}
