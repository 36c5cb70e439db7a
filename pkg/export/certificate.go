package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// CertificateDocument carries everything printed on one certificate page.
// Image paths are optional; missing artwork is skipped rather than failing the render.
type CertificateDocument struct {
	Title          string
	ClientName     string
	IdentityNumber string
	DiplomaName    string
	InstituteName  string
	AttendanceType string
	Period         string
	PeriodHijri    string
	Duration       string
	IssuedOn       string
	BackgroundPath string
	SealPath       string
	SignaturePath  string
}

// CertificateRenderer lays out a landscape A4 certificate with gofpdf.
type CertificateRenderer struct {
	fontPath string
}

// NewCertificateRenderer constructs a renderer. fontPath may point at a TTF with Arabic glyphs.
func NewCertificateRenderer(fontPath string) *CertificateRenderer {
	return &CertificateRenderer{fontPath: fontPath}
}

// Render produces the PDF bytes for doc.
func (r *CertificateRenderer) Render(doc CertificateDocument) ([]byte, error) {
	if doc.ClientName == "" || doc.DiplomaName == "" {
		return nil, fmt.Errorf("certificate requires client and diploma names")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	face := newFontFace(pdf, r.fontPath)
	pdf.AddPage()
	width, height := pdf.GetPageSize()

	if doc.BackgroundPath != "" {
		pdf.ImageOptions(doc.BackgroundPath, 0, 0, width, height, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	}

	title := doc.Title
	if title == "" {
		title = "Certificate of Completion"
	}

	line := func(y float64, style string, size float64, text string) {
		if text == "" {
			return
		}
		pdf.SetFont(face.family, style, size)
		pdf.SetXY(20, y)
		pdf.CellFormat(width-40, 10, face.translate(text), "", 0, "C", false, 0, "")
	}

	line(40, "B", 28, title)
	line(60, "", 14, "This is to certify that")
	line(72, "B", 24, doc.ClientName)
	if doc.IdentityNumber != "" {
		line(84, "", 11, "Identity No. "+doc.IdentityNumber)
	}
	line(96, "", 14, "has successfully completed")
	line(108, "B", 20, doc.DiplomaName)
	if doc.InstituteName != "" {
		line(120, "", 13, "at "+doc.InstituteName)
	}
	line(132, "", 11, doc.Period)
	line(140, "", 11, doc.PeriodHijri)
	details := doc.Duration
	if doc.AttendanceType != "" {
		if details != "" {
			details += " | "
		}
		details += "Attendance: " + doc.AttendanceType
	}
	line(148, "", 11, details)
	line(height-25, "", 10, doc.IssuedOn)

	if doc.SealPath != "" {
		pdf.ImageOptions(doc.SealPath, 30, height-65, 40, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	}
	if doc.SignaturePath != "" {
		pdf.ImageOptions(doc.SignaturePath, width-80, height-60, 50, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
