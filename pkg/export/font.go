package export

import (
	"github.com/jung-kurt/gofpdf"
)

const (
	coreFamily    = "Arial"
	unicodeFamily = "registry"
)

// fontFace picks the family used for body text. A configured TTF is registered as a UTF-8
// font so Arabic names survive; otherwise the core font with cp1252 translation is used.
type fontFace struct {
	family    string
	translate func(string) string
}

func newFontFace(pdf *gofpdf.Fpdf, ttfPath string) fontFace {
	if ttfPath != "" {
		pdf.AddUTF8Font(unicodeFamily, "", ttfPath)
		pdf.AddUTF8Font(unicodeFamily, "B", ttfPath)
		if pdf.Ok() {
			return fontFace{family: unicodeFamily, translate: func(s string) string { return s }}
		}
		pdf.ClearError()
	}
	return fontFace{family: coreFamily, translate: pdf.UnicodeTranslatorFromDescriptor("")}
}
