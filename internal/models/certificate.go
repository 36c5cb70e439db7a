package models

// TemplateBundle names the artwork used to render one institute's certificates.
type TemplateBundle struct {
	Template   string `json:"template"`
	Background string `json:"background"`
	Seal       string `json:"seal"`
	Signature  string `json:"signature"`
}

// DefaultTemplateBundle is used for institutes without dedicated artwork.
var DefaultTemplateBundle = TemplateBundle{
	Template:   "AfaqAl-TataworHigherInstituteforTraining–Dammam.html",
	Background: "Afaq.jpg",
	Seal:       "default-seal.png",
	Signature:  "Signature-Faw-Advanced.png",
}

var templateBundles = map[string]TemplateBundle{
	"Afaq Al-Tatawor Higher Institute for Training": {
		Template:   "AfaqAl-TataworHigherInstituteforTraining–Dammam.html",
		Background: "AfaqAl-TataworHigherInstituteforTraining–Dammam.jpg",
		Seal:       "Afaq-seal.png",
		Signature:  "Signature-Faw-Advanced.png",
	},
	"Al-Ahli Higher Institute": {
		Template:   "Al-AhliHigherInstitute–ArarSakakaAl-Qurayyat.html",
		Background: "Al-AhliHigherInstitute–ArarSakakaAl-Qurayyat.jpeg",
		Seal:       "Faw-Advanced-seal.png",
		Signature:  "Signature-Faw-Advanced.png",
	},
	"Al-Faw Advanced Higher Institute for Training": {
		Template:   "Al-FawAdvancedHigherInstituteforTraining.html",
		Background: "Al-FawAdvancedHigherInstituteforTraining.png",
		Seal:       "Faw-Advanced-seal.png",
		Signature:  "Signature-Faw-Advanced.png",
	},
	"Al-Faw Specialized Higher Institute for Training": {
		Template:   "Al-FawSpecializedHigherInstituteforTraining–Qassim.html",
		Background: "Al-FawSpecializedHigherInstituteforTraining–Qassim.jpeg",
		Seal:       "Specialized-Seal.png",
		Signature:  "Specialized-Signature.png",
	},
}

// ResolveTemplateBundle returns the artwork for an institute name. The lookup is an exact
// match; unknown names get DefaultTemplateBundle.
func ResolveTemplateBundle(instituteName string) TemplateBundle {
	if bundle, ok := templateBundles[instituteName]; ok {
		return bundle
	}
	return DefaultTemplateBundle
}

// CertificateAssets holds absolute URLs for a bundle's artwork.
type CertificateAssets struct {
	Background string `json:"background"`
	Seal       string `json:"seal"`
	Signature  string `json:"signature"`
}

// CertificateData is everything needed to render one certificate.
type CertificateData struct {
	Client     Client            `json:"client"`
	Diploma    Diploma           `json:"diploma"`
	Enrollment EnrollmentDetail  `json:"enrollment"`
	Bundle     TemplateBundle    `json:"bundle"`
	Assets     CertificateAssets `json:"assets"`
	Filename   string            `json:"filename"`
}
