package models

import "time"

// Sector classifies the employer of a client.
type Sector string

// Supported client sectors.
const (
	SectorGovernment Sector = "government"
	SectorPrivate    Sector = "private"
	SectorNonProfit  Sector = "non_profit"
	SectorEducation  Sector = "education"
	SectorHealth     Sector = "health"
	SectorTech       Sector = "tech"
	SectorFinance    Sector = "finance"
	SectorTrade      Sector = "trade"
	SectorIndustry   Sector = "industry"
	SectorServices   Sector = "services"
)

// Sectors lists every sector in display order.
var Sectors = []Sector{
	SectorGovernment, SectorPrivate, SectorNonProfit, SectorEducation, SectorHealth,
	SectorTech, SectorFinance, SectorTrade, SectorIndustry, SectorServices,
}

// Valid reports whether s is a known sector.
func (s Sector) Valid() bool {
	switch s {
	case SectorGovernment, SectorPrivate, SectorNonProfit, SectorEducation, SectorHealth,
		SectorTech, SectorFinance, SectorTrade, SectorIndustry, SectorServices:
		return true
	default:
		return false
	}
}

// Area is the administrative region a client lives in.
type Area string

// Supported areas.
const (
	AreaRiyadh      Area = "riyadh"
	AreaMakkah      Area = "makkah"
	AreaMadinah     Area = "madinah"
	AreaQassim      Area = "qassim"
	AreaEastern     Area = "eastern"
	AreaAsir        Area = "asir"
	AreaTabuk       Area = "tabuk"
	AreaHail        Area = "hail"
	AreaNorthBorder Area = "north_border"
	AreaJazan       Area = "jazan"
	AreaNajran      Area = "najran"
	AreaBaha        Area = "baha"
	AreaJouf        Area = "jouf"
)

// Areas lists every area in display order.
var Areas = []Area{
	AreaRiyadh, AreaMakkah, AreaMadinah, AreaQassim, AreaEastern, AreaAsir, AreaTabuk,
	AreaHail, AreaNorthBorder, AreaJazan, AreaNajran, AreaBaha, AreaJouf,
}

// Valid reports whether a is a known area.
func (a Area) Valid() bool {
	switch a {
	case AreaRiyadh, AreaMakkah, AreaMadinah, AreaQassim, AreaEastern, AreaAsir, AreaTabuk,
		AreaHail, AreaNorthBorder, AreaJazan, AreaNajran, AreaBaha, AreaJouf:
		return true
	default:
		return false
	}
}

// Client is a trainee identified by a national identity number.
type Client struct {
	ID             string    `db:"id" json:"id"`
	IdentityNumber string    `db:"identity_number" json:"identity_number"`
	Name           string    `db:"name" json:"name"`
	PhoneNumber    string    `db:"phone_number" json:"phone_number"`
	Email          string    `db:"email" json:"email"`
	Sector         Sector    `db:"sector" json:"sector"`
	Area           Area      `db:"area" json:"area"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ClientAttributes are the descriptive fields supplied when a client is first seen.
type ClientAttributes struct {
	Name        string `json:"name" validate:"required,max=255"`
	PhoneNumber string `json:"phone_number" validate:"required,max=32"`
	Email       string `json:"email" validate:"required,email"`
	Sector      Sector `json:"sector" validate:"required,sector"`
	Area        Area   `json:"area" validate:"required,area"`
}

// ClientDetail is a client together with every enrollment it holds.
type ClientDetail struct {
	Client
	Enrollments []EnrollmentDetail `json:"enrollments"`
}
