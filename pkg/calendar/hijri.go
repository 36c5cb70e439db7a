// Package calendar converts Gregorian dates to the Umm al-Qura Hijri calendar.
package calendar

import (
	"fmt"
	"time"

	hijri "github.com/hablullah/go-hijri"
)

// HijriLayout is the textual form stored next to Gregorian dates.
const HijriLayout = "YYYY-MM-DD"

// HijriDate is a day in the Umm al-Qura calendar.
type HijriDate struct {
	Year  int
	Month int
	Day   int
}

// String formats the date as zero padded YYYY-MM-DD.
func (d HijriDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ToHijri converts the calendar day of t (its own location) to Umm al-Qura. Days outside the
// published Umm al-Qura tables return an error.
func ToHijri(t time.Time) (HijriDate, error) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
	uaq, err := hijri.CreateUmmAlQuraDate(day)
	if err != nil {
		return HijriDate{}, fmt.Errorf("convert %s to hijri: %w", day.Format("2006-01-02"), err)
	}
	return HijriDate{Year: int(uaq.Year), Month: int(uaq.Month), Day: int(uaq.Day)}, nil
}

// FormatHijri returns the Hijri form of t, or nil when t is nil or has no Umm al-Qura date.
func FormatHijri(t *time.Time) *string {
	if t == nil {
		return nil
	}
	d, err := ToHijri(*t)
	if err != nil {
		return nil
	}
	s := d.String()
	return &s
}

// ParseHijri validates a YYYY-MM-DD Hijri string.
func ParseHijri(raw string) (HijriDate, error) {
	var d HijriDate
	if len(raw) != len(HijriLayout) {
		return d, fmt.Errorf("hijri date %q must use %s", raw, HijriLayout)
	}
	if _, err := fmt.Sscanf(raw, "%4d-%2d-%2d", &d.Year, &d.Month, &d.Day); err != nil {
		return d, fmt.Errorf("hijri date %q must use %s", raw, HijriLayout)
	}
	if d.Year < 1 || d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 30 {
		return d, fmt.Errorf("hijri date %q is out of range", raw)
	}
	return d, nil
}
