package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHijri(t *testing.T) {
	cases := []struct {
		gregorian time.Time
		want      string
	}{
		{time.Date(2023, 7, 19, 0, 0, 0, 0, time.UTC), "1445-01-01"},
		{time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), "1445-09-01"},
		{time.Date(2025, 6, 26, 23, 59, 0, 0, time.UTC), "1447-01-01"},
	}
	for _, tc := range cases {
		got, err := ToHijri(tc.gregorian)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.String(), tc.gregorian.Format("2006-01-02"))
	}
}

func TestToHijriUsesLocalCalendarDay(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*60*60)
	got, err := ToHijri(time.Date(2023, 7, 19, 1, 0, 0, 0, riyadh))
	require.NoError(t, err)
	assert.Equal(t, "1445-01-01", got.String())
}

func TestToHijriOutsideUmmAlQuraTables(t *testing.T) {
	_, err := ToHijri(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)

	day := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, FormatHijri(&day))
}

func TestFormatHijri(t *testing.T) {
	assert.Nil(t, FormatHijri(nil))

	day := time.Date(2023, 7, 19, 0, 0, 0, 0, time.UTC)
	got := FormatHijri(&day)
	require.NotNil(t, got)
	assert.Equal(t, "1445-01-01", *got)
}

func TestParseHijri(t *testing.T) {
	d, err := ParseHijri("1446-03-15")
	require.NoError(t, err)
	assert.Equal(t, HijriDate{Year: 1446, Month: 3, Day: 15}, d)

	for _, raw := range []string{"", "1446-3-15", "1446-13-01", "1446-01-31", "abcd-ef-gh"} {
		_, err := ParseHijri(raw)
		assert.Error(t, err, raw)
	}
}
