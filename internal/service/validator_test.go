package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-registry-api/internal/models"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
)

func TestNewValidatorCustomTags(t *testing.T) {
	v := NewValidator()

	type payload struct {
		Identity string `json:"identity" validate:"identity"`
		Staff    string `json:"staff" validate:"staff_identity"`
		Sector   string `json:"sector" validate:"sector"`
		Area     string `json:"area" validate:"area"`
		Mode     string `json:"mode" validate:"attendance_mode"`
		Type     string `json:"type" validate:"attendance_type"`
		Branch   string `json:"branch" validate:"branch"`
		Role     string `json:"role" validate:"role"`
	}

	ok := payload{"0123456789", "2123456789", "tech", "jouf", "hybrid", "offline", "dammam", "STAFF"}
	require.NoError(t, v.Struct(ok))

	bad := payload{"12345", "3123456789", "mining", "paris", "weekend", "hybrid", "cairo", "TEACHER"}
	err := v.Struct(bad)
	require.Error(t, err)

	appErr := validationError(err, "invalid payload")
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	for _, field := range []string{"identity", "staff", "sector", "area", "mode", "type", "branch", "role"} {
		assert.Contains(t, appErr.Message, field+" failed")
	}
}

func TestClientAttributesValidation(t *testing.T) {
	v := NewValidator()
	attrs := models.ClientAttributes{Name: "Sara", PhoneNumber: "0500", Email: "sara@example.com", Sector: models.SectorTech, Area: models.AreaRiyadh}
	require.NoError(t, v.Struct(attrs))

	attrs.Email = "not-an-email"
	assert.Error(t, v.Struct(attrs))
}

func TestValidationErrorNamesFields(t *testing.T) {
	v := NewValidator()
	attrs := models.ClientAttributes{Name: "Sara", PhoneNumber: "0500", Email: "nope", Sector: "farming", Area: models.AreaRiyadh}

	appErr := validationError(v.Struct(attrs), "invalid client")

	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "email", appErr.Fields["email"])
	assert.Equal(t, "sector", appErr.Fields["sector"])
	assert.Contains(t, appErr.Message, "invalid client: ")
}
