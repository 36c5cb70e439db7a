package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/institute-registry-api/internal/models"
	appErrors "github.com/noah-isme/institute-registry-api/pkg/errors"
)

// NewValidator returns a validator with the registry's custom tags registered:
// identity, staff_identity, sector, area, attendance_mode, attendance_type, branch and role.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	mustRegister(v, "identity", func(fl validator.FieldLevel) bool {
		return isIdentityNumber(fl.Field().String())
	})
	mustRegister(v, "staff_identity", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return isIdentityNumber(s) && (s[0] == '1' || s[0] == '2')
	})
	mustRegister(v, "sector", func(fl validator.FieldLevel) bool {
		return models.Sector(fl.Field().String()).Valid()
	})
	mustRegister(v, "area", func(fl validator.FieldLevel) bool {
		return models.Area(fl.Field().String()).Valid()
	})
	mustRegister(v, "attendance_mode", func(fl validator.FieldLevel) bool {
		return models.AttendanceMode(fl.Field().String()).Valid()
	})
	mustRegister(v, "attendance_type", func(fl validator.FieldLevel) bool {
		return models.AttendanceType(fl.Field().String()).Valid()
	})
	mustRegister(v, "branch", func(fl validator.FieldLevel) bool {
		return models.Branch(fl.Field().String()).Valid()
	})
	mustRegister(v, "role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func isIdentityNumber(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validationError converts validator output into a VALIDATION_ERROR whose message names the
// offending fields.
func validationError(err error, fallback string) *appErrors.Error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fallback)
	}
	parts := make([]string, 0, len(fieldErrs))
	out := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "")
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		out = out.WithField(fe.Field(), fe.Tag())
	}
	out.Message = fallback + ": " + strings.Join(parts, ", ")
	return out
}

func internalError(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
