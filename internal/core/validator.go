package core

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"surfalert/internal/types"
)

// Validator checks request DTOs against their validate tags and reports
// failures with JSON field names.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator with the domain tags registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("trigger_reason", func(fl validator.FieldLevel) bool {
		return types.TriggerReason(fl.Field().String()).Valid()
	})
	return &Validator{v: v}
}

// ValidateStruct returns nil or a validation AppError listing every failed
// field with the tag it failed.
func (val *Validator) ValidateStruct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return types.NewAppError(types.ErrCodeValidationBody, "invalid request", err)
	}

	fields := make(map[string]any, len(verrs))
	code := types.ErrCodeValidationBody
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
		switch fe.Tag() {
		case "required":
			code = types.ErrCodeValidationMissingField
		case "trigger_reason":
			if code != types.ErrCodeValidationMissingField {
				code = types.ErrCodeValidationInvalidReason
			}
		}
	}
	return types.NewAppErrorWithDetails(code, "request validation failed", err, map[string]any{"fields": fields})
}
