package address

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldMessages are the inline form messages for each failing field.
var fieldMessages = map[string]string{
	"type":        "Address type must be shipping or billing",
	"street":      "Street address is required",
	"city":        "City is required",
	"state":       "State is required",
	"postal_code": "Pincode must be exactly 6 digits",
	"country":     "Country must be " + Country,
}

// BasicValidator performs format validation without external API calls.
// Checks required fields and the 6-digit pincode rule.
type BasicValidator struct {
	validate *validator.Validate
}

// NewBasicValidator creates a new basic address validator.
func NewBasicValidator() *BasicValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so errors line up with form inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return ValidPostalCode(fl.Field().String())
	})

	return &BasicValidator{validate: v}
}

// Validate normalizes the address and checks it field by field.
func (v *BasicValidator) Validate(ctx context.Context, addr Address) (*ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := addr.Normalize()
	result := &ValidationResult{NormalizedAddress: &normalized}

	if addr.Country != "" && !strings.EqualFold(strings.TrimSpace(addr.Country), Country) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("country %q replaced with %s", addr.Country, Country))
	}

	err := v.validate.StructCtx(ctx, normalized)
	if err == nil {
		result.IsValid = true
		return result, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate address: %w", err)
	}

	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
		}
		result.Errors = append(result.Errors, ValidationError{Field: fe.Field(), Message: msg})
	}

	return result, nil
}
