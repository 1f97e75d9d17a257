package address

import (
	"context"
	"regexp"
	"strings"
)

// Country is fixed for this deployment and is never user-editable.
const Country = "India"

// Address types.
const (
	TypeShipping = "shipping"
	TypeBilling  = "billing"
)

var postalCodePattern = regexp.MustCompile(`^\d{6}$`)

// Validator defines the interface for address validation.
// Implementations may call external services; BasicValidator only checks format.
type Validator interface {
	// Validate checks whether an address is complete enough to submit.
	// Even if IsValid is false, NormalizedAddress may contain corrections.
	Validate(ctx context.Context, addr Address) (*ValidationResult, error)
}

// Sink receives finalized addresses once submission gating has passed.
type Sink interface {
	SubmitAddress(ctx context.Context, addr Address) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, addr Address) error

// SubmitAddress calls f.
func (f SinkFunc) SubmitAddress(ctx context.Context, addr Address) error {
	return f(ctx, addr)
}

// Address represents an Indian postal address for shipping or billing.
type Address struct {
	Type       string `json:"type,omitempty" validate:"omitempty,oneof=shipping billing"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required,pincode"`
	Country    string `json:"country" validate:"eq=India"`
}

// ValidPostalCode reports whether code is exactly six ASCII digits.
func ValidPostalCode(code string) bool {
	return postalCodePattern.MatchString(code)
}

// SubmitReady reports whether the address can be handed to a Sink.
func (a Address) SubmitReady() bool {
	return strings.TrimSpace(a.Street) != "" &&
		ValidPostalCode(a.PostalCode) &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.State) != ""
}

// Normalize trims whitespace and pins the country.
func (a Address) Normalize() Address {
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = Country
	return a
}

// ValidationResult contains the outcome of address validation.
type ValidationResult struct {
	IsValid           bool              `json:"is_valid"`
	NormalizedAddress *Address          `json:"normalized_address,omitempty"`
	Errors            []ValidationError `json:"errors,omitempty"`
	Warnings          []string          `json:"warnings,omitempty"`
}

// Fields returns the validation errors keyed by field name.
func (r *ValidationResult) Fields() map[string]string {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	fields := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		fields[e.Field] = e.Message
	}
	return fields
}

// ValidationError represents a specific validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
