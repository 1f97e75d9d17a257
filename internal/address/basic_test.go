package address_test

import (
	"context"
	"testing"

	"github.com/dukerupert/pinfill/internal/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPostalCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"110001", true},
		{"000000", true},
		{"11000", false},
		{"1100011", false},
		{"11000a", false},
		{"", false},
		{" 110001", false},
		{"１１０００１", false}, // full-width digits are not ASCII
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, address.ValidPostalCode(tt.code))
		})
	}
}

func TestAddress_SubmitReady(t *testing.T) {
	ready := address.Address{
		Street:     "12 Janpath",
		City:       "New Delhi",
		State:      "Delhi",
		PostalCode: "110001",
		Country:    address.Country,
	}
	assert.True(t, ready.SubmitReady())

	tests := []struct {
		name   string
		mutate func(a *address.Address)
	}{
		{"missing street", func(a *address.Address) { a.Street = "   " }},
		{"missing city", func(a *address.Address) { a.City = "" }},
		{"missing state", func(a *address.Address) { a.State = "" }},
		{"short pincode", func(a *address.Address) { a.PostalCode = "11000" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ready
			tt.mutate(&a)
			assert.False(t, a.SubmitReady())
		})
	}
}

func TestBasicValidator_Validate_Valid(t *testing.T) {
	v := address.NewBasicValidator()

	result, err := v.Validate(context.Background(), address.Address{
		Type:       address.TypeShipping,
		Street:     "  221B MG Road ",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
	})

	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	require.NotNil(t, result.NormalizedAddress)
	assert.Equal(t, "221B MG Road", result.NormalizedAddress.Street)
	assert.Equal(t, address.Country, result.NormalizedAddress.Country)
}

func TestBasicValidator_Validate_ReportsFieldErrors(t *testing.T) {
	v := address.NewBasicValidator()

	result, err := v.Validate(context.Background(), address.Address{
		PostalCode: "11000",
	})

	require.NoError(t, err)
	assert.False(t, result.IsValid)

	fields := result.Fields()
	assert.Equal(t, "Street address is required", fields["street"])
	assert.Equal(t, "City is required", fields["city"])
	assert.Equal(t, "State is required", fields["state"])
	assert.Equal(t, "Pincode must be exactly 6 digits", fields["postal_code"])
	assert.NotContains(t, fields, "country", "country is pinned during normalization")
}

func TestBasicValidator_Validate_ForeignCountryWarns(t *testing.T) {
	v := address.NewBasicValidator()

	result, err := v.Validate(context.Background(), address.Address{
		Street:     "1 Marine Drive",
		City:       "Mumbai",
		State:      "Maharashtra",
		PostalCode: "400001",
		Country:    "USA",
	})

	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Len(t, result.Warnings, 1)
	assert.Equal(t, address.Country, result.NormalizedAddress.Country)
}

func TestBasicValidator_Validate_RejectsUnknownType(t *testing.T) {
	v := address.NewBasicValidator()

	result, err := v.Validate(context.Background(), address.Address{
		Type:       "warehouse",
		Street:     "1 Marine Drive",
		City:       "Mumbai",
		State:      "Maharashtra",
		PostalCode: "400001",
	})

	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Fields(), "type")
}

func TestBasicValidator_Validate_CanceledContext(t *testing.T) {
	v := address.NewBasicValidator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := v.Validate(ctx, address.Address{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestMockValidator_DefaultsToSubmitReady(t *testing.T) {
	m := address.NewMockValidator()

	result, err := m.Validate(context.Background(), address.Address{Street: "x", City: "y", State: "z", PostalCode: "123456"})
	require.NoError(t, err)
	assert.True(t, result.IsValid)

	result, err = m.Validate(context.Background(), address.Address{})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
}
