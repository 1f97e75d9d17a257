// Package pincode resolves Indian postal codes to a city and state.
//
// The client side (Lookup, Client) talks to the storefront REST backend.
// The server side (Directory and its implementations) answers those requests.
package pincode

import (
	"context"

	"github.com/dukerupert/pinfill/internal/address"
)

// Location is the city/state pair a pincode resolves to.
type Location struct {
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// Complete reports whether both city and state are present.
func (l *Location) Complete() bool {
	return l != nil && l.City != "" && l.State != ""
}

// Lookup resolves a pincode from the client side.
// Errors should be, or wrap, *LookupError so callers can pick a message.
type Lookup interface {
	Lookup(ctx context.Context, code string) (*Location, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, code string) (*Location, error)

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, code string) (*Location, error) {
	return f(ctx, code)
}

// Directory is the server-side source of pincode data.
// Find returns ErrNotFound when the code is well-formed but unknown.
type Directory interface {
	Find(ctx context.Context, code string) (*Location, error)
}

// Valid reports whether code is exactly six ASCII digits.
func Valid(code string) bool {
	return address.ValidPostalCode(code)
}
