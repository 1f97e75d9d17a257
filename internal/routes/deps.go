package routes

import (
	"net/http"

	"github.com/dukerupert/pinfill/internal/handler"
	"github.com/dukerupert/pinfill/internal/router"
)

// APIDeps contains dependencies for the address API routes
type APIDeps struct {
	// Pincode lookup
	PincodeHandler *handler.PincodeHandler

	// Address submission
	AddressHandler *handler.AddressHandler

	// Session slot
	SessionHandler *handler.SessionHandler

	// LookupLimit throttles GET /pincode/{code} per client
	LookupLimit router.Middleware

	// MaxBody caps POST bodies
	MaxBody router.Middleware
}

// OpsDeps contains dependencies for operational routes
type OpsDeps struct {
	HealthHandler  *handler.HealthHandler
	MetricsHandler http.Handler
}
