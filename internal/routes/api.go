package routes

import (
	"github.com/dukerupert/pinfill/internal/router"
)

// RegisterAPIRoutes registers the routes the checkout form calls.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	var lookupMW, bodyMW []router.Middleware
	if deps.LookupLimit != nil {
		lookupMW = append(lookupMW, deps.LookupLimit)
	}
	if deps.MaxBody != nil {
		bodyMW = append(bodyMW, deps.MaxBody)
	}

	r.Get("/pincode/{code}", deps.PincodeHandler.Lookup, lookupMW...)
	r.Post("/addresses", deps.AddressHandler.Submit, bodyMW...)

	r.Get("/session", deps.SessionHandler.Show)
	r.Delete("/session", deps.SessionHandler.Destroy)
}

// RegisterDevRoutes registers development-only shortcuts.
// Callers must only invoke it when ENV=dev.
func RegisterDevRoutes(r *router.Router, deps APIDeps) {
	var bodyMW []router.Middleware
	if deps.MaxBody != nil {
		bodyMW = append(bodyMW, deps.MaxBody)
	}
	r.Post("/dev/session", deps.SessionHandler.DevSignIn, bodyMW...)
}

// RegisterOpsRoutes registers health and metrics endpoints.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/healthz", deps.HealthHandler.Check)
	if deps.MetricsHandler != nil {
		r.Handle("GET", "/metrics", deps.MetricsHandler)
	}
}
