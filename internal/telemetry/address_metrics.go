package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AddressMetrics holds Prometheus metrics for the address capture workflow.
type AddressMetrics struct {
	// Client-side resolver
	ResolverLookups     *prometheus.CounterVec
	ResolverTransitions *prometheus.CounterVec
	StaleResponses      prometheus.Counter

	// Server-side directory
	DirectoryLookups *prometheus.CounterVec
	DirectoryLatency *prometheus.HistogramVec
	CoalescedLookups prometheus.Counter

	// Submissions
	AddressSubmissions *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec
}

// NewAddressMetrics creates and registers all address metrics on reg.
// A nil reg registers on the default registry.
func NewAddressMetrics(namespace string, reg prometheus.Registerer) *AddressMetrics {
	if namespace == "" {
		namespace = "pinfill"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &AddressMetrics{
		// =======================================================================
		// Resolver
		// =======================================================================
		ResolverLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "lookups_total",
				Help:      "Pincode lookups issued by resolvers, by outcome",
			},
			[]string{"outcome"}, // outcome: resolved, not_found, invalid_format, timeout, unknown
		),
		ResolverTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "transitions_total",
				Help:      "Resolver status transitions",
			},
			[]string{"from", "to"},
		),
		StaleResponses: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "stale_responses_total",
				Help:      "Lookup responses discarded because the pincode changed in flight",
			},
		),

		// =======================================================================
		// Directory
		// =======================================================================
		DirectoryLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "directory",
				Name:      "lookups_total",
				Help:      "Pincode directory queries, by outcome",
			},
			[]string{"outcome"}, // outcome: found, not_found, invalid, error
		),
		DirectoryLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "directory",
				Name:      "lookup_duration_seconds",
				Help:      "Pincode directory query duration",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"outcome"},
		),
		CoalescedLookups: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "directory",
				Name:      "coalesced_lookups_total",
				Help:      "Directory queries answered by an identical in-flight query",
			},
		),

		// =======================================================================
		// Submissions
		// =======================================================================
		AddressSubmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "address",
				Name:      "submissions_total",
				Help:      "Address submissions received, by address type and outcome",
			},
			[]string{"type", "outcome"}, // outcome: accepted, invalid, failed
		),
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Address events published to the broker",
			},
			[]string{"subject", "outcome"},
		),
	}

	return m
}

// Global instance for easy access from handlers and resolvers
var Address *AddressMetrics

// InitAddressMetrics initializes the global address metrics instance
func InitAddressMetrics(namespace string) *AddressMetrics {
	Address = NewAddressMetrics(namespace, nil)
	return Address
}
