package pincode

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/pinfill/internal/telemetry"
	"golang.org/x/sync/singleflight"
)

// Coalescing wraps a Directory so concurrent queries for the same pincode
// share one backend call. Shoppers on a slow link often fire the same code
// from several tabs or retries.
type Coalescing struct {
	next    Directory
	group   singleflight.Group
	timeout time.Duration
}

// NewCoalescing wraps next. timeout bounds the shared backend call, which is
// detached from any single caller's cancellation.
func NewCoalescing(next Directory, timeout time.Duration) *Coalescing {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Coalescing{next: next, timeout: timeout}
}

// Find returns the location for code.
func (c *Coalescing) Find(ctx context.Context, code string) (*Location, error) {
	if !Valid(code) {
		record("invalid", 0)
		return nil, ErrInvalidFormat
	}

	ch := c.group.DoChan(code, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		start := time.Now()
		loc, err := c.next.Find(shared, code)
		record(outcome(err), time.Since(start))
		return loc, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared && telemetry.Address != nil {
			telemetry.Address.CoalescedLookups.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		// Callers may mutate the result; hand each its own copy.
		loc := *res.Val.(*Location)
		return &loc, nil
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidFormat):
		return "invalid"
	default:
		return "error"
	}
}

func record(outcome string, d time.Duration) {
	if telemetry.Address == nil {
		return
	}
	telemetry.Address.DirectoryLookups.WithLabelValues(outcome).Inc()
	if d > 0 {
		telemetry.Address.DirectoryLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}
