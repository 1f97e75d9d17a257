// Package resolver fills city and state from an Indian pincode.
//
// A Resolver owns one pincode field. Edits are debounced, the lookup runs
// asynchronously, and the outcome decides whether the paired city and state
// inputs are locked (filled from the lookup) or open for manual entry.
//
//	Idle --6 digits + 500ms quiet--> Pending --ok--> Resolved
//	                                         \--error--> Failed
//	any edit --> Idle (city, state and message cleared)
//
// Responses that arrive after the pincode changed are discarded.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/pinfill/internal/notify"
	"github.com/dukerupert/pinfill/internal/pincode"
	"github.com/dukerupert/pinfill/internal/telemetry"
	"github.com/jonboulle/clockwork"
)

// DebounceWindow is how long the pincode must stay unchanged before lookup.
const DebounceWindow = 500 * time.Millisecond

// ErrFieldLocked is returned when city or state is set while the lookup owns them.
var ErrFieldLocked = errors.New("city and state are filled from the pincode")

// Options configures a Resolver.
type Options struct {
	// Lookup resolves pincodes. Required.
	Lookup pincode.Lookup

	// Notifier receives the success and error toasts. Defaults to notify.Nop.
	Notifier notify.Notifier

	// Clock schedules the debounce. Defaults to the real clock.
	Clock clockwork.Clock

	// Timeout bounds each lookup. Defaults to pincode.DefaultTimeout.
	Timeout time.Duration

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// OnChange is called after every state change, outside the resolver's lock.
	// It may read the resolver but must not mutate it synchronously.
	OnChange func(Snapshot)

	// Name labels log lines, e.g. "shipping".
	Name string
}

// request is the lookup currently in flight.
type request struct {
	code   string
	gen    uint64
	cancel context.CancelFunc
}

// Resolver is the pincode state machine for one address field-group.
// It is safe for concurrent use.
type Resolver struct {
	lookup   pincode.Lookup
	notifier notify.Notifier
	clock    clockwork.Clock
	timeout  time.Duration
	logger   *slog.Logger
	onChange func(Snapshot)

	mu      sync.Mutex
	code    string
	city    string
	state   string
	status  Status
	message string
	gen     uint64 // bumped on every pincode edit
	seq     uint64
	timer   clockwork.Timer
	pending *request
	closed  bool

	wg sync.WaitGroup
}

// New creates a Resolver in the Idle state.
func New(opts Options) (*Resolver, error) {
	if opts.Lookup == nil {
		return nil, fmt.Errorf("resolver: lookup is required")
	}

	r := &Resolver{
		lookup:   opts.Lookup,
		notifier: opts.Notifier,
		clock:    opts.Clock,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		onChange: opts.OnChange,
	}
	if r.notifier == nil {
		r.notifier = notify.Nop{}
	}
	if r.clock == nil {
		r.clock = clockwork.NewRealClock()
	}
	if r.timeout <= 0 {
		r.timeout = pincode.DefaultTimeout
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if opts.Name != "" {
		r.logger = r.logger.With(slog.String("field_group", opts.Name))
	}

	return r, nil
}

// SetPostalCode records a new pincode value.
// The caller has already stripped non-digits and capped the length at 6.
// Setting the current value again is a no-op, so it never re-issues a lookup.
func (r *Resolver) SetPostalCode(code string) {
	r.mu.Lock()
	if r.closed || code == r.code {
		r.mu.Unlock()
		return
	}

	r.code = code
	r.gen++
	r.stopTimerLocked()
	r.cancelPendingLocked()

	from := r.status
	r.status = Idle
	r.city, r.state, r.message = "", "", ""

	if pincode.Valid(code) {
		gen := r.gen
		r.timer = r.clock.AfterFunc(DebounceWindow, func() { r.fire(gen) })
	}

	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.changed(from, snap)
}

// fire runs when the debounce window elapses without further edits.
func (r *Resolver) fire(gen uint64) {
	r.mu.Lock()
	if r.closed || gen != r.gen || (r.pending != nil && r.pending.gen == gen) {
		r.mu.Unlock()
		return
	}
	r.timer = nil

	code := r.code
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	r.pending = &request{code: code, gen: gen, cancel: cancel}

	from := r.status
	r.status = Pending
	snap := r.snapshotLocked()
	r.wg.Add(1)
	r.mu.Unlock()

	r.logger.Debug("looking up pincode", slog.String("pincode", code))
	r.changed(from, snap)

	go r.resolve(ctx, cancel, code, gen)
}

func (r *Resolver) resolve(ctx context.Context, cancel context.CancelFunc, code string, gen uint64) {
	defer r.wg.Done()
	defer cancel()

	start := time.Now()
	loc, err := r.lookup.Lookup(ctx, code)
	elapsed := time.Since(start)

	r.mu.Lock()
	if r.closed || gen != r.gen || code != r.code {
		current := r.code
		r.mu.Unlock()

		r.logger.Debug("discarding stale pincode response",
			slog.String("pincode", code),
			slog.String("current", current),
		)
		if telemetry.Address != nil {
			telemetry.Address.StaleResponses.Inc()
		}
		return
	}
	r.pending = nil

	from := r.status
	var outcome string
	if err == nil && loc.Complete() {
		r.status = Resolved
		r.city, r.state = loc.City, loc.State
		r.message = fmt.Sprintf("%s, %s", loc.City, loc.State)
		outcome = "resolved"
	} else {
		kind := pincode.KindUnknown
		if err != nil {
			kind = pincode.Classify(err)
		}
		r.status = Failed
		r.city, r.state = "", ""
		r.message = kind.Message()
		outcome = kind.String()
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()

	if err != nil {
		r.logger.Info("pincode lookup failed",
			slog.String("pincode", code),
			slog.String("outcome", outcome),
			slog.Duration("duration", elapsed),
			slog.Any("error", err),
		)
	} else {
		r.logger.Debug("pincode lookup finished",
			slog.String("pincode", code),
			slog.String("outcome", outcome),
			slog.Duration("duration", elapsed),
		)
	}
	if telemetry.Address != nil {
		telemetry.Address.ResolverLookups.WithLabelValues(outcome).Inc()
	}

	r.changed(from, snap)

	// OnChange runs unlocked, so the pincode may have been edited meanwhile.
	r.mu.Lock()
	current := !r.closed && gen == r.gen
	r.mu.Unlock()
	if !current {
		return
	}

	if snap.Status == Resolved {
		r.notifier.Success(snap.Message)
	} else {
		r.notifier.Error(snap.Message)
	}
}

// SetCity sets the city during manual fallback entry.
func (r *Resolver) SetCity(city string) error {
	return r.setManual(func() { r.city = city })
}

// SetState sets the state during manual fallback entry.
func (r *Resolver) SetState(state string) error {
	return r.setManual(func() { r.state = state })
}

func (r *Resolver) setManual(apply func()) error {
	r.mu.Lock()
	if !r.status.FieldsEditable() {
		r.mu.Unlock()
		return ErrFieldLocked
	}
	apply()
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.changed(snap.Status, snap)
	return nil
}

// Snapshot returns the current state.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		PostalCode: r.code,
		City:       r.city,
		State:      r.state,
		Status:     r.status,
		Message:    r.message,
		Seq:        r.seq,
	}
}

// Status returns the current status.
func (r *Resolver) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// CanSubmit reports whether the owning form may submit right now.
func (r *Resolver) CanSubmit() bool {
	return r.Snapshot().CanSubmit()
}

// Close stops the debounce timer, cancels any lookup and waits for it to
// return. The resolver ignores all input afterwards.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.stopTimerLocked()
	r.cancelPendingLocked()
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Resolver) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Resolver) cancelPendingLocked() {
	if r.pending != nil {
		r.pending.cancel()
		r.pending = nil
	}
}

func (r *Resolver) snapshotLocked() Snapshot {
	r.seq++
	return Snapshot{
		PostalCode: r.code,
		City:       r.city,
		State:      r.state,
		Status:     r.status,
		Message:    r.message,
		Seq:        r.seq,
	}
}

func (r *Resolver) changed(from Status, snap Snapshot) {
	if from != snap.Status && telemetry.Address != nil {
		telemetry.Address.ResolverTransitions.WithLabelValues(from.String(), snap.Status.String()).Inc()
	}
	if r.onChange != nil {
		r.onChange(snap)
	}
}
