package form

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/pinfill/internal/address"
	"github.com/dukerupert/pinfill/internal/notify"
	"github.com/dukerupert/pinfill/internal/pincode"
	"github.com/dukerupert/pinfill/internal/resolver"
	"github.com/dukerupert/pinfill/internal/telemetry"
	"github.com/jonboulle/clockwork"
)

// Inline messages for fields the resolver still owns.
const (
	msgLookupPending = "Waiting for pincode lookup"
	msgPincodeFailed = "Enter city and state manually"
)

// GroupOptions configures a FieldGroup.
type GroupOptions struct {
	// Type is address.TypeShipping or address.TypeBilling.
	Type string

	// Lookup resolves pincodes. Required.
	Lookup pincode.Lookup

	// Validator runs the final check inside Submit. Defaults to address.BasicValidator.
	Validator address.Validator

	Notifier notify.Notifier
	Clock    clockwork.Clock
	Timeout  time.Duration
	Logger   *slog.Logger

	// OnChange receives every resolver snapshot for this group.
	OnChange func(resolver.Snapshot)
}

// FieldGroup is one address block: street, pincode, city and state.
// City and state are owned by the group's resolver.
type FieldGroup struct {
	typ       string
	resolver  *resolver.Resolver
	validator address.Validator
	rules     *address.BasicValidator
	logger    *slog.Logger

	mu     sync.Mutex
	street string
	mirror *address.Address // set while the group copies another address
}

// NewFieldGroup creates an empty field group with an Idle resolver.
func NewFieldGroup(opts GroupOptions) (*FieldGroup, error) {
	if opts.Type != address.TypeShipping && opts.Type != address.TypeBilling {
		return nil, fmt.Errorf("form: unknown address type %q", opts.Type)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r, err := resolver.New(resolver.Options{
		Lookup:   opts.Lookup,
		Notifier: opts.Notifier,
		Clock:    opts.Clock,
		Timeout:  opts.Timeout,
		Logger:   logger,
		OnChange: opts.OnChange,
		Name:     opts.Type,
	})
	if err != nil {
		return nil, err
	}

	rules := address.NewBasicValidator()
	g := &FieldGroup{
		typ:       opts.Type,
		resolver:  r,
		validator: opts.Validator,
		rules:     rules,
		logger:    logger.With(slog.String("address_type", opts.Type)),
	}
	if g.validator == nil {
		g.validator = rules
	}
	return g, nil
}

// Type returns the address type of the group.
func (g *FieldGroup) Type() string { return g.typ }

// Resolver exposes the group's pincode resolver.
func (g *FieldGroup) Resolver() *resolver.Resolver { return g.resolver }

// SetStreet sets the street line.
func (g *FieldGroup) SetStreet(street string) {
	g.mu.Lock()
	g.street = street
	g.mu.Unlock()
}

// SetPostalCode sanitizes raw input, forwards it to the resolver and returns
// the value the input should now display.
func (g *FieldGroup) SetPostalCode(raw string) string {
	code := SanitizePostalCode(raw)
	g.resolver.SetPostalCode(code)
	return code
}

// SetCity sets the city while the resolver allows manual entry.
func (g *FieldGroup) SetCity(city string) error {
	return g.resolver.SetCity(city)
}

// SetState sets the state while the resolver allows manual entry.
func (g *FieldGroup) SetState(state string) error {
	return g.resolver.SetState(state)
}

// Address returns the address as it would be submitted.
func (g *FieldGroup) Address() address.Address {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.mirror != nil {
		a := *g.mirror
		a.Type = g.typ
		a.Country = address.Country
		return a
	}

	snap := g.resolver.Snapshot()
	return address.Address{
		Type:       g.typ,
		Street:     g.street,
		City:       snap.City,
		State:      snap.State,
		PostalCode: snap.PostalCode,
		Country:    address.Country,
	}
}

// Mirroring reports whether the group submits a copied address.
func (g *FieldGroup) Mirroring() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mirror != nil
}

// mirrorFrom replaces the submitted address with a copy of src.
// A nil src restores the group's own inputs.
func (g *FieldGroup) mirrorFrom(src *address.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if src == nil {
		g.mirror = nil
		return
	}
	cp := *src
	g.mirror = &cp
}

// CanSubmit reports whether the submit button should be enabled.
func (g *FieldGroup) CanSubmit() bool {
	if g.Mirroring() {
		return g.Address().SubmitReady()
	}
	return g.resolver.CanSubmit() && g.Address().SubmitReady()
}

// Errors returns the inline message for every field that blocks submission.
// It returns nil when the group can submit.
func (g *FieldGroup) Errors() map[string]string {
	addr := g.Address()
	fields := map[string]string{}

	if result, err := g.rules.Validate(context.Background(), addr); err == nil {
		for field, msg := range result.Fields() {
			fields[field] = msg
		}
	}

	if !g.Mirroring() {
		snap := g.resolver.Snapshot()
		switch snap.Status {
		case resolver.Idle, resolver.Pending:
			if address.ValidPostalCode(snap.PostalCode) {
				fields["postal_code"] = msgLookupPending
			}
		case resolver.Failed:
			if strings.TrimSpace(snap.City) == "" || strings.TrimSpace(snap.State) == "" {
				fields["postal_code"] = msgPincodeFailed
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Submit re-checks gating, validates and hands the address to sink.
func (g *FieldGroup) Submit(ctx context.Context, sink address.Sink) error {
	const op = "form.Submit"

	if !g.CanSubmit() {
		fields := g.Errors()
		if len(fields) == 0 {
			fields = map[string]string{"postal_code": msgLookupPending}
		}
		g.record("not_ready")
		return newNotReady(op, fields)
	}

	result, err := g.validator.Validate(ctx, g.Address())
	if err != nil {
		g.record("error")
		return fmt.Errorf("validate %s address: %w", g.typ, err)
	}
	if !result.IsValid {
		g.record("invalid")
		fields := result.Fields()
		if len(fields) == 0 {
			fields = map[string]string{"address": "Address is not valid"}
		}
		return newNotReady(op, fields)
	}

	addr := *result.NormalizedAddress
	addr.Type = g.typ
	if err := sink.SubmitAddress(ctx, addr); err != nil {
		g.record("error")
		g.logger.Error("address submission failed", slog.Any("error", err))
		return err
	}

	g.record("submitted")
	g.logger.Info("address submitted",
		slog.String("pincode", addr.PostalCode),
		slog.String("city", addr.City),
		slog.String("state", addr.State),
	)
	return nil
}

func (g *FieldGroup) record(outcome string) {
	if telemetry.Address != nil {
		telemetry.Address.AddressSubmissions.WithLabelValues(g.typ, outcome).Inc()
	}
}

// Close shuts down the resolver. The group ignores pincode input afterwards.
func (g *FieldGroup) Close() {
	g.resolver.Close()
}
