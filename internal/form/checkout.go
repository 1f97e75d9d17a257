package form

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/pinfill/internal/address"
	"github.com/dukerupert/pinfill/internal/notify"
	"github.com/dukerupert/pinfill/internal/pincode"
	"github.com/dukerupert/pinfill/internal/resolver"
	"github.com/jonboulle/clockwork"
)

// CheckoutOptions configures a Checkout. The same lookup, notifier and
// clock back both field groups.
type CheckoutOptions struct {
	Lookup    pincode.Lookup
	Validator address.Validator
	Notifier  notify.Notifier
	Clock     clockwork.Clock
	Timeout   time.Duration
	Logger    *slog.Logger

	// OnChange receives resolver snapshots tagged with the address type.
	OnChange func(addressType string, snap resolver.Snapshot)
}

// Checkout is the shipping and billing address form.
type Checkout struct {
	Shipping *FieldGroup
	Billing  *FieldGroup

	logger *slog.Logger

	mu             sync.Mutex
	sameAsShipping bool
}

// NewCheckout creates both field groups.
func NewCheckout(opts CheckoutOptions) (*Checkout, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	group := func(typ string) (*FieldGroup, error) {
		var onChange func(resolver.Snapshot)
		if opts.OnChange != nil {
			onChange = func(s resolver.Snapshot) { opts.OnChange(typ, s) }
		}
		return NewFieldGroup(GroupOptions{
			Type:      typ,
			Lookup:    opts.Lookup,
			Validator: opts.Validator,
			Notifier:  opts.Notifier,
			Clock:     opts.Clock,
			Timeout:   opts.Timeout,
			Logger:    logger,
			OnChange:  onChange,
		})
	}

	shipping, err := group(address.TypeShipping)
	if err != nil {
		return nil, err
	}
	billing, err := group(address.TypeBilling)
	if err != nil {
		shipping.Close()
		return nil, err
	}

	return &Checkout{Shipping: shipping, Billing: billing, logger: logger}, nil
}

// SetSameAsShipping toggles billing between its own inputs and a copy of
// the shipping address. The copy is one way and leaves the billing
// resolver untouched.
func (c *Checkout) SetSameAsShipping(on bool) {
	c.mu.Lock()
	c.sameAsShipping = on
	c.mu.Unlock()

	if !on {
		c.Billing.mirrorFrom(nil)
		return
	}
	c.refreshMirror()
}

// SameAsShipping reports whether billing copies shipping.
func (c *Checkout) SameAsShipping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sameAsShipping
}

func (c *Checkout) refreshMirror() {
	if !c.SameAsShipping() {
		return
	}
	ship := c.Shipping.Address()
	c.Billing.mirrorFrom(&ship)
}

// CanSubmit reports whether both addresses are ready.
func (c *Checkout) CanSubmit() bool {
	if !c.Shipping.CanSubmit() {
		return false
	}
	if c.SameAsShipping() {
		return true
	}
	return c.Billing.CanSubmit()
}

// Errors returns blocking field errors keyed "shipping.<field>" and "billing.<field>".
func (c *Checkout) Errors() map[string]string {
	c.refreshMirror()

	out := map[string]string{}
	for _, g := range []*FieldGroup{c.Shipping, c.Billing} {
		for field, msg := range g.Errors() {
			out[g.Type()+"."+field] = msg
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Submit sends the shipping address, then the billing address, to sink.
// Nothing is sent unless both groups pass gating.
func (c *Checkout) Submit(ctx context.Context, sink address.Sink) error {
	c.refreshMirror()

	if !c.CanSubmit() {
		fields := c.Errors()
		if len(fields) == 0 {
			fields = map[string]string{"shipping.postal_code": msgLookupPending}
		}
		return newNotReady("form.Checkout.Submit", fields)
	}

	if err := c.Shipping.Submit(ctx, sink); err != nil {
		return fmt.Errorf("shipping: %w", err)
	}
	if err := c.Billing.Submit(ctx, sink); err != nil {
		c.logger.Warn("billing submission failed after shipping was sent", slog.Any("error", err))
		return fmt.Errorf("billing: %w", err)
	}
	return nil
}

// Close shuts down both resolvers.
func (c *Checkout) Close() {
	c.Shipping.Close()
	c.Billing.Close()
}
