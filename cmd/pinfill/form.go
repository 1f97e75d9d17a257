package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/pinfill/internal/address"
	"github.com/dukerupert/pinfill/internal/domain"
	"github.com/dukerupert/pinfill/internal/form"
	"github.com/dukerupert/pinfill/internal/notify"
	"github.com/dukerupert/pinfill/internal/pincode"
	"github.com/dukerupert/pinfill/internal/resolver"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Fill shipping and billing addresses interactively",
	Long: `Reads one command per line from stdin:

  shipping|billing street <text>
  shipping|billing pin <pincode>
  shipping|billing city <text>     (only after a failed lookup)
  shipping|billing state <text>    (only after a failed lookup)
  same on|off                      billing copies shipping
  status                           show both addresses
  wait                             block until pending lookups settle
  submit                           send both addresses to the server
  quit`,
	Args: cobra.NoArgs,
	RunE: runForm,
}

func runForm(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	sh, err := newShell(shellOptions{
		Lookup:  client,
		Sink:    client,
		Out:     cmd.OutOrStdout(),
		Timeout: timeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer sh.Close()

	return sh.Run(cmd.Context(), cmd.InOrStdin())
}

type shellOptions struct {
	Lookup  pincode.Lookup
	Sink    address.Sink
	Out     io.Writer
	Clock   clockwork.Clock
	Timeout time.Duration
	Logger  *slog.Logger
}

// shell drives a form.Checkout from line commands.
type shell struct {
	checkout *form.Checkout
	sink     address.Sink
	timeout  time.Duration

	mu  sync.Mutex
	out io.Writer
}

func newShell(opts shellOptions) (*shell, error) {
	s := &shell{sink: opts.Sink, out: opts.Out, timeout: opts.Timeout}
	if s.timeout <= 0 {
		s.timeout = pincode.DefaultTimeout
	}

	c, err := form.NewCheckout(form.CheckoutOptions{
		Lookup: opts.Lookup,
		Notifier: notify.Func(func(m notify.Message) {
			s.printf("[%s] %s\n", m.Level, m.Text)
		}),
		Clock:   opts.Clock,
		Timeout: s.timeout,
		Logger:  opts.Logger,
		OnChange: func(typ string, snap resolver.Snapshot) {
			if snap.Status == resolver.Pending {
				s.printf("%s: looking up %s...\n", typ, snap.PostalCode)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	s.checkout = c
	return s, nil
}

func (s *shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

// Run executes commands until quit or end of input.
func (s *shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		quit, err := s.exec(ctx, line)
		if err != nil {
			s.printf("error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

func (s *shell) exec(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	verb, rest := fields[0], fields[1:]

	switch verb {
	case "quit", "exit":
		return true, nil
	case "shipping", "billing":
		return false, s.setField(s.group(verb), rest)
	case "same":
		if len(rest) != 1 || (rest[0] != "on" && rest[0] != "off") {
			return false, errors.New("usage: same on|off")
		}
		s.checkout.SetSameAsShipping(rest[0] == "on")
		return false, nil
	case "status":
		s.status()
		return false, nil
	case "wait":
		return false, s.wait(ctx)
	case "submit":
		return false, s.submit(ctx)
	default:
		return false, fmt.Errorf("unknown command %q", verb)
	}
}

func (s *shell) group(name string) *form.FieldGroup {
	if name == address.TypeBilling {
		return s.checkout.Billing
	}
	return s.checkout.Shipping
}

func (s *shell) setField(g *form.FieldGroup, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: <shipping|billing> <street|pin|city|state> <value>")
	}
	value := strings.Join(args[1:], " ")

	switch args[0] {
	case "street":
		g.SetStreet(value)
	case "pin", "pincode":
		if shown := g.SetPostalCode(value); shown != value {
			s.printf("%s: pincode is now %q\n", g.Type(), shown)
		}
	case "city":
		return g.SetCity(value)
	case "state":
		return g.SetState(value)
	default:
		return fmt.Errorf("unknown field %q", args[0])
	}
	return nil
}

func (s *shell) status() {
	for _, g := range []*form.FieldGroup{s.checkout.Shipping, s.checkout.Billing} {
		a := g.Address()
		state := g.Resolver().Status().String()
		if g.Mirroring() {
			state = "same as shipping"
		}
		s.printf("%-8s %s | %s | %s, %s [%s]\n", g.Type(), a.Street, a.PostalCode, a.City, a.State, state)
	}
	if s.checkout.CanSubmit() {
		s.printf("ready to submit\n")
		return
	}
	s.printFields(s.checkout.Errors())
}

// settled reports whether no lookup is scheduled or in flight.
func (s *shell) settled() bool {
	for _, g := range []*form.FieldGroup{s.checkout.Shipping, s.checkout.Billing} {
		if g.Mirroring() {
			continue
		}
		snap := g.Resolver().Snapshot()
		if !address.ValidPostalCode(snap.PostalCode) {
			continue
		}
		if snap.Status == resolver.Idle || snap.Status == resolver.Pending {
			return false
		}
	}
	return true
}

func (s *shell) wait(ctx context.Context) error {
	deadline := time.Now().Add(resolver.DebounceWindow + s.timeout + time.Second)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for !s.settled() {
		if time.Now().After(deadline) {
			return errors.New("timed out waiting for pincode lookup")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (s *shell) submit(ctx context.Context) error {
	err := s.checkout.Submit(ctx, s.sink)
	if err == nil {
		s.printf("submitted shipping and billing addresses\n")
		return nil
	}
	if domain.IsValidationError(err) {
		s.printf("cannot submit yet\n")
		s.printFields(domain.GetValidationFields(err))
		return nil
	}
	return err
}

func (s *shell) printFields(fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.printf("  %s: %s\n", k, fields[k])
	}
}

func (s *shell) Close() {
	s.checkout.Close()
}
