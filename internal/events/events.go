// Package events publishes submitted addresses to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/pinfill/internal/address"
	"github.com/dukerupert/pinfill/internal/domain"
	"github.com/dukerupert/pinfill/internal/telemetry"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is used when Config.SubjectPrefix is empty.
const DefaultSubjectPrefix = "pinfill.address"

// Submission is the message body published for every accepted address.
type Submission struct {
	ID          string          `json:"id"`
	Principal   string          `json:"principal,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Address     address.Address `json:"address"`
}

type principalKey struct{}

// WithPrincipal tags submissions made with ctx with the session principal.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext returns the principal set by WithPrincipal.
func PrincipalFromContext(ctx context.Context) string {
	p, _ := ctx.Value(principalKey{}).(string)
	return p
}

// NewSubmission builds the event for addr.
func NewSubmission(ctx context.Context, addr address.Address) Submission {
	return Submission{
		ID:          uuid.NewString(),
		Principal:   PrincipalFromContext(ctx),
		SubmittedAt: time.Now().UTC(),
		Address:     addr,
	}
}

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Config configures a NATSPublisher.
type Config struct {
	URL           string
	SubjectPrefix string
	ClientName    string
}

// NATSPublisher is an address.Sink that publishes to "{prefix}.{type}".
type NATSPublisher struct {
	conn   Conn
	prefix string
	logger *slog.Logger
}

// Connect dials NATS and returns a publisher.
func Connect(cfg Config, logger *slog.Logger) (*NATSPublisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("events: NATS URL is required")
	}
	name := cfg.ClientName
	if name == "" {
		name = "pinfill"
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil && logger != nil {
				logger.Warn("nats disconnected", slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			if logger != nil {
				logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return NewNATSPublisher(nc, cfg.SubjectPrefix, logger), nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn Conn, prefix string, logger *slog.Logger) *NATSPublisher {
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}
}

// Subject returns the subject an address of the given type is published on.
func (p *NATSPublisher) Subject(addressType string) string {
	if addressType == "" {
		addressType = "unknown"
	}
	return p.prefix + "." + addressType
}

// SubmitAddress publishes addr.
func (p *NATSPublisher) SubmitAddress(ctx context.Context, addr address.Address) error {
	const op = "events.SubmitAddress"

	if err := ctx.Err(); err != nil {
		return err
	}

	sub := NewSubmission(ctx, addr)
	data, err := json.Marshal(sub)
	if err != nil {
		return domain.Internal(err, op, "failed to encode address event")
	}

	subject := p.Subject(addr.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		p.record(subject, "error")
		return domain.Unavailable(err, op, "address event could not be published")
	}
	p.record(subject, "published")

	p.logger.Debug("address event published",
		slog.String("subject", subject),
		slog.String("submission_id", sub.ID),
	)
	return nil
}

func (p *NATSPublisher) record(subject, outcome string) {
	if telemetry.Address != nil {
		telemetry.Address.EventsPublished.WithLabelValues(subject, outcome).Inc()
	}
}

// Check reports whether the underlying connection is up. Connections
// that cannot report their state are assumed healthy.
func (p *NATSPublisher) Check(ctx context.Context) error {
	c, ok := p.conn.(interface{ IsConnected() bool })
	if !ok || c.IsConnected() {
		return nil
	}
	return errors.New("nats: not connected")
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// LogSink is an address.Sink that only logs. Used when NATS is not configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink (slog.Default when logger is nil).
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// SubmitAddress logs addr.
func (s *LogSink) SubmitAddress(ctx context.Context, addr address.Address) error {
	sub := NewSubmission(ctx, addr)
	s.logger.InfoContext(ctx, "address submitted",
		slog.String("submission_id", sub.ID),
		slog.String("type", addr.Type),
		slog.String("pincode", addr.PostalCode),
		slog.String("city", addr.City),
		slog.String("state", addr.State),
	)
	return nil
}
