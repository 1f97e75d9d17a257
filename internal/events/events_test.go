package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/dukerupert/pinfill/internal/address"
	"github.com/dukerupert/pinfill/internal/domain"
	"github.com/dukerupert/pinfill/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu      sync.Mutex
	msgs    []published
	err     error
	drained bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, published{subject: subject, data: data})
	return nil
}

func (c *fakeConn) Drain() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drained = true
	return nil
}

var delhi = address.Address{
	Type:       address.TypeShipping,
	Street:     "12 Janpath",
	City:       "New Delhi",
	State:      "Delhi",
	PostalCode: "110001",
	Country:    "India",
}

func TestNATSPublisher_PublishesBySubject(t *testing.T) {
	conn := &fakeConn{}
	p := events.NewNATSPublisher(conn, "orders.address.", nil)

	ctx := events.WithPrincipal(context.Background(), "user-42")
	require.NoError(t, p.SubmitAddress(ctx, delhi))

	billing := delhi
	billing.Type = address.TypeBilling
	require.NoError(t, p.SubmitAddress(context.Background(), billing))

	require.Len(t, conn.msgs, 2)
	assert.Equal(t, "orders.address.shipping", conn.msgs[0].subject)
	assert.Equal(t, "orders.address.billing", conn.msgs[1].subject)

	var sub events.Submission
	require.NoError(t, json.Unmarshal(conn.msgs[0].data, &sub))
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "user-42", sub.Principal)
	assert.Equal(t, delhi, sub.Address)
	assert.False(t, sub.SubmittedAt.IsZero())

	var second events.Submission
	require.NoError(t, json.Unmarshal(conn.msgs[1].data, &second))
	assert.NotEqual(t, sub.ID, second.ID)
	assert.Empty(t, second.Principal)

	require.NoError(t, p.Close())
	assert.True(t, conn.drained)
}

func TestNATSPublisher_DefaultPrefix(t *testing.T) {
	p := events.NewNATSPublisher(&fakeConn{}, "", nil)
	assert.Equal(t, "pinfill.address.billing", p.Subject(address.TypeBilling))
	assert.Equal(t, "pinfill.address.unknown", p.Subject(""))
}

func TestNATSPublisher_PublishError(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	p := events.NewNATSPublisher(conn, "", nil)

	err := p.SubmitAddress(context.Background(), delhi)
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.Equal(t, "address event could not be published", domain.ErrorMessage(err))
}

func TestNATSPublisher_CanceledContext(t *testing.T) {
	conn := &fakeConn{}
	p := events.NewNATSPublisher(conn, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.SubmitAddress(ctx, delhi), context.Canceled)
	assert.Empty(t, conn.msgs)
}

func TestConnect_RequiresURL(t *testing.T) {
	_, err := events.Connect(events.Config{}, nil)
	assert.Error(t, err)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := events.NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, sink.SubmitAddress(context.Background(), delhi))
	assert.Contains(t, buf.String(), "address submitted")
	assert.Contains(t, buf.String(), "pincode=110001")
	assert.Contains(t, buf.String(), "submission_id=")
}

type statusConn struct {
	fakeConn
	connected bool
}

func (c *statusConn) IsConnected() bool { return c.connected }

func TestNATSPublisher_Check(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, events.NewNATSPublisher(&fakeConn{}, "", nil).Check(ctx))
	assert.NoError(t, events.NewNATSPublisher(&statusConn{connected: true}, "", nil).Check(ctx))
	assert.Error(t, events.NewNATSPublisher(&statusConn{}, "", nil).Check(ctx))
}
