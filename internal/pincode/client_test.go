package pincode_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukerupert/pinfill/internal/address"
	"github.com/dukerupert/pinfill/internal/domain"
	"github.com/dukerupert/pinfill/internal/pincode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, timeout time.Duration) *pincode.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := pincode.NewClient(pincode.ClientConfig{BaseURL: srv.URL, Timeout: timeout})
	require.NoError(t, err)
	return c
}

func TestClient_Lookup_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/pincode/110001", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pincode.Envelope{
			Success: true,
			Data:    &pincode.Location{City: "New Delhi", State: "Delhi"},
		})
	}, time.Second)

	loc, err := c.Lookup(context.Background(), "110001")

	require.NoError(t, err)
	assert.Equal(t, "New Delhi", loc.City)
	assert.Equal(t, "Delhi", loc.State)
	assert.Equal(t, "110001", loc.PostalCode)
}

func TestClient_Lookup_StatusMapping(t *testing.T) {
	tests := []struct {
		status  int
		kind    pincode.Kind
		message string
	}{
		{http.StatusNotFound, pincode.KindNotFound, "Pincode not found. Please check and try again."},
		{http.StatusBadRequest, pincode.KindInvalidFormat, "Invalid pincode format."},
		{http.StatusRequestTimeout, pincode.KindTimeout, "Unable to fetch location data."},
		{http.StatusInternalServerError, pincode.KindUnknown, "Unable to fetch location data."},
		{http.StatusTooManyRequests, pincode.KindUnknown, "Unable to fetch location data."},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}, time.Second)

			loc, err := c.Lookup(context.Background(), "000000")

			assert.Nil(t, loc)
			var le *pincode.LookupError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.kind, le.Kind)
			assert.Equal(t, tt.status, le.Status)
			assert.Equal(t, tt.message, le.ErrorMessage())
		})
	}
}

func TestClient_Lookup_UnsuccessfulEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pincode.Envelope{Success: false, Message: "upstream down"})
	}, time.Second)

	_, err := c.Lookup(context.Background(), "110001")

	assert.Equal(t, pincode.KindUnknown, pincode.Classify(err))
}

func TestClient_Lookup_IncompleteData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pincode.Envelope{Success: true, Data: &pincode.Location{City: "New Delhi"}})
	}, time.Second)

	_, err := c.Lookup(context.Background(), "110001")

	assert.Equal(t, pincode.KindUnknown, pincode.Classify(err))
}

func TestClient_Lookup_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	_, err := c.Lookup(context.Background(), "110001")

	require.Error(t, err)
	assert.Equal(t, pincode.KindTimeout, pincode.Classify(err))
}

func TestClient_Lookup_RejectsMalformedCodeWithoutRequest(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}, time.Second)

	_, err := c.Lookup(context.Background(), "11000")

	assert.Equal(t, pincode.KindInvalidFormat, pincode.Classify(err))
	assert.Zero(t, hits.Load())
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := pincode.NewClient(pincode.ClientConfig{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestClient_SubmitAddress(t *testing.T) {
	var got address.Address
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/addresses", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}, time.Second)

	addr := address.Address{
		Type:       address.TypeShipping,
		Street:     "12 Janpath",
		City:       "New Delhi",
		State:      "Delhi",
		PostalCode: "110001",
		Country:    address.Country,
	}

	require.NoError(t, c.SubmitAddress(context.Background(), addr))
	assert.Equal(t, addr, got)
}

func TestClient_SubmitAddress_ValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"invalid","message":"address is not complete","fields":{"city":"City is required"}}}`))
	}, time.Second)

	err := c.SubmitAddress(context.Background(), address.Address{})

	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.Equal(t, "City is required", domain.GetValidationFields(err)["city"])
}

func TestClient_SubmitAddress_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":"unavailable","message":"broker unavailable"}}`))
	}, time.Second)

	err := c.SubmitAddress(context.Background(), address.Address{})

	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.Equal(t, "broker unavailable", domain.ErrorMessage(err))
}
