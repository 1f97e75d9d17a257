package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/pinfill/internal/domain"
	"github.com/dukerupert/pinfill/internal/pincode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func jsonRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Accept", "application/json")
	return req
}

func TestErrorCodeToHTTPStatus_LookupKinds(t *testing.T) {
	tests := []struct {
		kind   pincode.Kind
		status int
	}{
		{pincode.KindNotFound, http.StatusNotFound},
		{pincode.KindInvalidFormat, http.StatusBadRequest},
		{pincode.KindTimeout, http.StatusRequestTimeout},
		{pincode.KindUnknown, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.status, ErrorCodeToHTTPStatus(tt.kind.Code()))
		})
	}
}

func TestErrorCodeToHTTPStatus_Unmapped(t *testing.T) {
	assert.Equal(t, http.StatusRequestEntityTooLarge, ErrorCodeToHTTPStatus(domain.ETOOLARGE))
	assert.Equal(t, http.StatusTooManyRequests, ErrorCodeToHTTPStatus(domain.ERATELIMIT))
	assert.Equal(t, http.StatusInternalServerError, ErrorCodeToHTTPStatus("pincode_exploded"))
}

func TestErrorResponse_DirectoryFailures(t *testing.T) {
	dbErr := errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "directory deadline",
			err:     domain.Timeout(context.DeadlineExceeded, "pincode.find", "Pincode lookup timed out"),
			status:  http.StatusRequestTimeout,
			code:    domain.ETIMEOUT,
			message: "Pincode lookup timed out",
		},
		{
			name:    "directory down",
			err:     domain.Unavailable(dbErr, "pincode.find", pincode.MessageUnavailable),
			status:  http.StatusServiceUnavailable,
			code:    domain.EUNAVAILABLE,
			message: pincode.MessageUnavailable,
		},
		{
			name:   "unknown pincode",
			err:    domain.NotFound("pincode.find", "pincode", "999999"),
			status: http.StatusNotFound,
			code:   domain.ENOTFOUND,
		},
		{
			name:    "oversized address body",
			err:     domain.Errorf(domain.ETOOLARGE, "address.submit", "address body exceeds %d bytes", 1<<16),
			status:  http.StatusRequestEntityTooLarge,
			code:    domain.ETOOLARGE,
			message: "address body exceeds 65536 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ErrorResponse(rec, jsonRequest(http.MethodGet, "/pincode/110001"), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Error.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Error.Message)
			}
			assert.NotContains(t, body.Error.Message, "10.0.0.5")
		})
	}
}

func TestErrorResponse_PlainTextForForms(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/addresses", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, domain.Unavailable(nil, "address.submit", "Address book is unavailable"))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Address book is unavailable")
	assert.NotEqual(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestErrorResponse_InternalHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := domain.Internal(fmt.Errorf("scan row: %w", errors.New("pgx: column postal_code missing")),
		"pincode.find", "failed to read pincode 110001 from directory")

	ErrorResponse(rec, jsonRequest(http.MethodGet, "/pincode/110001"), err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, domain.EINTERNAL, body.Error.Code)
	assert.Equal(t, "An internal error occurred. Please try again later.", body.Error.Message)
	assert.Empty(t, body.Error.Fields)
}

func TestErrorResponse_UntypedErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorResponse(rec, jsonRequest(http.MethodPost, "/addresses"), errors.New("nats: connection closed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.NotContains(t, body.Error.Message, "nats")
}

func TestValidationErrorResponse_AddressFields(t *testing.T) {
	rec := httptest.NewRecorder()
	err := domain.NewValidationError("address.submit", map[string]string{
		"street":      "Street address is required",
		"postal_code": "Pincode must be exactly 6 digits",
	})

	ValidationErrorResponse(rec, jsonRequest(http.MethodPost, "/addresses"), err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, domain.EINVALID, body.Error.Code)
	assert.Equal(t, "Please correct the highlighted fields", body.Error.Message)
	assert.Equal(t, map[string]string{
		"street":      "Street address is required",
		"postal_code": "Pincode must be exactly 6 digits",
	}, body.Error.Fields)
}

func TestValidationErrorResponse_WrappedFields(t *testing.T) {
	rec := httptest.NewRecorder()
	inner := domain.NewValidationError("address.validate", map[string]string{"city": "City is required"})

	ValidationErrorResponse(rec, jsonRequest(http.MethodPost, "/addresses"), fmt.Errorf("submit: %w", inner))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]string{"city": "City is required"}, decodeError(t, rec).Error.Fields)
}

func TestValidationErrorResponse_FallsBackForLookupFailures(t *testing.T) {
	rec := httptest.NewRecorder()
	err := domain.Timeout(context.DeadlineExceeded, "pincode.find", "Pincode lookup timed out")

	ValidationErrorResponse(rec, jsonRequest(http.MethodPost, "/addresses"), err)

	assert.Equal(t, http.StatusRequestTimeout, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, domain.ETIMEOUT, body.Error.Code)
	assert.Nil(t, body.Error.Fields)
}

func TestConvenienceResponses(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, *http.Request)
		status int
	}{
		{"not found", NotFoundResponse, http.StatusNotFound},
		{"unauthorized", UnauthorizedResponse, http.StatusUnauthorized},
		{"forbidden", ForbiddenResponse, http.StatusForbidden},
		{"internal", func(w http.ResponseWriter, r *http.Request) {
			InternalErrorResponse(w, r, errors.New("goose: migration 00002 failed"))
		}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, jsonRequest(http.MethodGet, "/session"))

			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.NotEmpty(t, body.Error.Message)
			assert.NotContains(t, body.Error.Message, "goose")
		})
	}
}

func TestAcceptsJSON(t *testing.T) {
	tests := []struct {
		name        string
		accept      string
		contentType string
		path        string
		want        bool
	}{
		{name: "fetch from address form", accept: "application/json", path: "/pincode/110001", want: true},
		{name: "json body", contentType: "application/json; charset=utf-8", path: "/addresses", want: true},
		{name: "json suffix", path: "/pincode/110001.json", want: true},
		{name: "browser navigation", accept: "text/html", path: "/addresses"},
		{name: "bare curl", path: "/pincode/110001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			assert.Equal(t, tt.want, acceptsJSON(req))
		})
	}
}
