package pincode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/dukerupert/pinfill/internal/domain"
)

// Kind classifies a failed lookup. Every kind ends in the same Failed status;
// only the message shown to the shopper differs.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidFormat
	KindTimeout
)

// User-facing messages. The wording is part of the storefront contract.
const (
	MessageNotFound      = "Pincode not found. Please check and try again."
	MessageInvalidFormat = "Invalid pincode format."
	MessageUnavailable   = "Unable to fetch location data."
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidFormat:
		return "invalid_format"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Message returns the toast text for a failed lookup of this kind.
func (k Kind) Message() string {
	switch k {
	case KindNotFound:
		return MessageNotFound
	case KindInvalidFormat:
		return MessageInvalidFormat
	default:
		return MessageUnavailable
	}
}

// Code maps the kind onto the application error codes.
func (k Kind) Code() string {
	switch k {
	case KindNotFound:
		return domain.ENOTFOUND
	case KindInvalidFormat:
		return domain.EINVALID
	case KindTimeout:
		return domain.ETIMEOUT
	default:
		return domain.EUNAVAILABLE
	}
}

// LookupError is returned by Lookup implementations.
// It follows the domain error pattern so the HTTP layer can map it.
type LookupError struct {
	Kind   Kind
	Code   string // the pincode that was looked up
	Status int    // HTTP status, when the failure came from a response
	Err    error
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("pincode %s: %s", e.Code, e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *LookupError) ErrorCode() string {
	return e.Kind.Code()
}

// ErrorMessage returns the user-facing message.
func (e *LookupError) ErrorMessage() string {
	return e.Kind.Message()
}

var (
	// ErrNotFound is returned by a Directory for a well-formed but unknown pincode.
	ErrNotFound = errors.New("pincode not found")

	// ErrInvalidFormat is returned when a pincode is not six digits.
	ErrInvalidFormat = errors.New("pincode must be 6 digits")
)

// KindForStatus maps a lookup endpoint's HTTP status to a failure kind.
func KindForStatus(status int) Kind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest:
		return KindInvalidFormat
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindUnknown
	}
}

// Classify returns the failure kind for any lookup error.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var le *LookupError
	if errors.As(err, &le) {
		return le.Kind
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidFormat):
		return KindInvalidFormat
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	switch domain.ErrorCode(err) {
	case domain.ENOTFOUND:
		return KindNotFound
	case domain.EINVALID:
		return KindInvalidFormat
	case domain.ETIMEOUT:
		return KindTimeout
	}

	return KindUnknown
}
