package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/pinfill/internal/address"
	"github.com/dukerupert/pinfill/internal/domain"
	"github.com/dukerupert/pinfill/internal/events"
	"github.com/dukerupert/pinfill/internal/middleware"
	"github.com/dukerupert/pinfill/internal/session"
	"github.com/dukerupert/pinfill/internal/telemetry"
)

// AddressHandler accepts finalized addresses from the checkout form.
type AddressHandler struct {
	validator address.Validator
	sink      address.Sink
}

// NewAddressHandler creates a new address handler
func NewAddressHandler(validator address.Validator, sink address.Sink) *AddressHandler {
	return &AddressHandler{validator: validator, sink: sink}
}

// SubmitResponse is the 201 body of POST /addresses.
type SubmitResponse struct {
	Success  bool            `json:"success"`
	Address  address.Address `json:"address"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Submit handles POST /addresses
func (h *AddressHandler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "handler.Address.Submit"
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	var addr address.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, op, "Request body too large"))
			return
		}
		ErrorResponse(w, r, domain.Invalid(op, "Request body must be a JSON address"))
		return
	}
	addr.Country = address.Country

	result, err := h.validator.Validate(ctx, addr)
	if err != nil {
		h.record(addr.Type, "error")
		InternalErrorResponse(w, r, err)
		return
	}
	if !result.IsValid {
		h.record(addr.Type, "invalid")
		fields := result.Fields()
		if len(fields) == 0 {
			fields = map[string]string{"address": "Address is not valid"}
		}
		ValidationErrorResponse(w, r, domain.NewValidationError(op, fields))
		return
	}

	final := addr.Normalize()
	if result.NormalizedAddress != nil {
		final = *result.NormalizedAddress
	}

	sess := session.FromContext(ctx)
	if err := h.sink.SubmitAddress(events.WithPrincipal(ctx, sess.Principal), final); err != nil {
		h.record(final.Type, "error")
		ErrorResponse(w, r, err)
		return
	}
	h.record(final.Type, "submitted")

	logger.Info("address accepted",
		slog.String("type", final.Type),
		slog.String("pincode", final.PostalCode),
		slog.String("session_kind", string(sess.Kind)),
	)

	writeJSON(w, http.StatusCreated, SubmitResponse{
		Success:  true,
		Address:  final,
		Warnings: result.Warnings,
	})
}

func (h *AddressHandler) record(addressType, outcome string) {
	if addressType == "" {
		addressType = "unspecified"
	}
	if telemetry.Address != nil {
		telemetry.Address.AddressSubmissions.WithLabelValues(addressType, outcome).Inc()
	}
}
