package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/pinfill/internal/middleware"
	"github.com/dukerupert/pinfill/internal/pincode"
)

// PincodeHandler serves the location lookup the address forms call.
type PincodeHandler struct {
	directory pincode.Directory
}

// NewPincodeHandler creates a new pincode handler
func NewPincodeHandler(directory pincode.Directory) *PincodeHandler {
	return &PincodeHandler{directory: directory}
}

// Lookup handles GET /pincode/{code}
//
//	200 {"success":true,"data":{"city":...,"state":...}}
//	400 malformed code, 404 unknown code, 408 deadline, 503 directory down
func (h *PincodeHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	logger := middleware.GetLogger(r.Context())

	if !pincode.Valid(code) {
		writeJSON(w, http.StatusBadRequest, pincode.Envelope{Message: pincode.MessageInvalidFormat})
		return
	}

	loc, err := h.directory.Find(r.Context(), code)
	if err != nil {
		kind := pincode.Classify(err)
		status := ErrorCodeToHTTPStatus(kind.Code())
		if status >= 500 {
			logger.Error("pincode directory failed", slog.String("pincode", code), slog.Any("error", err))
		} else {
			logger.Debug("pincode lookup rejected", slog.String("pincode", code), slog.String("kind", kind.String()))
		}
		writeJSON(w, status, pincode.Envelope{Message: kind.Message()})
		return
	}

	writeJSON(w, http.StatusOK, pincode.Envelope{
		Success: true,
		Data:    &pincode.Location{PostalCode: code, City: loc.City, State: loc.State},
	})
}
