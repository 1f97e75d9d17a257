package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/pinfill/internal/domain"
	"github.com/dukerupert/pinfill/internal/middleware"
	"github.com/dukerupert/pinfill/internal/session"
)

// SessionHandler exposes the visitor's single session slot.
type SessionHandler struct {
	store session.Store
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(store session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// Show handles GET /session
func (h *SessionHandler) Show(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, session.FromContext(r.Context()))
}

// Destroy handles DELETE /session
func (h *SessionHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	h.store.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// DevSignIn handles POST /dev/session.
// It signs in as any kind without credentials, so it is only routed when
// ENV=dev. NEVER enable in production!
func (h *SessionHandler) DevSignIn(w http.ResponseWriter, r *http.Request) {
	const op = "handler.Session.DevSignIn"

	var req struct {
		Kind      session.Kind `json:"kind"`
		Principal string       `json:"principal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, domain.Invalid(op, "Request body must be JSON"))
		return
	}

	sess, err := session.New(req.Kind, req.Principal)
	if err != nil {
		ErrorResponse(w, r, domain.Invalid(op, err.Error()))
		return
	}
	if err := h.store.Save(w, sess); err != nil {
		InternalErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Warn("dev session issued",
		slog.String("session_kind", string(sess.Kind)),
		slog.String("principal", sess.Principal),
	)
	writeJSON(w, http.StatusOK, sess)
}
