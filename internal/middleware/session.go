package middleware

import (
	"net/http"

	"github.com/dukerupert/pinfill/internal/domain"
	"github.com/dukerupert/pinfill/internal/session"
)

// WithSession loads the session from store and puts it in the request
// context. Requests without a valid session continue as anonymous.
func WithSession(store session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := store.Load(r)
			next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), sess)))
		})
	}
}

// RequireKind rejects requests whose session is not one of kinds.
// Anonymous visitors get 401, signed-in visitors of another kind get 403.
func RequireKind(kinds ...session.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			if sess.IsAnonymous() {
				respondWithError(w, r, domain.Unauthorized("middleware.RequireKind", "Sign in to continue"))
				return
			}
			for _, k := range kinds {
				if sess.Kind == k {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondWithError(w, r, domain.Forbidden("middleware.RequireKind", "You don't have permission to access this resource"))
		})
	}
}
