package middleware

import (
	"net/http"

	"github.com/mcarden/authgate/internal/api/apierr"
	"github.com/mcarden/authgate/internal/services/session"
)

// RequireSession rejects requests while no authenticated session is held.
// The daemon serves a single reconciled session, so this gates on state
// rather than per-request credentials.
func RequireSession(sessions *session.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessions.State().IsLoggedIn() {
				apierr.WriteError(w, apierr.NewNoSessionError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
