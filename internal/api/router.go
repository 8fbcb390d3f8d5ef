package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcarden/authgate/internal/api/handler"
	apimiddleware "github.com/mcarden/authgate/internal/api/middleware"
	"github.com/mcarden/authgate/internal/api/response"
	"github.com/mcarden/authgate/internal/api/stream"
	"github.com/mcarden/authgate/internal/middleware"
	"github.com/mcarden/authgate/internal/services/identity"
	"github.com/mcarden/authgate/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Sessions *session.Service
	Revoker  identity.Revoker
	Hub      *stream.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	sessionHandler := handler.NewSessionHandler(cfg.Sessions, cfg.Revoker)
	profileHandler := handler.NewProfileHandler(cfg.Sessions)

	// Create middleware
	requireSession := apimiddleware.RequireSession(cfg.Sessions)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Session routes (state read and transition commands)
	api.HandleFunc("/session", sessionHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/session/login", sessionHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/session/register", sessionHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/session/logout", sessionHandler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/session/revoke", sessionHandler.Revoke).Methods(http.MethodPost)

	// State stream for the navigation layer
	if cfg.Hub != nil {
		api.HandleFunc("/session/events", func(w http.ResponseWriter, r *http.Request) {
			data, err := json.Marshal(response.StateFromSnapshot(cfg.Sessions.State()))
			if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			stream.ServeSSE(w, r, cfg.Hub, stream.FormatEvent("state", string(data)))
		}).Methods(http.MethodGet)
	}

	// Profile routes require an active session
	profile := api.PathPrefix("/profile").Subrouter()
	profile.Use(requireSession)
	profile.HandleFunc("", profileHandler.Get).Methods(http.MethodGet)
	profile.HandleFunc("", profileHandler.Update).Methods(http.MethodPatch)
	profile.HandleFunc("/reload", profileHandler.Reload).Methods(http.MethodPost)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
