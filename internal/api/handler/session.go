package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcarden/authgate/internal/api/request"
	"github.com/mcarden/authgate/internal/api/response"
	"github.com/mcarden/authgate/internal/services/identity"
	"github.com/mcarden/authgate/internal/services/session"
)

// SessionHandler handles auth-state and session command endpoints
type SessionHandler struct {
	sessions *session.Service
	revoker  identity.Revoker
}

// NewSessionHandler creates a new session handler. revoker may be nil when
// the wired identity provider has no out-of-band revocation hook.
func NewSessionHandler(sessions *session.Service, revoker identity.Revoker) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		revoker:  revoker,
	}
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.StateFromSnapshot(h.sessions.State()))
}

// Login handles POST /api/v1/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Email == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	if err := h.sessions.Login(r.Context(), req.Email, req.Password); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StateFromSnapshot(h.sessions.State()))
}

// Register handles POST /api/v1/session/register
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Email == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	if err := h.sessions.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.StateFromSnapshot(h.sessions.State()))
}

// Logout handles POST /api/v1/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		// Local state is already cleared; report the remote failure
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StateFromSnapshot(h.sessions.State()))
}

// Revoke handles POST /api/v1/session/revoke
func (h *SessionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	if h.revoker == nil {
		WriteError(w, NewInvalidRequestError("revocation not supported by the identity provider"))
		return
	}

	h.revoker.Revoke()
	response.JSON(w, http.StatusOK, response.StateFromSnapshot(h.sessions.State()))
}
