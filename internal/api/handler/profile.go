package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcarden/authgate/internal/api/request"
	"github.com/mcarden/authgate/internal/api/response"
	"github.com/mcarden/authgate/internal/model"
	"github.com/mcarden/authgate/internal/services/session"
)

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	sessions *session.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(sessions *session.Service) *ProfileHandler {
	return &ProfileHandler{
		sessions: sessions,
	}
}

// Get handles GET /api/v1/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.sessions.State()
	if snap.Profile == nil {
		WriteError(w, model.ErrProfileNotFound)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(snap.Profile))
}

// Update handles PATCH /api/v1/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	patch := model.ProfilePatch{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Attrs:     req.Attrs,
	}

	if err := h.sessions.UpdateProfile(r.Context(), patch); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(h.sessions.State().Profile))
}

// Reload handles POST /api/v1/profile/reload
func (h *ProfileHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.ReloadProfile(r.Context()); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(h.sessions.State().Profile))
}
