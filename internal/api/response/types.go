package response

import (
	"github.com/mcarden/authgate/internal/model"
)

// User represents the minimal session record in API responses
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:    string(u.ID),
		Email: u.Email,
	}
}

// Profile represents a profile document in API responses
type Profile struct {
	UserID    string         `json:"user_id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// ProfileFromModel converts a model.Profile to a response Profile
func ProfileFromModel(p *model.Profile) *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		UserID:    string(p.UserID),
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Attrs:     p.Attrs,
	}
}

// State is the reconciled auth state exposed to the UI layer
type State struct {
	IsLoading   bool     `json:"is_loading"`
	IsLoggedIn  bool     `json:"is_logged_in"`
	User        *User    `json:"user"`
	UserProfile *Profile `json:"user_profile"`
}

// StateFromSnapshot converts a model.Snapshot to a response State
func StateFromSnapshot(snap model.Snapshot) State {
	return State{
		IsLoading:   snap.IsLoading(),
		IsLoggedIn:  snap.IsLoggedIn(),
		User:        UserFromModel(snap.User),
		UserProfile: ProfileFromModel(snap.Profile),
	}
}
