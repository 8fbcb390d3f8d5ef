package model

// Status is the reconciled auth tri-state. Exactly one status holds at any
// observation point; transitions are driven only by the reconciliation core.
type Status string

const (
	// StatusInitializing is the only initial state, entered once at process
	// start and never re-entered.
	StatusInitializing Status = "initializing"

	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// Snapshot is the externally observable auth state
type Snapshot struct {
	Status  Status
	User    *User
	Profile *Profile
}

// IsLoading reports whether the first identity notification has not yet arrived
func (s Snapshot) IsLoading() bool {
	return s.Status == StatusInitializing
}

// IsLoggedIn reports whether an authenticated session is held
func (s Snapshot) IsLoggedIn() bool {
	return s.Status == StatusAuthenticated
}
