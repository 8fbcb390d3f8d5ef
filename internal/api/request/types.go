package request

// LoginRequest is the body for POST /api/v1/session/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body for POST /api/v1/session/register
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UpdateProfileRequest is the body for PATCH /api/v1/profile.
// Absent fields are left untouched; attrs entries override individually.
type UpdateProfileRequest struct {
	Email     *string        `json:"email,omitempty"`
	FirstName *string        `json:"first_name,omitempty"`
	LastName  *string        `json:"last_name,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}
