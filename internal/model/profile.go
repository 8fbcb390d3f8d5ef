package model

// Profile is the durable per-user application document, distinct from
// identity/credentials. Attrs is an open set of application-defined fields.
type Profile struct {
	UserID    UserID         `json:"user_id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// NewEmptyProfile constructs the default profile shape created exactly once
// at registration, seeded with the supplied names and email.
func NewEmptyProfile(id UserID, email, firstName, lastName string) *Profile {
	return &Profile{
		UserID:    id,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Attrs:     make(map[string]any),
	}
}

// ProfilePatch is a partial profile update. Nil pointer fields are left
// untouched; Attrs entries override individually.
type ProfilePatch struct {
	Email     *string        `json:"email,omitempty"`
	FirstName *string        `json:"first_name,omitempty"`
	LastName  *string        `json:"last_name,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// Apply merges the patch into the profile. The merge is a shallow field-level
// override: each supplied field replaces the existing value wholesale.
func (p *Profile) Apply(patch ProfilePatch) {
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.FirstName != nil {
		p.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		p.LastName = *patch.LastName
	}
	if len(patch.Attrs) > 0 && p.Attrs == nil {
		p.Attrs = make(map[string]any, len(patch.Attrs))
	}
	for k, v := range patch.Attrs {
		p.Attrs[k] = v
	}
}

// Clone returns a copy of the profile with its own Attrs map, so optimistic
// local merges never alias a copy handed out to readers.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	if p.Attrs != nil {
		out.Attrs = make(map[string]any, len(p.Attrs))
		for k, v := range p.Attrs {
			out.Attrs[k] = v
		}
	}
	return &out
}
