package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case State:
		o.printState(v)
	case Profile:
		o.printProfile(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Profile response type
type Profile struct {
	UserID    string         `json:"user_id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// State response type
type State struct {
	IsLoading   bool     `json:"is_loading"`
	IsLoggedIn  bool     `json:"is_logged_in"`
	User        *User    `json:"user"`
	UserProfile *Profile `json:"user_profile"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printState(s State) {
	switch {
	case s.IsLoading:
		fmt.Println("State: loading")
	case s.IsLoggedIn:
		fmt.Println("State: authenticated")
	default:
		fmt.Println("State: unauthenticated")
	}

	if s.User != nil {
		fmt.Printf("User: %s (%s)\n", s.User.Email, s.User.ID)
	}
	if s.UserProfile != nil {
		fmt.Printf("Name: %s %s\n", s.UserProfile.FirstName, s.UserProfile.LastName)
	}
}

func (o *Output) printProfile(p Profile) {
	fmt.Printf("Profile: %s\n", p.UserID)
	fmt.Printf("Email: %s\n", p.Email)
	fmt.Printf("Name: %s %s\n", p.FirstName, p.LastName)

	if len(p.Attrs) > 0 {
		keys := make([]string, 0, len(p.Attrs))
		for k := range p.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Println("Attributes:")
		for _, k := range keys {
			fmt.Printf("  %s: %v\n", k, p.Attrs[k])
		}
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
