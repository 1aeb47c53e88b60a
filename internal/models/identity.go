package models

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// Identity is the authenticated caller, resolved from the bearer token.
type Identity struct {
	ID    string   `json:"id"` // uuid from supabase auth
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
