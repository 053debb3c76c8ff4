package model

import "strings"

// Role of an authenticated operator
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Identity is the signed-in operator. It never carries the secret.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Valid reports whether the identity is complete enough to be trusted after
// being read back from storage.
func (i *Identity) Valid() bool {
	return i != nil && i.ID > 0 && strings.TrimSpace(i.Email) != "" && i.Role.Valid()
}

// IsAdmin reports whether the identity holds the admin role
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
