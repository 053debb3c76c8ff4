package model

import (
	"errors"
	"time"
)

// Storage keys. The durable store holds all three, the ephemeral store the
// first two.
const (
	KeyToken    = "auth_token"
	KeyIdentity = "auth_user"
	KeyExpiry   = "auth_token_expiry"
)

// User-visible login failure messages
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgLoginFailed        = "An error occurred during login. Please try again."
)

var (
	ErrNoSession      = errors.New("no active session")
	ErrSessionExpired = errors.New("session expired")
	ErrTokenMismatch  = errors.New("token does not belong to the active session")
)

// Durability selects where a session is persisted
type Durability int

const (
	// Ephemeral sessions live for the current process only
	Ephemeral Durability = iota
	// Durable sessions survive a restart and carry an expiry
	Durable
)

func (d Durability) String() string {
	if d == Durable {
		return "durable"
	}
	return "ephemeral"
}

// Session is replaced wholesale on login and destroyed on logout or expiry.
type Session struct {
	Identity   Identity   `json:"identity"`
	Token      string     `json:"-"`
	ExpiresAt  time.Time  `json:"expiresAt,omitempty"`
	Durability Durability `json:"-"`
}

// Expired reports whether the session has an expiry at or before now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// State is the snapshot exposed to the presentation layer
type State struct {
	Identity        *Identity `json:"identity"`
	IsAuthenticated bool      `json:"isAuthenticated"`
	IsLoading       bool      `json:"isLoading"`
	Error           string    `json:"error,omitempty"`
}
