// internal/model/session.go
package model

import "time"

// Identity is what the sign-in provider tells us about a visitor.
type Identity struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type Session struct {
	User      Identity  `json:"user"`
	Provider  string    `json:"provider,omitempty"`
	ExpiresAt time.Time `json:"expires"`
}

type SessionStatus string

const (
	StatusLoading         SessionStatus = "loading"
	StatusAuthenticated   SessionStatus = "authenticated"
	StatusUnauthenticated SessionStatus = "unauthenticated"
)

// StatusOf maps an optional session to the tri-state status the views branch on.
func StatusOf(s *Session) SessionStatus {
	if s == nil {
		return StatusUnauthenticated
	}
	return StatusAuthenticated
}
