package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminSession is everything the review console holds for one logged-in tab.
// Deleting the record clears all of it at once.
type AdminSession struct {
	ID             string                       `json:"id"`
	Token          string                       `json:"token"`
	SealedPassword []byte                       `json:"sealed_password"`
	Pending        []PendingSubmission          `json:"pending"`
	VlogCache      map[SubmissionID]VlogContent `json:"vlog_cache"`
	Expanded       map[SubmissionID]bool        `json:"expanded"`
	Confirm        *DecisionIntent              `json:"confirm,omitempty"`
	CreatedAt      time.Time                    `json:"created_at"`
	UpdatedAt      time.Time                    `json:"updated_at"`
}

// EnsureMaps initialises nil maps after decoding or construction.
func (s *AdminSession) EnsureMaps() {
	if s.VlogCache == nil {
		s.VlogCache = make(map[SubmissionID]VlogContent)
	}
	if s.Expanded == nil {
		s.Expanded = make(map[SubmissionID]bool)
	}
}

// FindPending returns the pending row with the given id.
func (s *AdminSession) FindPending(id SubmissionID) (PendingSubmission, bool) {
	for _, sub := range s.Pending {
		if sub.SubmissionID == id {
			return sub, true
		}
	}
	return PendingSubmission{}, false
}

// SessionClaims is the payload of the handle given to the browser.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// LoginRequest holds the admin password.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the session handle.
type LoginResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionStatus reports whether a stored handle is still usable.
type SessionStatus struct {
	Authenticated bool `json:"authenticated"`
}
