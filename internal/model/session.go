package model

import "time"

// SessionStatus is the value passed to session status listeners.
type SessionStatus string

const (
	SessionHealthy   SessionStatus = "healthy"
	SessionUnhealthy SessionStatus = "unhealthy"
	SessionRecovered SessionStatus = "recovered"
)

// ReasonIdentityMismatch marks a probe that returned a principal other than
// the one recorded at startup. This is treated as a security event, not a
// transient failure.
const ReasonIdentityMismatch = "identity mismatch"

// SessionHealth is a read-only snapshot of the monitor state.
type SessionHealth struct {
	Healthy             bool      `json:"healthy"`
	LastCheckAt         time.Time `json:"last_check_at"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Principal           string    `json:"principal,omitempty"`
}
