package audit

import (
	"time"
)

// Event is emitted from domain logic to capture key verification actions.
// Keep it transport-agnostic so stores and sinks can fan out. The card number
// is the subject key; OTP codes never appear here.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	CardNumber string    `json:"card_number,omitempty"`
	Channel    string    `json:"channel,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	ActorRole  string    `json:"actor_role,omitempty"`
	Decision   string    `json:"decision,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}

// AuditEvent names the actions the core records.
type AuditEvent string

const (
	// Challenge lifecycle
	EventChallengeIssued     AuditEvent = "challenge_issued"
	EventChallengeVerified   AuditEvent = "challenge_verified"
	EventChallengeMismatch   AuditEvent = "challenge_mismatch"
	EventChallengeLocked     AuditEvent = "challenge_locked"
	EventChallengeSuperseded AuditEvent = "challenge_superseded"
	EventDeliveryFailed      AuditEvent = "delivery_failed"

	// Verification sessions
	EventVerificationRequested AuditEvent = "verification_requested"
	EventVerificationCompleted AuditEvent = "verification_completed"
	EventVerificationRefused   AuditEvent = "verification_refused"
	EventVerificationFailed    AuditEvent = "verification_failed"

	// Reconciliation
	EventDriftDetected AuditEvent = "drift_detected"

	// Maintenance
	EventSweepCompleted AuditEvent = "sweep_completed"
)
