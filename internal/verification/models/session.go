package models

import (
	"time"

	otpmodels "github.com/Coritp27/sysga-sub002/internal/otp/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	"github.com/Coritp27/sysga-sub002/pkg/requestcontext"
)

// State is one step of a verification session's lifecycle:
// Requested → ChallengeIssued → Verified → Completed, with Failed reachable
// from any non-terminal step. A Verified session that cannot reconcile stays
// Verified so the submission can be retried once the gateway recovers.
type State string

const (
	StateRequested       State = "REQUESTED"
	StateChallengeIssued State = "CHALLENGE_ISSUED"
	StateVerified        State = "VERIFIED"
	StateCompleted       State = "COMPLETED"
	StateFailed          State = "FAILED"
)

// Terminal states accept no further submissions; the caller starts over with
// a fresh request.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

var transitions = map[State][]State{
	StateRequested:       {StateChallengeIssued, StateFailed},
	StateChallengeIssued: {StateVerified, StateFailed},
	StateVerified:        {StateCompleted, StateFailed},
}

// CanTransition reports whether the lifecycle permits moving from one state
// to another.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Session tracks one end-to-end verification attempt. Sessions are bound to
// the actor that opened them; nobody else can submit against them.
type Session struct {
	ID          id.SessionID             `json:"id"`
	CardNumber  id.CardNumber            `json:"card_number"`
	Channel     otpmodels.Channel        `json:"channel"`
	ActorID     string                   `json:"actor_id"`
	ActorRole   requestcontext.ActorRole `json:"actor_role"`
	State       State                    `json:"state"`
	FailureCode string                   `json:"failure_code,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	ExpiresAt   time.Time                `json:"expires_at"`
}

// ExpiredAt reports whether the session's own lifetime has run out. Distinct
// from challenge expiry: the challenge is a 5-minute secret, the session is
// the surrounding conversation.
func (s *Session) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
