// Package policy decides which operations each actor role may perform. It is
// a pure decision table with no transport or storage dependencies; every
// (role, operation) pair maps to an explicit decision and anything outside the
// table is denied.
package policy

import (
	"github.com/Coritp27/sysga-sub002/pkg/requestcontext"
)

// Operation names one action an actor can attempt against the core.
type Operation string

const (
	OpIssueChallenge     Operation = "issue_challenge"
	OpSubmitCode         Operation = "submit_code"
	OpViewCardFull       Operation = "view_card_full"
	OpViewCardRestricted Operation = "view_card_restricted"
	OpReconcile          Operation = "reconcile"
	OpSweep              Operation = "sweep"
)

func (o Operation) String() string { return string(o) }

// Decision is the outcome of an authorization check.
type Decision string

const (
	Allowed Decision = "ALLOWED"
	Denied  Decision = "DENIED"
)

// AllOperations lists every operation the table covers, for totality checks.
func AllOperations() []Operation {
	return []Operation{
		OpIssueChallenge,
		OpSubmitCode,
		OpViewCardFull,
		OpViewCardRestricted,
		OpReconcile,
		OpSweep,
	}
}

// Issuers see full card details without an OTP and may run reconciliation
// directly. Verifiers go through the challenge flow and only ever see the
// restricted view; their reconciliation happens inside code submission, not
// as a standalone operation. The sweep belongs to the scheduler, not to any
// actor role.
var table = map[requestcontext.ActorRole]map[Operation]Decision{
	requestcontext.RoleIssuer: {
		OpIssueChallenge:     Allowed,
		OpSubmitCode:         Allowed,
		OpViewCardFull:       Allowed,
		OpViewCardRestricted: Allowed,
		OpReconcile:          Allowed,
		OpSweep:              Denied,
	},
	requestcontext.RoleVerifier: {
		OpIssueChallenge:     Allowed,
		OpSubmitCode:         Allowed,
		OpViewCardFull:       Denied,
		OpViewCardRestricted: Allowed,
		OpReconcile:          Denied,
		OpSweep:              Denied,
	},
}

// Authorize returns the table's decision for the pair. Unknown roles and
// unknown operations are denied; there is no default-allow path.
func Authorize(role requestcontext.ActorRole, op Operation) Decision {
	ops, ok := table[role]
	if !ok {
		return Denied
	}
	decision, ok := ops[op]
	if !ok {
		return Denied
	}
	return decision
}
