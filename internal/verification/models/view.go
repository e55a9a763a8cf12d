package models

import (
	"time"

	id "github.com/Coritp27/sysga-sub002/pkg/domain"
)

// CardView is the role-appropriate disclosure of a card. Verifiers get the
// base fields only; issuer-only fields stay empty and are omitted from the
// payload.
type CardView struct {
	CardNumber string    `json:"card_number"`
	Status     string    `json:"status"`
	IssuedOn   time.Time `json:"issued_on"`

	InsuredPersonRef string     `json:"insured_person_ref,omitempty"`
	PolicyRef        string     `json:"policy_ref,omitempty"`
	LastModified     *time.Time `json:"last_modified,omitempty"`
	BlockchainTxHash string     `json:"blockchain_tx_hash,omitempty"`
	OnChainID        *uint64    `json:"on_chain_id,omitempty"`
}

// VerificationResult is what a completed code submission returns: the
// reconciliation verdict, any warnings worth surfacing, and the card view the
// actor's role permits.
type VerificationResult struct {
	SessionID id.SessionID `json:"session_id"`
	State     State        `json:"state"`
	Verdict   string       `json:"verdict"`
	Warnings  []string     `json:"warnings,omitempty"`
	Card      *CardView    `json:"card,omitempty"`
}
