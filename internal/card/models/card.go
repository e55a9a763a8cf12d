package models

import (
	"time"

	id "github.com/Coritp27/sysga-sub002/pkg/domain"
)

// Status is the off-chain card lifecycle state. The issuer mutates it outside
// this core; the verification core only reads it.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusSuspended Status = "SUSPENDED"
)

// IsValid checks the status against the closed lifecycle set.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusExpired, StatusSuspended:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// CardRecord is the off-chain, mutable, authoritative insurance-card entry.
type CardRecord struct {
	ID               id.CardID     `json:"id"`
	Number           id.CardNumber `json:"card_number"`
	InsuredPersonRef string        `json:"insured_person_ref"`
	PolicyRef        string        `json:"policy_ref"`
	Status           Status        `json:"status"`
	IssuedOn         time.Time     `json:"issued_on"`
	LastModified     time.Time     `json:"last_modified"`
}

// CardReference binds a CardRecord to the transaction that anchored it
// on-chain. A record without one is "unanchored", a legitimate pre-anchoring
// state. BlockchainTxHash is unique across all references.
type CardReference struct {
	CardID           id.CardID `json:"card_id"`
	OnChainID        uint64    `json:"on_chain_id"`
	BlockchainTxHash string    `json:"blockchain_tx_hash"`
	CreatedAt        time.Time `json:"created_at"`
}

// Contact carries the cardholder-controlled delivery addresses for the
// out-of-band challenge. Registered by the issuer; read-only here.
type Contact struct {
	CardNumber id.CardNumber `json:"card_number"`
	Email      string        `json:"email"`
	Phone      string        `json:"phone"`
}
