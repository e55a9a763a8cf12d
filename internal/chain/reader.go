// Package chain gives the core read-only access to the immutable on-chain card
// state. The contract itself, its deployment, and all on-chain writes live in
// external tooling; this package only consumes an already-deployed read
// surface through a gateway.
package chain

import (
	"context"
	"time"

	"github.com/Coritp27/sysga-sub002/internal/card/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
)

// OnChainCard is the immutable snapshot recorded at issuance time. Never
// mutated here; status is whatever the issuer wrote at anchoring.
type OnChainCard struct {
	ID                      uint64        `json:"id"`
	CardNumber              id.CardNumber `json:"card_number"`
	IssuedOn                time.Time     `json:"issued_on"`
	Status                  models.Status `json:"status"`
	InsuranceCompanyAddress string        `json:"insurance_company_address"`
}

// Reader is the read-only on-chain accessor. Implementations must be
// idempotent and side-effect-free; GetCard returns sentinel.ErrNotFound when
// no card exists at the given on-chain id, and sentinel.ErrUnavailable when
// the gateway is unreachable after bounded retries.
type Reader interface {
	GetCard(ctx context.Context, onChainID uint64) (*OnChainCard, error)
}
