package domain

import (
	"fmt"
	"strings"
)

// CardNumber is the issuer-assigned card identifier shared by the off-chain
// record and the on-chain snapshot. It is the join key for reconciliation, so
// it is validated once at the edge and passed around as a typed value.
type CardNumber string

const (
	cardNumberMinLen = 6
	cardNumberMaxLen = 32
)

// ParseCardNumber trims and validates a raw card number. Card numbers are
// upper-case alphanumeric; anything else is rejected before it can reach a
// store query or a challenge key.
func ParseCardNumber(s string) (CardNumber, error) {
	s = strings.TrimSpace(s)
	if len(s) < cardNumberMinLen || len(s) > cardNumberMaxLen {
		return "", fmt.Errorf("card number must be %d-%d characters", cardNumberMinLen, cardNumberMaxLen)
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("card number contains invalid character %q", r)
		}
	}
	return CardNumber(s), nil
}

func (n CardNumber) String() string { return string(n) }

func (n CardNumber) IsNil() bool { return n == "" }
