package models

import (
	"time"

	"github.com/google/uuid"

	id "github.com/Coritp27/sysga-sub002/pkg/domain"
)

// Channel is the out-of-band delivery channel for a challenge.
type Channel string

const (
	ChannelSMS   Channel = "SMS"
	ChannelEmail Channel = "EMAIL"
)

// IsValid checks the channel against the closed channel set.
func (c Channel) IsValid() bool {
	return c == ChannelSMS || c == ChannelEmail
}

func (c Channel) String() string { return string(c) }

// ParseChannel validates a raw channel string.
func ParseChannel(s string) (Channel, bool) {
	c := Channel(s)
	return c, c.IsValid()
}

// Challenge is a one-time-passcode challenge for a (cardNumber, channel) pair.
// The stored secret is a sha256 hash of the code; the clear code exists only in
// the delivery message. At most one challenge row exists per pair: issuing a
// new one replaces the prior row atomically.
type Challenge struct {
	ID          uuid.UUID     `json:"id"`
	CardNumber  id.CardNumber `json:"card_number"`
	Channel     Channel       `json:"channel"`
	CodeHash    string        `json:"-"`
	IssuedAt    time.Time     `json:"issued_at"`
	ExpiresAt   time.Time     `json:"expires_at"`
	Attempts    int           `json:"attempts"`
	MaxAttempts int           `json:"max_attempts"`
	Used        bool          `json:"used"`
	Delivered   bool          `json:"delivered"`
}

// ExpiredAt reports whether the challenge has passed its deadline at the given
// instant. Expired challenges are left in place for the sweep but are unusable.
func (c *Challenge) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Locked reports whether the attempt budget is exhausted. A locked challenge
// is permanently unusable even before it expires.
func (c *Challenge) Locked() bool {
	return c.Attempts >= c.MaxAttempts
}

// ActiveAt reports whether the challenge can still be verified at the given
// instant: not used, not locked, not expired.
func (c *Challenge) ActiveAt(now time.Time) bool {
	return !c.Used && !c.Locked() && !c.ExpiredAt(now)
}

// RemainingAttempts returns how many verify attempts are left.
func (c *Challenge) RemainingAttempts() int {
	if remaining := c.MaxAttempts - c.Attempts; remaining > 0 {
		return remaining
	}
	return 0
}
