// Package domain holds shared domain primitives: typed identifiers and the
// CardNumber value object. Primitives validate at parse time so downstream
// code can trust them.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// SessionID identifies a verification session.
type SessionID uuid.UUID

// NewSessionID returns a fresh random session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// ParseSessionID validates and returns a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, fmt.Errorf("invalid session id: %w", err)
	}
	return SessionID(u), nil
}

func (id SessionID) String() string { return uuid.UUID(id).String() }

// MarshalText renders the canonical UUID form, so JSON carries a string
// rather than a byte array.
func (id SessionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *SessionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSessionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// IsNil returns true when the session ID is the zero value.
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// CardID identifies a card record in the issuer's store.
type CardID uuid.UUID

func NewCardID() CardID { return CardID(uuid.New()) }

// ParseCardID validates and returns a CardID.
func ParseCardID(s string) (CardID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CardID{}, fmt.Errorf("invalid card id: %w", err)
	}
	return CardID(u), nil
}

func (id CardID) String() string { return uuid.UUID(id).String() }

func (id CardID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *CardID) UnmarshalText(b []byte) error {
	parsed, err := ParseCardID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id CardID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
