// Package delivery models the out-of-band channels that carry OTP codes to the
// cardholder, and the dispatcher that orders retries and fallback across them.
// The dispatcher holds no persisted state; its only side effect is the message
// leaving the building.
package delivery

import (
	"context"
	"errors"
)

// Kind names a delivery channel.
type Kind string

const (
	KindSMS   Kind = "SMS"
	KindEmail Kind = "EMAIL"
)

func (k Kind) String() string { return string(k) }

// Message is the payload handed to a channel. The body already contains the
// code; channels must not log it.
type Message struct {
	Subject string
	Body    string
}

// ErrInvalidTarget marks a business rejection (malformed number, unknown
// address). Unlike transport failures, these are never retried: the same input
// fails the same way every time.
var ErrInvalidTarget = errors.New("invalid delivery target")

// Channel is one concrete sender. Implementations return nil on acceptance by
// the provider, ErrInvalidTarget (possibly wrapped) on business rejection, and
// any other error for transport failure.
type Channel interface {
	Kind() Kind
	Send(ctx context.Context, target string, msg Message) error
}
