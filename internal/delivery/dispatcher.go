package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("sysga/delivery")

const (
	defaultMaxAttempts       = 3
	defaultBackoffBase       = 250 * time.Millisecond
	defaultPerAttemptTimeout = 15 * time.Second
)

// Request asks the dispatcher to deliver one message. The primary channel is
// tried first with retries; when a fallback kind and target are present, the
// fallback gets a single attempt after the primary is exhausted.
type Request struct {
	Primary        Kind
	PrimaryTarget  string
	Fallback       Kind
	FallbackTarget string
	Message        Message
}

// Attempt records one send try for the failure report.
type Attempt struct {
	Channel Kind   `json:"channel"`
	Reason  string `json:"reason"`
}

// Receipt reports the outcome of a dispatch.
type Receipt struct {
	DeliveredVia Kind      `json:"delivered_via,omitempty"`
	Attempts     []Attempt `json:"attempts,omitempty"`
}

// ExhaustedError carries the ordered per-channel failure reasons after every
// attempt failed.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	reasons := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		reasons = append(reasons, fmt.Sprintf("%s: %s", a.Channel, a.Reason))
	}
	return "delivery exhausted: " + strings.Join(reasons, "; ")
}

// Dispatcher orders and retries across registered channels. Safe for
// concurrent use; all state is per-call.
type Dispatcher struct {
	channels          map[Kind]Channel
	maxAttempts       int
	backoffBase       time.Duration
	perAttemptTimeout time.Duration
	logger            *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithMaxAttempts bounds retries per channel.
func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) { d.maxAttempts = n }
}

// WithBackoffBase sets the first retry delay; each retry doubles it.
func WithBackoffBase(base time.Duration) Option {
	return func(d *Dispatcher) { d.backoffBase = base }
}

// WithPerAttemptTimeout bounds a single send.
func WithPerAttemptTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.perAttemptTimeout = timeout }
}

func NewDispatcher(channels []Channel, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		channels:          make(map[Kind]Channel, len(channels)),
		maxAttempts:       defaultMaxAttempts,
		backoffBase:       defaultBackoffBase,
		perAttemptTimeout: defaultPerAttemptTimeout,
	}
	for _, ch := range channels {
		d.channels[ch.Kind()] = ch
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch tries the primary channel with bounded retries and increasing
// backoff, then the fallback once. Business rejections (ErrInvalidTarget) stop
// retries on that channel immediately. On total failure the returned error is
// an *ExhaustedError listing every attempt in order.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Receipt, error) {
	ctx, span := tracer.Start(ctx, "delivery.Dispatch",
		trace.WithAttributes(attribute.String("delivery.primary", req.Primary.String())))
	defer span.End()

	receipt := &Receipt{}

	if via, ok := d.try(ctx, req.Primary, req.PrimaryTarget, req.Message, d.maxAttempts, receipt); ok {
		receipt.DeliveredVia = via
		return receipt, nil
	}

	if req.Fallback != "" && req.FallbackTarget != "" {
		if via, ok := d.try(ctx, req.Fallback, req.FallbackTarget, req.Message, 1, receipt); ok {
			receipt.DeliveredVia = via
			return receipt, nil
		}
	}

	return receipt, &ExhaustedError{Attempts: receipt.Attempts}
}

func (d *Dispatcher) try(ctx context.Context, kind Kind, target string, msg Message, attempts int, receipt *Receipt) (Kind, bool) {
	channel, ok := d.channels[kind]
	if !ok {
		receipt.Attempts = append(receipt.Attempts, Attempt{Channel: kind, Reason: "channel not configured"})
		return "", false
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := d.backoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				receipt.Attempts = append(receipt.Attempts, Attempt{Channel: kind, Reason: ctx.Err().Error()})
				return "", false
			case <-time.After(backoff):
			}
		}

		err := d.sendOnce(ctx, channel, target, msg)
		if err == nil {
			return kind, true
		}

		receipt.Attempts = append(receipt.Attempts, Attempt{Channel: kind, Reason: err.Error()})
		if d.logger != nil {
			d.logger.WarnContext(ctx, "delivery attempt failed",
				"channel", kind.String(),
				"attempt", attempt+1,
				"error", err,
			)
		}

		// Business rejections repeat deterministically; stop burning attempts.
		if errors.Is(err, ErrInvalidTarget) {
			return "", false
		}
	}
	return "", false
}

func (d *Dispatcher) sendOnce(ctx context.Context, channel Channel, target string, msg Message) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.perAttemptTimeout)
	defer cancel()
	return channel.Send(sendCtx, target, msg)
}
