package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Coritp27/sysga-sub002/internal/audit"
	cardmodels "github.com/Coritp27/sysga-sub002/internal/card/models"
	"github.com/Coritp27/sysga-sub002/internal/delivery"
	otpmetrics "github.com/Coritp27/sysga-sub002/internal/otp/metrics"
	"github.com/Coritp27/sysga-sub002/internal/otp/models"
	"github.com/Coritp27/sysga-sub002/internal/otp/store"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	dErrors "github.com/Coritp27/sysga-sub002/pkg/domain-errors"
	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
	"github.com/Coritp27/sysga-sub002/pkg/requestcontext"
)

// CardStore is the subset of the card store the challenge manager needs.
type CardStore interface {
	FindByNumber(ctx context.Context, number id.CardNumber) (*cardmodels.CardRecord, error)
	FindContact(ctx context.Context, number id.CardNumber) (*cardmodels.Contact, error)
}

// Dispatcher hands the challenge message to the delivery layer.
type Dispatcher interface {
	Dispatch(ctx context.Context, req delivery.Request) (*delivery.Receipt, error)
}

// Config carries the challenge policy knobs.
type Config struct {
	ChallengeTTL    time.Duration
	MaxAttempts     int
	ReissueCooldown time.Duration
}

// DefaultConfig returns the production policy: 5-minute codes, 3 attempts,
// 30-second re-issue cooldown for delivered challenges.
func DefaultConfig() Config {
	return Config{
		ChallengeTTL:    5 * time.Minute,
		MaxAttempts:     3,
		ReissueCooldown: 30 * time.Second,
	}
}

// MismatchError reports a wrong code, how many attempts remain, and whether
// this failure locked the challenge for good.
type MismatchError struct {
	Remaining int
	Locked    bool
}

// RemainingAttempts exposes the budget for response envelopes.
func (e *MismatchError) RemainingAttempts() (int, bool) {
	return e.Remaining, true
}

func (e *MismatchError) Error() string {
	if e.Locked {
		return "code mismatch: challenge locked"
	}
	return "code mismatch: " + strconv.Itoa(e.Remaining) + " attempts remaining"
}

// Service issues, verifies, and sweeps OTP challenges. All challenge mutation
// in the system goes through here; the store provides the row-level atomicity,
// the service provides the policy.
type Service struct {
	challenges store.Store
	cards      CardStore
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *otpmetrics.Metrics
	publisher  audit.Publisher
	config     Config
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *otpmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithConfig(cfg Config) Option {
	return func(s *Service) { s.config = cfg }
}

func New(challenges store.Store, cards CardStore, dispatcher Dispatcher, opts ...Option) (*Service, error) {
	if challenges == nil {
		return nil, errors.New("challenge store is required")
	}
	if cards == nil {
		return nil, errors.New("card store is required")
	}

	svc := &Service{
		challenges: challenges,
		cards:      cards,
		dispatcher: dispatcher,
		config:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Issue creates a fresh challenge for the (cardNumber, channel) pair,
// atomically superseding any prior one, and hands the code to the delivery
// layer. When every delivery attempt fails the challenge stays persisted and
// the returned error carries CodeDeliveryFailed so the caller can offer a
// retry.
func (s *Service) Issue(ctx context.Context, number id.CardNumber, channel models.Channel) (*models.Challenge, error) {
	now := requestcontext.Now(ctx)

	if _, err := s.cards.FindByNumber(ctx, number); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load card record")
	}

	contact, err := s.cards.FindContact(ctx, number)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no delivery address registered for card")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load card contact")
	}
	target := targetFor(contact, channel)
	if target == "" {
		return nil, dErrors.New(dErrors.CodeNotFound, "channel has no registered delivery address")
	}

	prior, err := s.challenges.Find(ctx, number, channel)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load prior challenge")
	}
	if prior != nil && prior.ActiveAt(now) {
		if prior.Delivered && now.Sub(prior.IssuedAt) < s.config.ReissueCooldown {
			return nil, dErrors.New(dErrors.CodeConflict, "a challenge was just issued for this card and channel")
		}
		audit.Log(ctx, s.logger, s.publisher, audit.EventChallengeSuperseded, audit.Event{
			CardNumber: number.String(),
			Channel:    channel.String(),
		})
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}

	challenge := models.Challenge{
		ID:          uuid.New(),
		CardNumber:  number,
		Channel:     channel,
		CodeHash:    HashCode(code),
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.config.ChallengeTTL),
		Attempts:    0,
		MaxAttempts: s.config.MaxAttempts,
	}

	// Replace-on-issue: a prior active challenge is superseded atomically and
	// can never be extended by re-issuing.
	if err := s.challenges.Replace(ctx, challenge); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist challenge")
	}
	s.metrics.IncrementIssued(channel.String())

	receipt, err := s.deliver(ctx, contact, channel, target, code)
	if err != nil {
		s.metrics.IncrementDeliveryFailure()
		audit.Log(ctx, s.logger, s.publisher, audit.EventDeliveryFailed, audit.Event{
			CardNumber: number.String(),
			Channel:    channel.String(),
			Reason:     err.Error(),
		})
		return &challenge, dErrors.Wrap(err, dErrors.CodeDeliveryFailed, "challenge delivery failed on all channels")
	}

	audit.Log(ctx, s.logger, s.publisher, audit.EventChallengeIssued, audit.Event{
		CardNumber: number.String(),
		Channel:    channel.String(),
		Decision:   "delivered_via_" + receipt.DeliveredVia.String(),
	})

	if err := s.challenges.MarkDelivered(ctx, challenge.ID); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to mark challenge delivered", "error", err)
	}
	challenge.Delivered = true
	return &challenge, nil
}

// Verify checks a submitted code against the current challenge for the pair.
// Success consumes the challenge exactly once; a replayed correct code fails
// with CodeAlreadyUsed. A mismatch burns one attempt and reports the rest
// through *MismatchError (wrapped with CodeMismatch).
func (s *Service) Verify(ctx context.Context, number id.CardNumber, channel models.Channel, submittedCode string) error {
	now := requestcontext.Now(ctx)

	challenge, err := s.challenges.Find(ctx, number, channel)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementVerify("not_found")
			return dErrors.New(dErrors.CodeNotFound, "no active challenge for this card and channel")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load challenge")
	}

	switch {
	case challenge.Used:
		s.metrics.IncrementVerify("already_used")
		return dErrors.New(dErrors.CodeAlreadyUsed, "challenge already used")
	case challenge.ExpiredAt(now):
		// Left in place for the sweep, but unusable.
		s.metrics.IncrementVerify("expired")
		return dErrors.New(dErrors.CodeExpired, "challenge expired, request a new verification")
	case challenge.Locked():
		s.metrics.IncrementVerify("locked")
		return dErrors.New(dErrors.CodeLocked, "challenge locked after too many attempts")
	}

	if CodeEqual(submittedCode, challenge.CodeHash) {
		if err := s.challenges.Consume(ctx, challenge.ID, now); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Raced a re-issue or a concurrent verify; the caller's view
				// of the challenge no longer exists.
				s.metrics.IncrementVerify("already_used")
				return dErrors.New(dErrors.CodeAlreadyUsed, "challenge superseded or already consumed")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume challenge")
		}
		s.metrics.IncrementVerify("success")
		audit.Log(ctx, s.logger, s.publisher, audit.EventChallengeVerified, audit.Event{
			CardNumber: number.String(),
			Channel:    channel.String(),
		})
		return nil
	}

	attempts, err := s.challenges.IncrementAttempts(ctx, challenge.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementVerify("already_used")
			return dErrors.New(dErrors.CodeAlreadyUsed, "challenge superseded or already consumed")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record attempt")
	}

	remaining := challenge.MaxAttempts - attempts
	if remaining < 0 {
		remaining = 0
	}
	mismatch := &MismatchError{Remaining: remaining, Locked: remaining == 0}

	s.metrics.IncrementVerify("mismatch")
	if mismatch.Locked {
		audit.Log(ctx, s.logger, s.publisher, audit.EventChallengeLocked, audit.Event{
			CardNumber: number.String(),
			Channel:    channel.String(),
			Reason:     "attempt budget exhausted",
		})
	} else {
		audit.Log(ctx, s.logger, s.publisher, audit.EventChallengeMismatch, audit.Event{
			CardNumber: number.String(),
			Channel:    channel.String(),
			Reason:     fmt.Sprintf("%d attempts remaining", remaining),
		})
	}
	return dErrors.Wrap(mismatch, dErrors.CodeMismatch, "submitted code does not match")
}

// Sweep removes used and expired challenges. Idempotent storage hygiene;
// correctness of issue/verify never depends on it.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	removed, err := s.challenges.Sweep(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "challenge sweep failed")
	}
	s.metrics.AddSwept(removed)
	if removed > 0 {
		audit.Log(ctx, s.logger, s.publisher, audit.EventSweepCompleted, audit.Event{
			Reason: fmt.Sprintf("%d challenges removed", removed),
		})
	}
	return removed, nil
}

func (s *Service) deliver(ctx context.Context, contact *cardmodels.Contact, channel models.Channel, target, code string) (*delivery.Receipt, error) {
	if s.dispatcher == nil {
		return nil, errors.New("no dispatcher configured")
	}

	minutes := int(s.config.ChallengeTTL.Minutes())
	req := delivery.Request{
		Primary:       kindFor(channel),
		PrimaryTarget: target,
		Message: delivery.Message{
			Subject: "Your card verification code",
			Body: fmt.Sprintf("Your insurance card verification code is %s. It expires in %d minutes. "+
				"If you did not request verification, ignore this message.", code, minutes),
		},
	}

	// The cardholder's other registered address serves as the fallback.
	if fallback, fallbackTarget := fallbackFor(contact, channel); fallbackTarget != "" {
		req.Fallback = fallback
		req.FallbackTarget = fallbackTarget
	}

	return s.dispatcher.Dispatch(ctx, req)
}

func targetFor(contact *cardmodels.Contact, channel models.Channel) string {
	switch channel {
	case models.ChannelSMS:
		return contact.Phone
	case models.ChannelEmail:
		return contact.Email
	}
	return ""
}

func fallbackFor(contact *cardmodels.Contact, channel models.Channel) (delivery.Kind, string) {
	switch channel {
	case models.ChannelSMS:
		return delivery.KindEmail, contact.Email
	case models.ChannelEmail:
		return delivery.KindSMS, contact.Phone
	}
	return "", ""
}

func kindFor(channel models.Channel) delivery.Kind {
	if channel == models.ChannelSMS {
		return delivery.KindSMS
	}
	return delivery.KindEmail
}
