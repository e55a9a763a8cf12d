// Package service sequences the end-to-end verification use case:
// authorization, challenge issuance, code verification, reconciliation, and
// response assembly, tracked per session.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Coritp27/sysga-sub002/internal/audit"
	otpmodels "github.com/Coritp27/sysga-sub002/internal/otp/models"
	otpservice "github.com/Coritp27/sysga-sub002/internal/otp/service"
	"github.com/Coritp27/sysga-sub002/internal/policy"
	"github.com/Coritp27/sysga-sub002/internal/reconcile"
	verifmetrics "github.com/Coritp27/sysga-sub002/internal/verification/metrics"
	"github.com/Coritp27/sysga-sub002/internal/verification/models"
	"github.com/Coritp27/sysga-sub002/internal/verification/store"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	dErrors "github.com/Coritp27/sysga-sub002/pkg/domain-errors"
	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
	"github.com/Coritp27/sysga-sub002/pkg/requestcontext"
)

// ChallengeManager is the OTP surface the orchestrator drives.
type ChallengeManager interface {
	Issue(ctx context.Context, number id.CardNumber, channel otpmodels.Channel) (*otpmodels.Challenge, error)
	Verify(ctx context.Context, number id.CardNumber, channel otpmodels.Channel, submittedCode string) error
	Sweep(ctx context.Context) (int, error)
}

// Reconciler renders a verdict for a card.
type Reconciler interface {
	Reconcile(ctx context.Context, number id.CardNumber) (*reconcile.Verdict, error)
}

// SweepReport summarizes one maintenance pass.
type SweepReport struct {
	ChallengesRemoved int `json:"challenges_removed"`
	SessionsRemoved   int `json:"sessions_removed"`
}

// Service is the verification orchestrator.
type Service struct {
	sessions   store.Store
	challenges ChallengeManager
	reconciler Reconciler
	logger     *slog.Logger
	metrics    *verifmetrics.Metrics
	publisher  audit.Publisher
	sessionTTL time.Duration
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *verifmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSessionTTL overrides the 15-minute default session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.sessionTTL = ttl }
}

func New(sessions store.Store, challenges ChallengeManager, reconciler Reconciler, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if challenges == nil {
		return nil, errors.New("challenge manager is required")
	}
	if reconciler == nil {
		return nil, errors.New("reconciler is required")
	}

	svc := &Service{
		sessions:   sessions,
		challenges: challenges,
		reconciler: reconciler,
		sessionTTL: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RequestVerification opens a session for the calling actor: authorizes the
// operation, issues a challenge, and returns the session id the code must be
// submitted against. A delivery failure leaves no session behind; the caller
// simply requests again.
func (s *Service) RequestVerification(ctx context.Context, number id.CardNumber, channel otpmodels.Channel) (id.SessionID, error) {
	now := requestcontext.Now(ctx)

	actor, err := s.authorize(ctx, policy.OpIssueChallenge, number)
	if err != nil {
		return id.SessionID{}, err
	}

	audit.Log(ctx, s.logger, s.publisher, audit.EventVerificationRequested, audit.Event{
		CardNumber: number.String(),
		Channel:    channel.String(),
	})

	if _, err := s.challenges.Issue(ctx, number, channel); err != nil {
		return id.SessionID{}, err
	}

	session := models.Session{
		ID:         id.NewSessionID(),
		CardNumber: number,
		Channel:    channel,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		State:      models.StateChallengeIssued,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return id.SessionID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist session")
	}
	s.metrics.IncrementStarted(string(actor.Role))
	return session.ID, nil
}

// SubmitCode verifies the submitted code and, on success, reconciles the card
// and assembles the role-appropriate result. A reconciliation outage leaves
// the session Verified so the same call can be retried without burning the
// code again; every OTP failure besides a non-final mismatch is terminal for
// the session.
func (s *Service) SubmitCode(ctx context.Context, sessionID id.SessionID, submittedCode string) (*models.VerificationResult, error) {
	now := requestcontext.Now(ctx)

	actor, err := s.authorize(ctx, policy.OpSubmitCode, id.CardNumber(""))
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown verification session")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if session.ActorID != actor.ID {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session belongs to another actor")
	}
	if session.ExpiredAt(now) {
		return nil, dErrors.New(dErrors.CodeExpired, "verification session expired, request a new one")
	}

	switch session.State {
	case models.StateCompleted:
		return nil, dErrors.New(dErrors.CodeAlreadyUsed, "session already completed")
	case models.StateFailed:
		return nil, dErrors.New(dErrors.CodeConflict, "session failed, request a new verification")
	case models.StateChallengeIssued:
		if err := s.verifyCode(ctx, session, submittedCode, now); err != nil {
			return nil, err
		}
	case models.StateVerified:
		// Retry path after an on-chain outage; the code is already spent.
	default:
		return nil, dErrors.New(dErrors.CodeConflict, "session is not accepting submissions")
	}

	return s.reconcileAndComplete(ctx, session, now)
}

// verifyCode runs the OTP check and advances the session to Verified. A
// mismatch with attempts left keeps the session open; everything else
// terminal-fails it.
func (s *Service) verifyCode(ctx context.Context, session *models.Session, submittedCode string, now time.Time) error {
	err := s.challenges.Verify(ctx, session.CardNumber, session.Channel, submittedCode)
	if err != nil {
		code := dErrors.CodeOf(err)
		switch code {
		case dErrors.CodeMismatch:
			var mismatch *otpservice.MismatchError
			if errors.As(err, &mismatch) && mismatch.Locked {
				s.failSession(ctx, session, now, string(dErrors.CodeLocked))
			}
			return err
		case dErrors.CodeLocked, dErrors.CodeExpired, dErrors.CodeAlreadyUsed, dErrors.CodeNotFound:
			s.failSession(ctx, session, now, string(code))
			return err
		default:
			return err
		}
	}

	session.State = models.StateVerified
	session.UpdatedAt = now
	if err := s.sessions.Update(ctx, *session, models.StateChallengeIssued); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "concurrent submission on this session")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to advance session")
	}
	return nil
}

func (s *Service) reconcileAndComplete(ctx context.Context, session *models.Session, now time.Time) (*models.VerificationResult, error) {
	verdict, err := s.reconciler.Reconcile(ctx, session.CardNumber)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeUnavailable {
			// Session stays Verified; the caller retries once the gateway
			// is back.
			return nil, err
		}
		return nil, err
	}

	if verdict.SecurityRelevant() {
		s.failSession(ctx, session, now, "security_drift")
		audit.Log(ctx, s.logger, s.publisher, audit.EventVerificationRefused, audit.Event{
			CardNumber: session.CardNumber.String(),
			SessionID:  session.ID.String(),
			Decision:   verdict.Kind.String(),
			Reason:     "security-relevant drift",
		})
		return nil, dErrors.New(dErrors.CodeUnauthorized, "card authenticity could not be established")
	}

	session.State = models.StateCompleted
	session.UpdatedAt = now
	if err := s.sessions.Update(ctx, *session, models.StateVerified); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "concurrent submission on this session")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete session")
	}

	s.metrics.IncrementCompleted(verdict.Kind.String())
	audit.Log(ctx, s.logger, s.publisher, audit.EventVerificationCompleted, audit.Event{
		CardNumber: session.CardNumber.String(),
		SessionID:  session.ID.String(),
		Decision:   verdict.Kind.String(),
	})

	return &models.VerificationResult{
		SessionID: session.ID,
		State:     models.StateCompleted,
		Verdict:   verdict.Kind.String(),
		Warnings:  warningsFor(verdict),
		Card:      buildView(session.ActorRole, verdict),
	}, nil
}

// InspectCard is the issuer's direct, OTP-free view: full card details with
// the live reconciliation verdict. Issuers are the manual-review audience, so
// security-relevant drift is disclosed to them rather than refused.
func (s *Service) InspectCard(ctx context.Context, number id.CardNumber) (*models.VerificationResult, error) {
	if _, err := s.authorize(ctx, policy.OpViewCardFull, number); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, policy.OpReconcile, number); err != nil {
		return nil, err
	}

	verdict, err := s.reconciler.Reconcile(ctx, number)
	if err != nil {
		return nil, err
	}

	warnings := warningsFor(verdict)
	if verdict.SecurityRelevant() {
		warnings = append(warnings, "security-relevant drift: manual review required")
	}
	return &models.VerificationResult{
		Verdict:  verdict.Kind.String(),
		Warnings: warnings,
		Card:     buildView(requestcontext.RoleIssuer, verdict),
	}, nil
}

// MaintenanceSweep purges dead challenges and expired sessions. Driven by an
// external scheduler; correctness never depends on when it runs.
func (s *Service) MaintenanceSweep(ctx context.Context) (*SweepReport, error) {
	challenges, err := s.challenges.Sweep(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.DeleteExpired(ctx, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "session sweep failed")
	}
	return &SweepReport{ChallengesRemoved: challenges, SessionsRemoved: sessions}, nil
}

func (s *Service) authorize(ctx context.Context, op policy.Operation, number id.CardNumber) (requestcontext.ActorInfo, error) {
	actor := requestcontext.Actor(ctx)
	if actor.ID == "" || !actor.Role.IsValid() {
		return requestcontext.ActorInfo{}, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	if policy.Authorize(actor.Role, op) != policy.Allowed {
		audit.Log(ctx, s.logger, s.publisher, audit.EventVerificationRefused, audit.Event{
			CardNumber: number.String(),
			Decision:   string(policy.Denied),
			Reason:     "operation " + op.String() + " not permitted for role " + string(actor.Role),
		})
		return requestcontext.ActorInfo{}, dErrors.New(dErrors.CodeUnauthorized, "operation not permitted for role")
	}
	return actor, nil
}

func (s *Service) failSession(ctx context.Context, session *models.Session, now time.Time, reason string) {
	session.State = models.StateFailed
	session.FailureCode = reason
	session.UpdatedAt = now
	// CAS from ChallengeIssued or Verified; a conflict means another writer
	// already settled the session.
	expected := models.StateChallengeIssued
	if err := s.sessions.Update(ctx, *session, expected); err != nil && errors.Is(err, sentinel.ErrConflict) {
		expected = models.StateVerified
		if err := s.sessions.Update(ctx, *session, expected); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to mark session failed", "session_id", session.ID.String(), "error", err)
		}
	}
	s.metrics.IncrementFailed(reason)
	audit.Log(ctx, s.logger, s.publisher, audit.EventVerificationFailed, audit.Event{
		CardNumber: session.CardNumber.String(),
		SessionID:  session.ID.String(),
		Reason:     reason,
	})
}
