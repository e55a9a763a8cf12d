// Package reconcile merges the issuer's off-chain card record with the
// immutable on-chain snapshot and classifies their agreement. The engine is
// read-only: it never mutates either side, it only renders a verdict.
package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/Coritp27/sysga-sub002/internal/audit"
	cardmodels "github.com/Coritp27/sysga-sub002/internal/card/models"
	"github.com/Coritp27/sysga-sub002/internal/chain"
	recmetrics "github.com/Coritp27/sysga-sub002/internal/reconcile/metrics"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	dErrors "github.com/Coritp27/sysga-sub002/pkg/domain-errors"
	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
)

var tracer = otel.Tracer("sysga/reconcile")

// VerdictKind classifies the agreement between the two stores.
type VerdictKind string

const (
	// VerdictConsistent means both snapshots agree on every compared field.
	VerdictConsistent VerdictKind = "CONSISTENT"
	// VerdictKnownDrift means every disagreement matches an allowlisted
	// lifecycle divergence, such as an off-chain suspension that is never
	// mirrored on-chain.
	VerdictKnownDrift VerdictKind = "CONSISTENT_WITH_KNOWN_DRIFT"
	// VerdictDrift means at least one disagreement is outside the allowlist.
	// Both snapshots are carried on the verdict for manual review; the engine
	// never adjudicates which side wins.
	VerdictDrift VerdictKind = "DRIFT"
	// VerdictUnanchored means the card has no on-chain reference yet. A
	// legitimate pre-anchoring state, not a drift.
	VerdictUnanchored VerdictKind = "UNANCHORED"
)

func (k VerdictKind) String() string { return string(k) }

// FieldDrift is one disagreement between the snapshots. SecurityRelevant
// drifts question the card's authenticity and can never be allowlisted.
type FieldDrift struct {
	Field            string `json:"field"`
	OffChain         string `json:"off_chain"`
	OnChain          string `json:"on_chain"`
	SecurityRelevant bool   `json:"security_relevant"`
}

// Verdict is the read-only outcome of one reconciliation run. OnChain is nil
// for Unanchored verdicts and for drifts where the referenced on-chain card
// does not exist.
type Verdict struct {
	Kind       VerdictKind
	CardNumber id.CardNumber
	Record     *cardmodels.CardRecord
	Reference  *cardmodels.CardReference
	OnChain    *chain.OnChainCard
	Drifts     []FieldDrift
}

// SecurityRelevant reports whether any drift questions authenticity.
func (v *Verdict) SecurityRelevant() bool {
	for _, d := range v.Drifts {
		if d.SecurityRelevant {
			return true
		}
	}
	return false
}

// DriftRule allowlists one expected divergence. Rules are configuration, not
// inference: every tolerated mismatch is written down where reviewers can see
// it.
type DriftRule struct {
	Field    string
	OffChain string
	OnChain  string
}

// DefaultKnownDrift covers the lifecycle transitions that happen off-chain
// only: suspension and expiry are issuer controls, while the on-chain status
// stays frozen at its issuance value.
func DefaultKnownDrift() []DriftRule {
	return []DriftRule{
		{Field: "status", OffChain: string(cardmodels.StatusSuspended), OnChain: string(cardmodels.StatusActive)},
		{Field: "status", OffChain: string(cardmodels.StatusExpired), OnChain: string(cardmodels.StatusActive)},
	}
}

// CardStore is the subset of the card store the engine needs.
type CardStore interface {
	FindByNumber(ctx context.Context, number id.CardNumber) (*cardmodels.CardRecord, error)
	FindReferenceByNumber(ctx context.Context, number id.CardNumber) (*cardmodels.CardReference, error)
}

// Engine loads both snapshots and classifies their agreement. Stateless,
// idempotent, safe for concurrent use.
type Engine struct {
	cards     CardStore
	reader    chain.Reader
	rules     []DriftRule
	logger    *slog.Logger
	metrics   *recmetrics.Metrics
	publisher audit.Publisher
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(e *Engine) { e.publisher = publisher }
}

func WithMetrics(m *recmetrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithKnownDrift replaces the default allowlist.
func WithKnownDrift(rules []DriftRule) Option {
	return func(e *Engine) { e.rules = rules }
}

func New(cards CardStore, reader chain.Reader, opts ...Option) (*Engine, error) {
	if cards == nil {
		return nil, errors.New("card store is required")
	}
	if reader == nil {
		return nil, errors.New("chain reader is required")
	}

	engine := &Engine{
		cards:  cards,
		reader: reader,
		rules:  DefaultKnownDrift(),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// Reconcile renders a verdict for one card. Returns CodeNotFound for unknown
// cards and CodeUnavailable when the on-chain gateway stays unreachable; every
// other outcome, drift included, is a verdict rather than an error.
func (e *Engine) Reconcile(ctx context.Context, number id.CardNumber) (*Verdict, error) {
	ctx, span := tracer.Start(ctx, "reconcile.Reconcile")
	defer span.End()

	var (
		record    *cardmodels.CardRecord
		reference *cardmodels.CardReference
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		record, err = e.cards.FindByNumber(gctx, number)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		return err
	})
	g.Go(func() error {
		ref, err := e.cards.FindReferenceByNumber(gctx, number)
		if errors.Is(err, sentinel.ErrNotFound) {
			// Unanchored, decided after both loads finish.
			return nil
		}
		reference = ref
		return err
	})
	if err := g.Wait(); err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeNotFound {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load card state")
	}

	if reference == nil {
		return e.finish(ctx, &Verdict{
			Kind:       VerdictUnanchored,
			CardNumber: number,
			Record:     record,
		}), nil
	}

	onChain, err := e.reader.GetCard(ctx, reference.OnChainID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		// The anchoring points at an on-chain id that holds nothing. The
		// on-chain side is authoritative for existence, so this questions
		// the card's authenticity.
		return e.finish(ctx, &Verdict{
			Kind:       VerdictDrift,
			CardNumber: number,
			Record:     record,
			Reference:  reference,
			Drifts: []FieldDrift{{
				Field:            "existence",
				OffChain:         "anchored",
				OnChain:          "missing",
				SecurityRelevant: true,
			}},
		}), nil
	case errors.Is(err, sentinel.ErrUnavailable):
		e.metrics.IncrementUpstreamFailure()
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "on-chain gateway unreachable")
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "on-chain read failed")
	}

	verdict := &Verdict{
		CardNumber: number,
		Record:     record,
		Reference:  reference,
		OnChain:    onChain,
	}
	if record.Number != onChain.CardNumber {
		verdict.Drifts = append(verdict.Drifts, FieldDrift{
			Field:            "cardNumber",
			OffChain:         record.Number.String(),
			OnChain:          onChain.CardNumber.String(),
			SecurityRelevant: true,
		})
	}
	if record.Status != onChain.Status {
		verdict.Drifts = append(verdict.Drifts, FieldDrift{
			Field:    "status",
			OffChain: string(record.Status),
			OnChain:  string(onChain.Status),
		})
	}

	verdict.Kind = e.classify(verdict.Drifts)
	return e.finish(ctx, verdict), nil
}

func (e *Engine) classify(drifts []FieldDrift) VerdictKind {
	if len(drifts) == 0 {
		return VerdictConsistent
	}
	for _, drift := range drifts {
		if drift.SecurityRelevant || !e.allowlisted(drift) {
			return VerdictDrift
		}
	}
	return VerdictKnownDrift
}

func (e *Engine) allowlisted(drift FieldDrift) bool {
	for _, rule := range e.rules {
		if rule.Field == drift.Field && rule.OffChain == drift.OffChain && rule.OnChain == drift.OnChain {
			return true
		}
	}
	return false
}

func (e *Engine) finish(ctx context.Context, verdict *Verdict) *Verdict {
	e.metrics.IncrementVerdict(verdict.Kind.String())
	if verdict.Kind == VerdictDrift {
		reason := "unexplained divergence"
		if verdict.SecurityRelevant() {
			reason = "security-relevant divergence"
		}
		audit.Log(ctx, e.logger, e.publisher, audit.EventDriftDetected, audit.Event{
			CardNumber: verdict.CardNumber.String(),
			Decision:   verdict.Kind.String(),
			Reason:     reason,
		})
	}
	return verdict
}
