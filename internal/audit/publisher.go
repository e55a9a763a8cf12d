package audit

import (
	"context"
	"log/slog"

	"github.com/Coritp27/sysga-sub002/pkg/requestcontext"
)

// Publisher accepts audit events for durable recording. Implementations must
// be safe for concurrent use. Emitting is best-effort from the caller's
// perspective: domain operations never fail because the audit sink did.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Log records an audit action on both the structured log and, when a publisher
// is configured, the audit sink. Services call this at state transitions; a
// nil publisher degrades to log-only, a nil logger to sink-only.
func Log(ctx context.Context, logger *slog.Logger, publisher Publisher, action AuditEvent, event Event) {
	event.Action = string(action)
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if actor := requestcontext.Actor(ctx); actor.ID != "" {
		if event.ActorID == "" {
			event.ActorID = actor.ID
		}
		if event.ActorRole == "" {
			event.ActorRole = string(actor.Role)
		}
	}

	if logger != nil {
		logger.InfoContext(ctx, "audit",
			"action", event.Action,
			"card_number", event.CardNumber,
			"channel", event.Channel,
			"session_id", event.SessionID,
			"decision", event.Decision,
			"reason", event.Reason,
			"request_id", event.RequestID,
		)
	}

	if publisher != nil {
		if err := publisher.Emit(ctx, event); err != nil && logger != nil {
			logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
		}
	}
}
