package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	otpmodels "github.com/Coritp27/sysga-sub002/internal/otp/models"
	"github.com/Coritp27/sysga-sub002/internal/verification/models"
	"github.com/Coritp27/sysga-sub002/internal/verification/service"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	dErrors "github.com/Coritp27/sysga-sub002/pkg/domain-errors"
	"github.com/Coritp27/sysga-sub002/pkg/platform/httputil"
	"github.com/Coritp27/sysga-sub002/pkg/requestcontext"
)

// Service defines the interface for verification operations.
type Service interface {
	RequestVerification(ctx context.Context, number id.CardNumber, channel otpmodels.Channel) (id.SessionID, error)
	SubmitCode(ctx context.Context, sessionID id.SessionID, submittedCode string) (*models.VerificationResult, error)
	InspectCard(ctx context.Context, number id.CardNumber) (*models.VerificationResult, error)
	MaintenanceSweep(ctx context.Context) (*service.SweepReport, error)
}

// Handler wires verification endpoints to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the actor-facing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify/request", h.HandleRequestVerification)
	r.Post("/verify/submit", h.HandleSubmitCode)
	r.Get("/cards/{cardNumber}", h.HandleInspectCard)
}

// RegisterAdmin mounts the scheduler-facing endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/sweep", h.HandleSweep)
}

// HandleRequestVerification handles POST /verify/request.
func (h *Handler) HandleRequestVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.Decode[RequestVerificationRequest](w, r, h.logger)
	if !ok {
		return
	}

	sessionID, err := h.service.RequestVerification(ctx, req.ParsedCardNumber(), req.ParsedChannel())
	if err != nil {
		h.logger.WarnContext(ctx, "verification request rejected",
			"request_id", requestID,
			"channel", req.Channel,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification session opened",
		"request_id", requestID,
		"session_id", sessionID.String(),
		"channel", req.Channel,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, NewRequestVerificationResponse(sessionID))
}

// HandleSubmitCode handles POST /verify/submit.
func (h *Handler) HandleSubmitCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.Decode[SubmitCodeRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.SubmitCode(ctx, req.ParsedSessionID(), req.Code)
	if err != nil {
		h.logger.WarnContext(ctx, "code submission rejected",
			"request_id", requestID,
			"session_id", req.SessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification completed",
		"request_id", requestID,
		"session_id", req.SessionID,
		"verdict", result.Verdict,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleInspectCard handles GET /cards/{cardNumber}.
func (h *Handler) HandleInspectCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	number, err := id.ParseCardNumber(chi.URLParam(r, "cardNumber"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, err.Error()))
		return
	}

	result, err := h.service.InspectCard(ctx, number)
	if err != nil {
		h.logger.WarnContext(ctx, "card inspection rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleSweep handles POST /admin/sweep.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.service.MaintenanceSweep(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "maintenance sweep failed", "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "maintenance sweep completed",
		"challenges_removed", report.ChallengesRemoved,
		"sessions_removed", report.SessionsRemoved,
	)
	httputil.WriteJSON(w, http.StatusOK, report)
}
