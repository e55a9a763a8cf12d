package handler

import (
	"github.com/Coritp27/sysga-sub002/internal/verification/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
)

// RequestVerificationResponse acknowledges an opened session.
type RequestVerificationResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

func NewRequestVerificationResponse(sessionID id.SessionID) RequestVerificationResponse {
	return RequestVerificationResponse{
		SessionID: sessionID.String(),
		State:     string(models.StateChallengeIssued),
	}
}
