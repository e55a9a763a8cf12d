package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	otpmodels "github.com/Coritp27/sysga-sub002/internal/otp/models"
	otpservice "github.com/Coritp27/sysga-sub002/internal/otp/service"
	"github.com/Coritp27/sysga-sub002/internal/verification/models"
	"github.com/Coritp27/sysga-sub002/internal/verification/service"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	dErrors "github.com/Coritp27/sysga-sub002/pkg/domain-errors"
)

type stubService struct {
	requestErr error
	submitErr  error
	sessionID  id.SessionID
	result     *models.VerificationResult
}

func (s *stubService) RequestVerification(ctx context.Context, number id.CardNumber, channel otpmodels.Channel) (id.SessionID, error) {
	if s.requestErr != nil {
		return id.SessionID{}, s.requestErr
	}
	return s.sessionID, nil
}

func (s *stubService) SubmitCode(ctx context.Context, sessionID id.SessionID, code string) (*models.VerificationResult, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return s.result, nil
}

func (s *stubService) InspectCard(ctx context.Context, number id.CardNumber) (*models.VerificationResult, error) {
	return s.result, nil
}

func (s *stubService) MaintenanceSweep(ctx context.Context) (*service.SweepReport, error) {
	return &service.SweepReport{ChallengesRemoved: 3, SessionsRemoved: 1}, nil
}

func newRouter(stub *stubService) chi.Router {
	h := New(stub, slog.New(slog.DiscardHandler))
	r := chi.NewRouter()
	h.Register(r)
	r.Route("/admin", h.RegisterAdmin)
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleRequestVerification(t *testing.T) {
	stub := &stubService{sessionID: id.NewSessionID()}
	r := newRouter(stub)

	w := doJSON(t, r, http.MethodPost, "/verify/request", RequestVerificationRequest{
		CardNumber: "TEST123456",
		Channel:    "SMS",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp RequestVerificationResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, stub.sessionID.String(), resp.SessionID)
	assert.Equal(t, string(models.StateChallengeIssued), resp.State)
}

func TestHandleRequestVerificationValidation(t *testing.T) {
	r := newRouter(&stubService{sessionID: id.NewSessionID()})

	cases := []struct {
		name string
		req  RequestVerificationRequest
	}{
		{"short card number", RequestVerificationRequest{CardNumber: "AB1", Channel: "SMS"}},
		{"lowercase card number", RequestVerificationRequest{CardNumber: "test123456", Channel: "SMS"}},
		{"unknown channel", RequestVerificationRequest{CardNumber: "TEST123456", Channel: "CARRIER_PIGEON"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/verify/request", tc.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleRequestVerificationDeliveryFailed(t *testing.T) {
	stub := &stubService{requestErr: dErrors.New(dErrors.CodeDeliveryFailed, "all channels exhausted")}
	r := newRouter(stub)

	w := doJSON(t, r, http.MethodPost, "/verify/request", RequestVerificationRequest{
		CardNumber: "TEST123456",
		Channel:    "EMAIL",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandleSubmitCode(t *testing.T) {
	sessionID := id.NewSessionID()
	stub := &stubService{result: &models.VerificationResult{
		SessionID: sessionID,
		State:     models.StateCompleted,
		Verdict:   "CONSISTENT",
	}}
	r := newRouter(stub)

	w := doJSON(t, r, http.MethodPost, "/verify/submit", SubmitCodeRequest{
		SessionID: sessionID.String(),
		Code:      "042517",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result models.VerificationResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, "CONSISTENT", result.Verdict)
}

func TestHandleSubmitCodeMismatchCarriesRemainingAttempts(t *testing.T) {
	mismatch := &otpservice.MismatchError{Remaining: 2}
	stub := &stubService{submitErr: dErrors.Wrap(mismatch, dErrors.CodeMismatch, "submitted code does not match")}
	r := newRouter(stub)

	w := doJSON(t, r, http.MethodPost, "/verify/submit", SubmitCodeRequest{
		SessionID: id.NewSessionID().String(),
		Code:      "000000",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Error     string `json:"error"`
		Remaining *int   `json:"remaining_attempts"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "mismatch", body.Error)
	require.NotNil(t, body.Remaining)
	assert.Equal(t, 2, *body.Remaining)
}

func TestHandleSubmitCodeValidation(t *testing.T) {
	r := newRouter(&stubService{})

	cases := []SubmitCodeRequest{
		{SessionID: "not-a-uuid", Code: "123456"},
		{SessionID: id.NewSessionID().String(), Code: "12345"},
		{SessionID: id.NewSessionID().String(), Code: "12345a"},
	}
	for _, tc := range cases {
		w := doJSON(t, r, http.MethodPost, "/verify/submit", tc)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestHandleInspectCard(t *testing.T) {
	stub := &stubService{result: &models.VerificationResult{Verdict: "UNANCHORED"}}
	r := newRouter(stub)

	w := doJSON(t, r, http.MethodGet, "/cards/TEST123456", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/cards/ab", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSweep(t *testing.T) {
	r := newRouter(&stubService{})

	w := doJSON(t, r, http.MethodPost, "/admin/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report service.SweepReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, 3, report.ChallengesRemoved)
}
