package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Coritp27/sysga-sub002/internal/card/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
)

func TestGetCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cards/7", r.URL.Path)
		_ = json.NewEncoder(w).Encode(OnChainCard{
			ID:         7,
			CardNumber: id.CardNumber("CARD123456"),
			Status:     models.StatusActive,
		})
	}))
	defer srv.Close()

	card, err := NewHTTPReader(srv.URL).GetCard(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), card.ID)
	assert.Equal(t, models.StatusActive, card.Status)
}

func TestGetCardNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPReader(srv.URL).GetCard(context.Background(), 42)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetCardRetriesThenRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(OnChainCard{ID: 7})
	}))
	defer srv.Close()

	card, err := NewHTTPReader(srv.URL).GetCard(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), card.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetCardExhaustionReportsUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPReader(srv.URL).GetCard(context.Background(), 7)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}
