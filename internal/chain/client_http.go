package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Coritp27/sysga-sub002/pkg/platform/sentinel"
)

const (
	defaultTimeout  = 10 * time.Second
	readMaxAttempts = 3
	readBackoffBase = 250 * time.Millisecond
)

var tracer = otel.Tracer("sysga/chain")

// HTTPReader reads on-chain cards from the chain gateway's REST surface.
// Transport failures are retried with increasing backoff; a 404 is a fact, not
// a failure, and is never retried.
type HTTPReader struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPReader returns a reader for the given gateway base URL.
func NewHTTPReader(baseURL string) *HTTPReader {
	return &HTTPReader{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (r *HTTPReader) GetCard(ctx context.Context, onChainID uint64) (*OnChainCard, error) {
	ctx, span := tracer.Start(ctx, "chain.GetCard",
		trace.WithAttributes(attribute.Int64("chain.card_id", int64(onChainID))))
	defer span.End()

	var lastErr error
	for attempt := 0; attempt < readMaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := readBackoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		card, err := r.getOnce(ctx, onChainID)
		if err == nil {
			return card, nil
		}
		if err == sentinel.ErrNotFound {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: chain gateway unreachable: %v", sentinel.ErrUnavailable, lastErr)
}

func (r *HTTPReader) getOnce(ctx context.Context, onChainID uint64) (*OnChainCard, error) {
	url := fmt.Sprintf("%s/cards/%d", r.baseURL, onChainID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, sentinel.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chain gateway status=%d body=%s", resp.StatusCode, string(b))
	}

	var card OnChainCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("decode on-chain card: %w", err)
	}
	return &card, nil
}
