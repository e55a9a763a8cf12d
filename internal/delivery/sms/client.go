package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Coritp27/sysga-sub002/internal/delivery"
)

// Client sends OTP SMS through the provider's bulk API. It does not log the
// message body.
type Client struct {
	apiKey     string
	baseURL    string
	sender     string
	httpClient *http.Client
}

// New returns an SMS channel for the given API key and optional base
// URL/sender id. The per-attempt timeout comes from the dispatcher context, so
// the embedded client carries none of its own.
func New(apiKey, baseURL, sender string) *Client {
	if baseURL == "" {
		baseURL = "https://www.smslocal.com/dev/bulkV2"
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		sender:     sender,
		httpClient: &http.Client{},
	}
}

func (c *Client) Kind() delivery.Kind { return delivery.KindSMS }

// Send posts the message to the provider. A 4xx from the provider means the
// number itself was rejected and maps to ErrInvalidTarget; 5xx and transport
// errors are retryable.
func (c *Client) Send(ctx context.Context, target string, msg delivery.Message) error {
	if c.apiKey == "" {
		return fmt.Errorf("sms: API key not configured")
	}
	body := map[string]any{
		"route":   "otp",
		"numbers": target,
		"sender":  c.sender,
		"message": msg.Body,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: sms provider rejected number: status=%d body=%s", delivery.ErrInvalidTarget, resp.StatusCode, string(b))
	default:
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
}
