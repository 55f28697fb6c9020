package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// APIClient talks to the payment provider's HTTP API.
type APIClient struct {
	httpClient *http.Client
	BaseURL    string
	apiKey     string
}

// NewClient creates a new payment gateway client.
func NewClient(baseURL, apiKey string) Gateway {
	return &APIClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Ensure APIClient implements the Gateway interface.
var _ Gateway = (*APIClient)(nil)

type chargeRequest struct {
	UserID         string `json:"user_id"`
	AmountMinor    int64  `json:"amount_minor"`
	IdempotencyKey string `json:"idempotency_key"`
}

type chargeResponse struct {
	Status string `json:"status"`
}

func (c *APIClient) Charge(ctx context.Context, userID string, amountMinor int64, idempotencyKey string) error {
	return c.post(ctx, "/v1/charges", userID, amountMinor, idempotencyKey, ErrDeclined)
}

func (c *APIClient) Refund(ctx context.Context, userID string, amountMinor int64, idempotencyKey string) error {
	return c.post(ctx, "/v1/refunds", userID, amountMinor, idempotencyKey, ErrRefundFailed)
}

func (c *APIClient) post(ctx context.Context, path, userID string, amountMinor int64, idempotencyKey string, rejection error) error {
	payload, err := json.Marshal(chargeRequest{
		UserID:         userID,
		AmountMinor:    amountMinor,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payment request: %w", err)
	}

	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Idempotency-Key", idempotencyKey)

	log.Debug("Calling payment gateway", "url", url, "userID", userID, "amount_minor", amountMinor)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute payment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Error("Received non-OK HTTP status from payment gateway", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("payment gateway returned status %d: %w", resp.StatusCode, rejection)
	}

	var result chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode payment response: %w", err)
	}
	if result.Status != "ok" {
		log.Warn("Payment gateway rejected operation", "status", result.Status, "userID", userID)
		return fmt.Errorf("gateway status %q: %w", result.Status, rejection)
	}
	return nil
}
