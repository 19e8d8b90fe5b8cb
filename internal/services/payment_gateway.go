// internal/services/payment_gateway.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledrent/ledrent-backend/internal/models"
)

// ChargeRequest describes one charge to open with a provider.
type ChargeRequest struct {
	Reference   string
	Amount      decimal.Decimal
	Currency    string
	Email       string
	Name        string
	Description string
	CallbackURL string
	ReturnURL   string
	Metadata    map[string]string
}

// ChargeResult carries what the client needs to complete the payment. Reference
// is the key later used to verify the charge with the same provider.
type ChargeResult struct {
	Reference    string
	CheckoutURL  string
	ClientSecret string
}

type PaymentGateway interface {
	Name() models.PaymentProvider
	CreateCharge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
	VerifyCharge(ctx context.Context, reference string) (models.PaymentStatus, error)
}

// Refunder is implemented by gateways that can return money through their API.
type Refunder interface {
	Refund(ctx context.Context, reference string, amount decimal.Decimal, reason string) error
}

var gatewayHTTPClient = &http.Client{Timeout: 20 * time.Second}

func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
