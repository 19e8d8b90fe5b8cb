// internal/services/payment_chapa.go
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ledrent/ledrent-backend/internal/models"
)

// ChapaGateway talks to Chapa's hosted checkout. The merchant reference (tx_ref)
// doubles as the provider reference.
type ChapaGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

type chapaInitializeRequest struct {
	Amount        string            `json:"amount"`
	Currency      string            `json:"currency"`
	Email         string            `json:"email,omitempty"`
	FirstName     string            `json:"first_name,omitempty"`
	LastName      string            `json:"last_name,omitempty"`
	TxRef         string            `json:"tx_ref"`
	CallbackURL   string            `json:"callback_url,omitempty"`
	ReturnURL     string            `json:"return_url,omitempty"`
	Customization map[string]string `json:"customization,omitempty"`
}

type chapaResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
		Status      string `json:"status"`
		TxRef       string `json:"tx_ref"`
	} `json:"data"`
}

func NewChapaGateway(secretKey, baseURL string, client *http.Client) *ChapaGateway {
	if client == nil {
		client = gatewayHTTPClient
	}
	return &ChapaGateway{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
	}
}

func (g *ChapaGateway) Name() models.PaymentProvider {
	return models.PaymentProviderChapa
}

func (g *ChapaGateway) CreateCharge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	first, last := splitName(req.Name)
	body := chapaInitializeRequest{
		Amount:      req.Amount.StringFixed(2),
		Currency:    strings.ToUpper(req.Currency),
		Email:       req.Email,
		FirstName:   first,
		LastName:    last,
		TxRef:       req.Reference,
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
		Customization: map[string]string{
			"title":       "LED Rent",
			"description": req.Description,
		},
	}

	var resp chapaResponse
	if err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/transaction/initialize", g.headers(), body, &resp); err != nil {
		return nil, fmt.Errorf("chapa initialize: %w", err)
	}
	if resp.Status != "success" || resp.Data.CheckoutURL == "" {
		return nil, fmt.Errorf("chapa initialize: %s", resp.Message)
	}

	return &ChargeResult{
		Reference:   req.Reference,
		CheckoutURL: resp.Data.CheckoutURL,
	}, nil
}

func (g *ChapaGateway) VerifyCharge(ctx context.Context, reference string) (models.PaymentStatus, error) {
	var resp chapaResponse
	endpoint := g.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	if err := doJSON(ctx, g.client, http.MethodGet, endpoint, g.headers(), nil, &resp); err != nil {
		return "", fmt.Errorf("chapa verify: %w", err)
	}

	switch strings.ToLower(resp.Data.Status) {
	case "success":
		return models.PaymentStatusSucceeded, nil
	case "failed", "cancelled":
		return models.PaymentStatusFailed, nil
	default:
		return models.PaymentStatusPending, nil
	}
}

func (g *ChapaGateway) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + g.secretKey}
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
