// internal/services/payment_telebirr.go
package services

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

// TelebirrGateway opens H5 web payments. Requests are signed with SHA-256 over
// the sorted parameters plus the app key; the merchant order number is the reference.
type TelebirrGateway struct {
	appID   string
	appKey  string
	baseURL string
	client  *http.Client
	now     func() time.Time
}

type telebirrResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		ToPayURL    string `json:"toPayUrl"`
		TradeStatus string `json:"tradeStatus"`
	} `json:"data"`
}

func NewTelebirrGateway(appID, appKey, baseURL string, client *http.Client) *TelebirrGateway {
	if client == nil {
		client = gatewayHTTPClient
	}
	return &TelebirrGateway{
		appID:   appID,
		appKey:  appKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		now:     time.Now,
	}
}

func (g *TelebirrGateway) Name() models.PaymentProvider {
	return models.PaymentProviderTelebirr
}

func (g *TelebirrGateway) CreateCharge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	params, err := g.baseParams()
	if err != nil {
		return nil, err
	}
	params["outTradeNo"] = req.Reference
	params["subject"] = req.Description
	params["totalAmount"] = req.Amount.StringFixed(2)
	params["notifyUrl"] = req.CallbackURL
	params["returnUrl"] = req.ReturnURL
	params["timeoutExpress"] = "30"
	params["sign"] = g.sign(params)

	var resp telebirrResponse
	if err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/toTradeWebPay", nil, params, &resp); err != nil {
		return nil, fmt.Errorf("telebirr payment: %w", err)
	}
	if resp.Code != 200 || resp.Data.ToPayURL == "" {
		return nil, fmt.Errorf("telebirr payment: %s", resp.Msg)
	}

	return &ChargeResult{
		Reference:   req.Reference,
		CheckoutURL: resp.Data.ToPayURL,
	}, nil
}

func (g *TelebirrGateway) VerifyCharge(ctx context.Context, reference string) (models.PaymentStatus, error) {
	params, err := g.baseParams()
	if err != nil {
		return "", err
	}
	params["outTradeNo"] = reference
	params["sign"] = g.sign(params)

	var resp telebirrResponse
	if err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/queryOrder", nil, params, &resp); err != nil {
		return "", fmt.Errorf("telebirr query: %w", err)
	}
	if resp.Code != 200 {
		return "", fmt.Errorf("telebirr query: %s", resp.Msg)
	}

	switch strings.ToLower(resp.Data.TradeStatus) {
	case "completed", "success":
		return models.PaymentStatusSucceeded, nil
	case "failure", "failed", "expired", "canceled", "cancelled":
		return models.PaymentStatusFailed, nil
	default:
		return models.PaymentStatusPending, nil
	}
}

func (g *TelebirrGateway) baseParams() (map[string]string, error) {
	nonce, err := utils.GenerateRandomString(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return map[string]string{
		"appId":     g.appID,
		"nonce":     nonce,
		"timestamp": strconv.FormatInt(g.now().UnixMilli(), 10),
	}, nil
}

// sign hashes "k1=v1&k2=v2..." over the sorted keys, appKey included, sign excluded.
func (g *TelebirrGateway) sign(params map[string]string) string {
	all := make(map[string]string, len(params)+1)
	for k, v := range params {
		if k == "sign" || v == "" {
			continue
		}
		all[k] = v
	}
	all["appKey"] = g.appKey

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+all[k])
	}
	return strings.ToUpper(utils.HashString(strings.Join(pairs, "&")))
}
