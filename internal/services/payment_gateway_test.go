// internal/services/payment_gateway_test.go
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"

	"github.com/ledrent/ledrent-backend/internal/models"
)

func TestChapaCreateCharge(t *testing.T) {
	var got chapaInitializeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer CHASECK-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"success","message":"Hosted Link","data":{"checkout_url":"https://checkout.chapa.co/abc"}}`))
	}))
	defer server.Close()

	gateway := NewChapaGateway("CHASECK-test", server.URL+"/", server.Client())
	result, err := gateway.CreateCharge(context.Background(), &ChargeRequest{
		Reference:   "lr-20240601-abc",
		Amount:      price("1250.5"),
		Currency:    "etb",
		Name:        "Abebe Kebede Tesfaye",
		Email:       "abebe@example.com",
		CallbackURL: "https://api.ledrent.example/v1/webhooks/chapa",
	})
	require.NoError(t, err)
	assert.Equal(t, "lr-20240601-abc", result.Reference)
	assert.Equal(t, "https://checkout.chapa.co/abc", result.CheckoutURL)

	assert.Equal(t, "1250.50", got.Amount)
	assert.Equal(t, "ETB", got.Currency)
	assert.Equal(t, "Abebe", got.FirstName)
	assert.Equal(t, "Kebede Tesfaye", got.LastName)
	assert.Equal(t, "lr-20240601-abc", got.TxRef)
}

func TestChapaCreateChargeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"failed","message":"Invalid currency"}`))
	}))
	defer server.Close()

	gateway := NewChapaGateway("key", server.URL, server.Client())
	_, err := gateway.CreateCharge(context.Background(), &ChargeRequest{Reference: "r", Amount: price("1"), Currency: "XYZ"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestChapaVerifyCharge(t *testing.T) {
	tests := []struct {
		remote string
		want   models.PaymentStatus
	}{
		{"success", models.PaymentStatusSucceeded},
		{"failed", models.PaymentStatusFailed},
		{"pending", models.PaymentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/transaction/verify/lr-1", r.URL.Path)
				_, _ = w.Write([]byte(`{"status":"success","data":{"status":"` + tt.remote + `","tx_ref":"lr-1"}}`))
			}))
			defer server.Close()

			status, err := NewChapaGateway("key", server.URL, server.Client()).VerifyCharge(context.Background(), "lr-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestTelebirrSignature(t *testing.T) {
	gateway := NewTelebirrGateway("app-1", "secret", "https://telebirr.example", nil)

	params := map[string]string{
		"outTradeNo": "lr-1",
		"appId":      "app-1",
		"nonce":      "n0nce",
		"empty":      "",
		"sign":       "ignored",
	}
	sum := sha256.Sum256([]byte("appId=app-1&appKey=secret&nonce=n0nce&outTradeNo=lr-1"))
	want := strings.ToUpper(hex.EncodeToString(sum[:]))

	assert.Equal(t, want, gateway.sign(params))
	assert.Equal(t, gateway.sign(params), gateway.sign(params))
}

func TestTelebirrCreateAndVerify(t *testing.T) {
	var calls []map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		calls = append(calls, body)

		switch r.URL.Path {
		case "/toTradeWebPay":
			_, _ = w.Write([]byte(`{"code":200,"msg":"success","data":{"toPayUrl":"https://h5.telebirr.example/pay/1"}}`))
		case "/queryOrder":
			_, _ = w.Write([]byte(`{"code":200,"msg":"success","data":{"tradeStatus":"Completed"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	gateway := NewTelebirrGateway("app-1", "secret", server.URL, server.Client())
	gateway.now = func() time.Time { return time.UnixMilli(1717200000000) }

	result, err := gateway.CreateCharge(context.Background(), &ChargeRequest{Reference: "lr-9", Amount: price("80"), Description: "rental"})
	require.NoError(t, err)
	assert.Equal(t, "lr-9", result.Reference)
	assert.Equal(t, "https://h5.telebirr.example/pay/1", result.CheckoutURL)

	status, err := gateway.VerifyCharge(context.Background(), "lr-9")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, status)

	require.Len(t, calls, 2)
	assert.Equal(t, "80.00", calls[0]["totalAmount"])
	assert.Equal(t, "1717200000000", calls[0]["timestamp"])
	sent := calls[0]["sign"]
	delete(calls[0], "sign")
	assert.Equal(t, gateway.sign(calls[0]), sent)
}

func TestStripeHelpers(t *testing.T) {
	assert.Equal(t, int64(125050), minorUnits(price("1250.50")))
	assert.Equal(t, int64(1), minorUnits(price("0.005")))

	assert.Equal(t, models.PaymentStatusSucceeded, stripeStatus(stripe.PaymentIntentStatusSucceeded))
	assert.Equal(t, models.PaymentStatusFailed, stripeStatus(stripe.PaymentIntentStatusCanceled))
	assert.Equal(t, models.PaymentStatusPending, stripeStatus(stripe.PaymentIntentStatusRequiresPaymentMethod))
}
