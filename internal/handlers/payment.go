// internal/handlers/payment.go
package handlers

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/ledrent/ledrent-backend/internal/i18n"
	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/services"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// POST /payments
func (h *PaymentHandler) Initiate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req services.InitiatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := h.paymentService.Initiate(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, payment)
}

// POST /payments/:id/verify
func (h *PaymentHandler) Verify(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	payment, err := h.paymentService.Verify(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, payment)
}

// GET /payments/history
func (h *PaymentHandler) History(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	payments, total, err := h.paymentService.History(c.Request.Context(), actor.UserID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(payments, total, params))
}

// POST /admin/payments/:id/refund
func (h *PaymentHandler) Refund(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.RefundRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := h.paymentService.Refund(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, payment)
}

// GET|POST /webhooks/:provider
func (h *PaymentHandler) Webhook(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	provider := c.Param("provider")

	reference := webhookReference(c, models.PaymentProvider(provider))
	if reference == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "reference"), nil)
		return
	}

	payment, err := h.paymentService.HandleWebhook(c.Request.Context(), provider, reference)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
}

// webhookReference pulls the provider's charge reference out of a callback.
func webhookReference(c *gin.Context, provider models.PaymentProvider) string {
	for _, key := range []string{"tx_ref", "trx_ref", "reference", "outTradeNo"} {
		if v := c.Query(key); v != "" {
			return v
		}
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil || len(body) == 0 {
		return ""
	}

	switch provider {
	case models.PaymentProviderStripe:
		var event struct {
			Data struct {
				Object struct {
					ID string `json:"id"`
				} `json:"object"`
			} `json:"data"`
		}
		if json.Unmarshal(body, &event) == nil {
			return event.Data.Object.ID
		}
	case models.PaymentProviderChapa:
		var payload struct {
			TxRef string `json:"tx_ref"`
		}
		if json.Unmarshal(body, &payload) == nil {
			return payload.TxRef
		}
	case models.PaymentProviderTelebirr:
		var payload struct {
			OutTradeNo string `json:"outTradeNo"`
		}
		if json.Unmarshal(body, &payload) == nil {
			return payload.OutTradeNo
		}
	}
	return ""
}
