// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ledrent/ledrent-backend/internal/i18n"
	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/services"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

type OrderHandler struct {
	cartService  *services.CartService
	orderService *services.OrderService
}

func NewOrderHandler(cartService *services.CartService, orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		cartService:  cartService,
		orderService: orderService,
	}
}

// GET /cart
func (h *OrderHandler) GetCart(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	cart, err := h.cartService.GetCart(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, cart)
}

// POST /cart/items
func (h *OrderHandler) AddCartItem(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req services.AddCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.cartService.AddItem(c.Request.Context(), actor.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, item)
}

// PUT /cart/items/:id
func (h *OrderHandler) UpdateCartItem(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.cartService.UpdateItem(c.Request.Context(), actor.UserID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// DELETE /cart/items/:id
func (h *OrderHandler) RemoveCartItem(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.cartService.RemoveItem(c.Request.Context(), actor.UserID, id); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyCartUpdated)})
}

// DELETE /cart
func (h *OrderHandler) ClearCart(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	if err := h.cartService.Clear(c.Request.Context(), actor.UserID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyCartUpdated)})
}

// POST /orders/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req services.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Checkout(c.Request.Context(), actor.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, order)
}

// GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), actor, repository.OrderFilter{
		PaginationParams: params,
		Status:           models.OrderStatus(params.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params))
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// PUT /admin/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}
