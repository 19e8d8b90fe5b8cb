// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
)

type CartService struct {
	store   repository.Store
	timeout time.Duration
}

type AddCartItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=1000"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=1000"`
}

type CartLine struct {
	models.CartItem
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Cart struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func NewCartService(store repository.Store, timeout time.Duration) *CartService {
	return &CartService{store: store, timeout: timeout}
}

// GetCart prices each line at the variant's current sale price.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	items, err := s.store.Carts().ListItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	cart := &Cart{Items: make([]CartLine, 0, len(items)), Total: decimal.Zero}
	for _, item := range items {
		line := CartLine{CartItem: item, UnitPrice: decimal.Zero, LineTotal: decimal.Zero}
		if item.Variant != nil {
			line.UnitPrice = item.Variant.SalePrice
			line.LineTotal = item.Variant.SalePrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		cart.Total = cart.Total.Add(line.LineTotal)
		cart.Items = append(cart.Items, line)
	}
	return cart, nil
}

// AddItem puts a variant in the cart, adding to the quantity of an existing line.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req *AddCartItemRequest) (*models.CartItem, error) {
	if req.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	var result *models.CartItem
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Catalog().GetVariant(ctx, req.VariantID); err != nil {
			return translate(err, "variant", req.VariantID.String())
		}

		existing, err := tx.Carts().FindItem(ctx, userID, req.VariantID)
		switch {
		case err == nil:
			existing.Quantity += req.Quantity
			if err := tx.Carts().UpdateItem(ctx, existing); err != nil {
				return translate(err, "cart_item", existing.ID.String())
			}
			result = existing
			return nil
		case errors.Is(err, repository.ErrNotFound):
			item := &models.CartItem{UserID: userID, VariantID: req.VariantID, Quantity: req.Quantity}
			if err := tx.Carts().CreateItem(ctx, item); err != nil {
				return translate(err, "cart_item", req.VariantID.String())
			}
			result = item
			return nil
		default:
			return fmt.Errorf("failed to look up cart item: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req *UpdateCartItemRequest) (*models.CartItem, error) {
	if req.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	item.Quantity = req.Quantity
	if err := s.store.Carts().UpdateItem(ctx, item); err != nil {
		return nil, translate(err, "cart_item", itemID.String())
	}
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}
	return translate(s.store.Carts().DeleteItem(ctx, itemID), "cart_item", itemID.String())
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	if err := s.store.Carts().Clear(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *CartService) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := s.store.Carts().GetItem(ctx, itemID)
	if err != nil {
		return nil, translate(err, "cart_item", itemID.String())
	}
	if item.UserID != userID {
		return nil, &NotFoundError{Resource: "cart_item", ID: itemID.String()}
	}
	return item, nil
}

type OrderService struct {
	store    repository.Store
	timeout  time.Duration
	notifier Notifier
}

type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required,max=1000"`
}

func NewOrderService(store repository.Store, timeout time.Duration, notifier Notifier) *OrderService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &OrderService{store: store, timeout: timeout, notifier: notifier}
}

// Checkout turns the user's cart into a pending order at current sale prices and
// empties the cart in the same transaction.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*models.Order, error) {
	address := strings.TrimSpace(req.ShippingAddress)
	if address == "" {
		return nil, &ValidationError{Field: "shipping_address", Reason: "is required"}
	}

	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	var order *models.Order
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		items, err := tx.Carts().ListItems(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if len(items) == 0 {
			return &ValidationError{Field: "cart", Reason: "is empty"}
		}

		total := decimal.Zero
		lines := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			variant, err := tx.Catalog().GetVariant(ctx, item.VariantID)
			if err != nil {
				return translate(err, "variant", item.VariantID.String())
			}
			lines = append(lines, models.OrderItem{
				VariantID: variant.ID,
				Quantity:  item.Quantity,
				UnitPrice: variant.SalePrice,
			})
			total = total.Add(variant.SalePrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		order = &models.Order{
			UserID:          userID,
			Status:          models.OrderStatusPending,
			TotalAmount:     total.Round(2),
			ShippingAddress: address,
			Items:           lines,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := tx.Carts().Clear(ctx, userID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.TotalAmount.StringFixed(2),
	}).Info("Order placed")

	return order, nil
}

// UpdateOrderStatus sets any status of the closed set. A cancelled order stays cancelled.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (*models.Order, error) {
	status := models.OrderStatus(newStatus)
	if !status.Valid() {
		return nil, &InvalidStatusError{Status: newStatus}
	}

	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	var updated *models.Order
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return translate(err, "order", orderID.String())
		}
		if order.Status == models.OrderStatusCancelled && status != models.OrderStatusCancelled {
			return &InvalidStatusError{Status: newStatus, From: string(order.Status)}
		}
		if err := tx.Orders().UpdateStatus(ctx, orderID, status); err != nil {
			return translate(err, "order", orderID.String())
		}

		updated, err = tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return translate(err, "order", orderID.String())
		}

		logrus.WithFields(logrus.Fields{
			"order_id": orderID,
			"from":     order.Status,
			"to":       status,
		}).Info("Order status changed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkPaid moves a pending order to paid. Orders already past pending are left as they are.
func (s *OrderService) MarkPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	var order *models.Order
	var changed bool
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		order, changed, err = markPaidInTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.notifier.OrderPaid(ctx, order)
	}
	return order, nil
}

func markPaidInTx(ctx context.Context, tx repository.Store, orderID uuid.UUID) (*models.Order, bool, error) {
	order, err := tx.Orders().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, false, translate(err, "order", orderID.String())
	}

	switch order.Status {
	case models.OrderStatusPending:
	case models.OrderStatusCancelled:
		return nil, false, &ConflictError{Resource: "order", Reason: "order was cancelled before payment completed"}
	default:
		full, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return nil, false, translate(err, "order", orderID.String())
		}
		return full, false, nil
	}

	if err := tx.Orders().UpdateStatus(ctx, orderID, models.OrderStatusPaid); err != nil {
		return nil, false, translate(err, "order", orderID.String())
	}

	full, err := tx.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, false, translate(err, "order", orderID.String())
	}

	logrus.WithField("order_id", orderID).Info("Order marked paid")
	return full, true, nil
}

func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	order, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "order", id.String())
	}
	if !actor.CanAccess(order.UserID) {
		return nil, &NotFoundError{Resource: "order", ID: id.String()}
	}
	return order, nil
}

// ListOrders lists the actor's own orders; staff see every order.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, filter repository.OrderFilter) ([]models.Order, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, &InvalidStatusError{Status: string(filter.Status)}
	}
	if !actor.IsStaff() {
		filter.UserID = &actor.UserID
	}

	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	orders, total, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}
