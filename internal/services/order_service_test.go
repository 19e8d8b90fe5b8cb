// internal/services/order_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/repository/memory"
)

type OrderServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	notifier *recordingNotifier
	carts    *CartService
	orders   *OrderService
	customer *models.User
	panel    *models.Variant
	module   *models.Variant
}

func (suite *OrderServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = newMemoryStore()
	suite.notifier = &recordingNotifier{}
	suite.carts = NewCartService(suite.store, time.Second)
	suite.orders = NewOrderService(suite.store, time.Second, suite.notifier)

	t := suite.T()
	suite.customer = seedUser(t, suite.store, "shopper@example.com", models.UserRoleCustomer)
	product := seedProduct(t, suite.store, "fine-pitch", models.ProductStatusActive)
	suite.panel = seedVariant(t, suite.store, product.ID, "FP-1", "1000.00", "40.00")
	suite.module = seedVariant(t, suite.store, product.ID, "FP-2", "250.25", "10.00")
}

func (suite *OrderServiceTestSuite) add(variant *models.Variant, quantity int) *models.CartItem {
	item, err := suite.carts.AddItem(suite.ctx, suite.customer.ID, &AddCartItemRequest{VariantID: variant.ID, Quantity: quantity})
	suite.Require().NoError(err)
	return item
}

func (suite *OrderServiceTestSuite) TestCartMergesLinesAndPrices() {
	first := suite.add(suite.panel, 1)
	second := suite.add(suite.panel, 2)
	suite.Equal(first.ID, second.ID)
	suite.Equal(3, second.Quantity)

	suite.add(suite.module, 2)

	cart, err := suite.carts.GetCart(suite.ctx, suite.customer.ID)
	suite.Require().NoError(err)
	suite.Len(cart.Items, 2)
	suite.Equal("3500.50", cart.Total.StringFixed(2))
}

func (suite *OrderServiceTestSuite) TestCartItemOwnership() {
	item := suite.add(suite.panel, 1)
	other := seedUser(suite.T(), suite.store, "other@example.com", models.UserRoleCustomer)

	_, err := suite.carts.UpdateItem(suite.ctx, other.ID, item.ID, &UpdateCartItemRequest{Quantity: 5})
	suite.IsType(&NotFoundError{}, err)
	suite.IsType(&NotFoundError{}, suite.carts.RemoveItem(suite.ctx, other.ID, item.ID))

	updated, err := suite.carts.UpdateItem(suite.ctx, suite.customer.ID, item.ID, &UpdateCartItemRequest{Quantity: 5})
	suite.Require().NoError(err)
	suite.Equal(5, updated.Quantity)

	suite.Require().NoError(suite.carts.RemoveItem(suite.ctx, suite.customer.ID, item.ID))
	cart, err := suite.carts.GetCart(suite.ctx, suite.customer.ID)
	suite.Require().NoError(err)
	suite.Empty(cart.Items)
	suite.True(cart.Total.IsZero())
}

func (suite *OrderServiceTestSuite) TestAddUnknownVariant() {
	_, err := suite.carts.AddItem(suite.ctx, suite.customer.ID, &AddCartItemRequest{VariantID: uuid.New(), Quantity: 1})
	suite.IsType(&NotFoundError{}, err)

	_, err = suite.carts.AddItem(suite.ctx, suite.customer.ID, &AddCartItemRequest{VariantID: suite.panel.ID, Quantity: 0})
	suite.IsType(&ValidationError{}, err)
}

func (suite *OrderServiceTestSuite) TestCheckoutSnapshotsPricesAndClearsCart() {
	suite.add(suite.panel, 2)
	suite.add(suite.module, 1)

	order, err := suite.orders.Checkout(suite.ctx, suite.customer.ID, &CheckoutRequest{ShippingAddress: "Bole Road, Addis Ababa"})
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusPending, order.Status)
	suite.Equal("2250.25", order.TotalAmount.StringFixed(2))
	suite.Len(order.Items, 2)

	cart, err := suite.carts.GetCart(suite.ctx, suite.customer.ID)
	suite.Require().NoError(err)
	suite.Empty(cart.Items)

	// Later price changes do not touch the order.
	suite.panel.SalePrice = price("1999.99")
	suite.Require().NoError(suite.store.Catalog().UpdateVariant(suite.ctx, suite.panel))

	stored, err := suite.orders.GetOrder(suite.ctx, Actor{UserID: suite.customer.ID, Role: models.UserRoleCustomer}, order.ID)
	suite.Require().NoError(err)
	suite.Equal("2250.25", stored.TotalAmount.StringFixed(2))
	for _, item := range stored.Items {
		if item.VariantID == suite.panel.ID {
			suite.Equal("1000.00", item.UnitPrice.StringFixed(2))
		}
	}
}

func (suite *OrderServiceTestSuite) TestCheckoutRequiresItemsAndAddress() {
	_, err := suite.orders.Checkout(suite.ctx, suite.customer.ID, &CheckoutRequest{ShippingAddress: "Piassa"})
	suite.IsType(&ValidationError{}, err)

	suite.add(suite.panel, 1)
	_, err = suite.orders.Checkout(suite.ctx, suite.customer.ID, &CheckoutRequest{ShippingAddress: "   "})
	suite.IsType(&ValidationError{}, err)

	_, total, err := suite.store.Orders().List(suite.ctx, repository.OrderFilter{})
	suite.Require().NoError(err)
	suite.Zero(total)
}

func (suite *OrderServiceTestSuite) TestOrderStatusRules() {
	suite.add(suite.panel, 1)
	order, err := suite.orders.Checkout(suite.ctx, suite.customer.ID, &CheckoutRequest{ShippingAddress: "Piassa"})
	suite.Require().NoError(err)

	_, err = suite.orders.UpdateOrderStatus(suite.ctx, order.ID, "lost")
	suite.IsType(&InvalidStatusError{}, err)

	updated, err := suite.orders.UpdateOrderStatus(suite.ctx, order.ID, "shipped")
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusShipped, updated.Status)

	_, err = suite.orders.UpdateOrderStatus(suite.ctx, order.ID, "cancelled")
	suite.Require().NoError(err)

	_, err = suite.orders.UpdateOrderStatus(suite.ctx, order.ID, "processing")
	var invalid *InvalidStatusError
	suite.Require().ErrorAs(err, &invalid)
	suite.Equal("cancelled", invalid.From)
}

func (suite *OrderServiceTestSuite) TestMarkPaid() {
	suite.add(suite.panel, 1)
	order, err := suite.orders.Checkout(suite.ctx, suite.customer.ID, &CheckoutRequest{ShippingAddress: "Piassa"})
	suite.Require().NoError(err)

	paid, err := suite.orders.MarkPaid(suite.ctx, order.ID)
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusPaid, paid.Status)

	again, err := suite.orders.MarkPaid(suite.ctx, order.ID)
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusPaid, again.Status)
	suite.Equal([]uuid.UUID{order.ID}, suite.notifier.paidOrders())

	suite.add(suite.module, 1)
	cancelled, err := suite.orders.Checkout(suite.ctx, suite.customer.ID, &CheckoutRequest{ShippingAddress: "Piassa"})
	suite.Require().NoError(err)
	_, err = suite.orders.UpdateOrderStatus(suite.ctx, cancelled.ID, "cancelled")
	suite.Require().NoError(err)
	_, err = suite.orders.MarkPaid(suite.ctx, cancelled.ID)
	suite.IsType(&ConflictError{}, err)
}

func (suite *OrderServiceTestSuite) TestOrderVisibility() {
	suite.add(suite.panel, 1)
	order, err := suite.orders.Checkout(suite.ctx, suite.customer.ID, &CheckoutRequest{ShippingAddress: "Piassa"})
	suite.Require().NoError(err)

	stranger := Actor{UserID: uuid.New(), Role: models.UserRoleCustomer}
	_, err = suite.orders.GetOrder(suite.ctx, stranger, order.ID)
	suite.IsType(&NotFoundError{}, err)

	orders, total, err := suite.orders.ListOrders(suite.ctx, stranger, repository.OrderFilter{})
	suite.Require().NoError(err)
	suite.Zero(total)
	suite.Empty(orders)

	admin := Actor{UserID: uuid.New(), Role: models.UserRoleAdmin}
	orders, total, err = suite.orders.ListOrders(suite.ctx, admin, repository.OrderFilter{Status: models.OrderStatusPending})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Equal(order.ID, orders[0].ID)
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
