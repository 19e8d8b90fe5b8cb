// internal/services/helpers_test.go
package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/repository/memory"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func seedUser(t *testing.T, store repository.Store, email string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: "Test " + string(role), Role: role, Status: models.UserStatusActive}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func seedProduct(t *testing.T, store repository.Store, slug string, status models.ProductStatus) *models.Product {
	t.Helper()
	product := &models.Product{Name: slug, Slug: slug, Category: "indoor", Status: status}
	require.NoError(t, store.Catalog().CreateProduct(context.Background(), product))
	return product
}

func seedVariant(t *testing.T, store repository.Store, productID uuid.UUID, sku, sale, rent string) *models.Variant {
	t.Helper()
	variant := &models.Variant{
		ProductID:       productID,
		SKU:             sku,
		Name:            sku,
		SalePrice:       price(sale),
		RentPricePerDay: price(rent),
		IsRentable:      true,
	}
	require.NoError(t, store.Catalog().CreateVariant(context.Background(), variant))
	return variant
}

func seedUnits(t *testing.T, store repository.Store, variantID uuid.UUID, serials ...string) []models.InventoryUnit {
	t.Helper()
	units := make([]models.InventoryUnit, 0, len(serials))
	for _, serial := range serials {
		unit := &models.InventoryUnit{VariantID: variantID, SerialNumber: serial, Status: models.UnitStatusAvailable}
		require.NoError(t, store.Inventory().CreateUnit(context.Background(), unit))
		units = append(units, *unit)
	}
	return units
}

func unitStatus(t *testing.T, store repository.Store, id uuid.UUID) models.UnitStatus {
	t.Helper()
	unit, err := store.Inventory().GetUnit(context.Background(), id)
	require.NoError(t, err)
	return unit.Status
}

// failingItemsStore fails every rental item insert made inside a transaction.
type failingItemsStore struct {
	repository.Store
}

func (s failingItemsStore) Rentals() repository.RentalRepository {
	return failingRentals{RentalRepository: s.Store.Rentals()}
}

func (s failingItemsStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repository.Store) error {
		return fn(failingItemsStore{Store: tx})
	})
}

type failingRentals struct {
	repository.RentalRepository
}

func (failingRentals) CreateItem(context.Context, *models.RentalItem) error {
	return errors.New("connection reset by peer")
}

type rentalEvent struct {
	RentalID uuid.UUID
	From, To models.RentalStatus
}

type recordingNotifier struct {
	mu      sync.Mutex
	rentals []rentalEvent
	orders  []uuid.UUID
}

func (n *recordingNotifier) RentalStatusChanged(_ context.Context, rental *models.Rental, previous models.RentalStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rentals = append(n.rentals, rentalEvent{RentalID: rental.ID, From: previous, To: rental.Status})
}

func (n *recordingNotifier) OrderPaid(_ context.Context, order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order.ID)
}

func (n *recordingNotifier) rentalEvents() []rentalEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]rentalEvent(nil), n.rentals...)
}

func (n *recordingNotifier) paidOrders() []uuid.UUID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uuid.UUID(nil), n.orders...)
}

// fakeGateway answers every verification with a fixed status.
type fakeGateway struct {
	provider  models.PaymentProvider
	status    models.PaymentStatus
	verifyErr error
	charges   []*ChargeRequest
	verified  int
}

func (g *fakeGateway) Name() models.PaymentProvider { return g.provider }

func (g *fakeGateway) CreateCharge(_ context.Context, req *ChargeRequest) (*ChargeResult, error) {
	g.charges = append(g.charges, req)
	return &ChargeResult{
		Reference:   "ch_" + req.Reference,
		CheckoutURL: "https://pay.example/" + req.Reference,
	}, nil
}

func (g *fakeGateway) VerifyCharge(context.Context, string) (models.PaymentStatus, error) {
	g.verified++
	return g.status, g.verifyErr
}

// refundingGateway also implements Refunder.
type refundingGateway struct {
	fakeGateway
	refunds []decimal.Decimal
}

func (g *refundingGateway) Refund(_ context.Context, _ string, amount decimal.Decimal, _ string) error {
	g.refunds = append(g.refunds, amount)
	return nil
}

func newMemoryStore() *memory.Store {
	return memory.New()
}
