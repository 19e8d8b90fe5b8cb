// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

// Store groups the repositories over one database handle. Repositories obtained
// from the Store passed to Transaction's callback share that transaction.
type Store interface {
	Users() UserRepository
	Catalog() CatalogRepository
	Inventory() InventoryRepository
	Rentals() RentalRepository
	Carts() CartRepository
	Orders() OrderRepository
	Payments() PaymentRepository
	Audit() AuditRepository

	// Transaction runs fn atomically. Returning an error from fn rolls back every write made through tx.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type UserFilter struct {
	utils.PaginationParams
	Role   models.UserRole
	Status models.UserStatus
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
}

type ProductFilter struct {
	utils.PaginationParams
	Status *models.ProductStatus
}

type CatalogRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id uuid.UUID, withVariants bool) (*models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	// DeleteProductCascade removes the product with its variants, their units,
	// the units' assignments and any cart or rental lines that reference the variants.
	DeleteProductCascade(ctx context.Context, id uuid.UUID) error

	CreateVariant(ctx context.Context, variant *models.Variant) error
	UpdateVariant(ctx context.Context, variant *models.Variant) error
	GetVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error)
	// LockVariant reads the variant with a row lock held until the transaction ends.
	LockVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error)
}

type UnitFilter struct {
	utils.PaginationParams
	VariantID *uuid.UUID
	Status    models.UnitStatus
}

type InventoryRepository interface {
	CreateUnit(ctx context.Context, unit *models.InventoryUnit) error
	UpdateUnit(ctx context.Context, unit *models.InventoryUnit) error
	GetUnit(ctx context.Context, id uuid.UUID) (*models.InventoryUnit, error)
	GetUnitForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryUnit, error)
	ListUnits(ctx context.Context, filter UnitFilter) ([]models.InventoryUnit, int64, error)
	SetUnitsStatus(ctx context.Context, ids []uuid.UUID, status models.UnitStatus) error

	CountUnits(ctx context.Context, variantID uuid.UUID, statuses ...models.UnitStatus) (int64, error)
	// CountCommitted counts distinct units of the variant assigned to confirmed or
	// active rentals whose date range intersects [start, end].
	CountCommitted(ctx context.Context, variantID uuid.UUID, start, end time.Time) (int64, error)
	// CountCommittedForProduct counts units of any variant of the product held by confirmed or active rentals.
	CountCommittedForProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	// PickAvailable locks up to limit available units of the variant.
	PickAvailable(ctx context.Context, variantID uuid.UUID, limit int) ([]models.InventoryUnit, error)
}

type RentalFilter struct {
	utils.PaginationParams
	UserID *uuid.UUID
	Status models.RentalStatus
}

type RentalRepository interface {
	// Create writes the rental header only. Items are written with CreateItem.
	Create(ctx context.Context, rental *models.Rental) error
	CreateItem(ctx context.Context, item *models.RentalItem) error
	UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error
	GetByID(ctx context.Context, id uuid.UUID, withDetails bool) (*models.Rental, error)
	// GetForUpdate reads the rental with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RentalStatus) error
	List(ctx context.Context, filter RentalFilter) ([]models.Rental, int64, error)
	ListItems(ctx context.Context, rentalID uuid.UUID) ([]models.RentalItem, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Rental, error)

	ListAssignments(ctx context.Context, rentalID uuid.UUID) ([]models.RentalUnitAssignment, error)
	CreateAssignment(ctx context.Context, assignment *models.RentalUnitAssignment) error
	MarkAssignmentsReturned(ctx context.Context, rentalID uuid.UUID, at time.Time) error
	// ReservedQuantity sums item quantities of the variant on pending, confirmed or
	// active rentals whose date range intersects [start, end].
	ReservedQuantity(ctx context.Context, variantID uuid.UUID, start, end time.Time) (int64, error)
}

type CartRepository interface {
	ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
	FindItem(ctx context.Context, userID, variantID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type OrderFilter struct {
	utils.PaginationParams
	UserID *uuid.UUID
	Status models.OrderStatus
}

type OrderRepository interface {
	// Create writes the order together with its items.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetByReference(ctx context.Context, provider models.PaymentProvider, reference string) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
	ListByUser(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.Payment, int64, error)
}

type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}
