// internal/repository/gormstore/store.go
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ledrent/ledrent-backend/internal/repository"
)

// Store implements repository.Store on a GORM handle. The handle must be opened
// with TranslateError enabled so unique violations surface as gorm.ErrDuplicatedKey.
type Store struct {
	db *gorm.DB
}

var _ repository.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() repository.UserRepository          { return &userRepository{db: s.db} }
func (s *Store) Catalog() repository.CatalogRepository     { return &catalogRepository{db: s.db} }
func (s *Store) Inventory() repository.InventoryRepository { return &inventoryRepository{db: s.db} }
func (s *Store) Rentals() repository.RentalRepository      { return &rentalRepository{db: s.db} }
func (s *Store) Carts() repository.CartRepository          { return &cartRepository{db: s.db} }
func (s *Store) Orders() repository.OrderRepository        { return &orderRepository{db: s.db} }
func (s *Store) Payments() repository.PaymentRepository    { return &paymentRepository{db: s.db} }
func (s *Store) Audit() repository.AuditRepository         { return &auditRepository{db: s.db} }

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

var forUpdate = clause.Locking{Strength: "UPDATE"}

const dateLayout = "2006-01-02"

// translateError maps GORM sentinels onto repository sentinels. field names the
// unique column a duplicate key most likely refers to.
func translateError(err error, field string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &repository.DuplicateError{Field: field}
	default:
		return fmt.Errorf("database error: %w", err)
	}
}

// affected turns a zero-row update into ErrNotFound.
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translateError(res.Error, "")
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
