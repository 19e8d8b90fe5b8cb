// internal/repository/gormstore/rentals.go
package gormstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

const reservedQuantitySQL = `
SELECT COALESCE(SUM(i.quantity), 0)
FROM rental_items i
JOIN rentals r ON r.id = i.rental_id
WHERE i.variant_id = ?
  AND r.status IN ?
  AND r.start_date <= CAST(? AS date)
  AND CAST(? AS date) <= r.end_date`

var reservingStatuses = []string{
	string(models.RentalStatusPending),
	string(models.RentalStatusConfirmed),
	string(models.RentalStatusActive),
}

type rentalRepository struct {
	db *gorm.DB
}

func (r *rentalRepository) Create(ctx context.Context, rental *models.Rental) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(rental).Error, "")
}

func (r *rentalRepository) CreateItem(ctx context.Context, item *models.RentalItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return translateError(r.db.WithContext(ctx).Omit("Variant").Create(item).Error, "")
}

func (r *rentalRepository) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	return affected(r.db.WithContext(ctx).Model(&models.Rental{}).Where("id = ?", id).
		Updates(map[string]interface{}{"total_amount": total, "updated_at": time.Now()}))
}

func (r *rentalRepository) GetByID(ctx context.Context, id uuid.UUID, withDetails bool) (*models.Rental, error) {
	query := r.db.WithContext(ctx)
	if withDetails {
		query = query.Preload("Items").Preload("Items.Variant").Preload("Assignments").Preload("Assignments.InventoryUnit")
	}

	var rental models.Rental
	if err := query.First(&rental, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &rental, nil
}

func (r *rentalRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	var rental models.Rental
	if err := r.db.WithContext(ctx).Clauses(forUpdate).First(&rental, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &rental, nil
}

func (r *rentalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RentalStatus) error {
	return affected(r.db.WithContext(ctx).Model(&models.Rental{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}))
}

func (r *rentalRepository) List(ctx context.Context, filter repository.RentalFilter) ([]models.Rental, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Rental{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "")
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "start_date", "end_date", "total_amount", "status"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var rentals []models.Rental
	if err := query.Preload("Items").Find(&rentals).Error; err != nil {
		return nil, 0, translateError(err, "")
	}
	return rentals, total, nil
}

func (r *rentalRepository) ListItems(ctx context.Context, rentalID uuid.UUID) ([]models.RentalItem, error) {
	var items []models.RentalItem
	if err := r.db.WithContext(ctx).Where("rental_id = ?", rentalID).Find(&items).Error; err != nil {
		return nil, translateError(err, "")
	}
	return items, nil
}

func (r *rentalRepository) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Rental, error) {
	var rentals []models.Rental
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.RentalStatusPending, createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&rentals).Error
	if err != nil {
		return nil, translateError(err, "")
	}
	return rentals, nil
}

func (r *rentalRepository) ListAssignments(ctx context.Context, rentalID uuid.UUID) ([]models.RentalUnitAssignment, error) {
	var assignments []models.RentalUnitAssignment
	if err := r.db.WithContext(ctx).Where("rental_id = ?", rentalID).Find(&assignments).Error; err != nil {
		return nil, translateError(err, "")
	}
	return assignments, nil
}

func (r *rentalRepository) CreateAssignment(ctx context.Context, assignment *models.RentalUnitAssignment) error {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	return translateError(r.db.WithContext(ctx).Omit("InventoryUnit").Create(assignment).Error, "inventory_unit_id")
}

func (r *rentalRepository) MarkAssignmentsReturned(ctx context.Context, rentalID uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.RentalUnitAssignment{}).
		Where("rental_id = ? AND returned_at IS NULL", rentalID).
		Update("returned_at", at).Error
	return translateError(err, "")
}

func (r *rentalRepository) ReservedQuantity(ctx context.Context, variantID uuid.UUID, start, end time.Time) (int64, error) {
	var quantity int64
	err := r.db.WithContext(ctx).
		Raw(reservedQuantitySQL, variantID, reservingStatuses, end.Format(dateLayout), start.Format(dateLayout)).
		Scan(&quantity).Error
	if err != nil {
		return 0, translateError(err, "")
	}
	return quantity, nil
}
