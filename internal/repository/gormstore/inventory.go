// internal/repository/gormstore/inventory.go
package gormstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

// Intervals [a,b] and [c,d] intersect iff a <= d AND c <= b.
const committedUnitsSQL = `
SELECT COUNT(DISTINCT a.inventory_unit_id)
FROM rental_unit_assignments a
JOIN rentals r ON r.id = a.rental_id
JOIN inventory_units u ON u.id = a.inventory_unit_id
WHERE u.variant_id = ?
  AND r.status IN ?
  AND r.start_date <= CAST(? AS date)
  AND CAST(? AS date) <= r.end_date`

const committedProductUnitsSQL = `
SELECT COUNT(DISTINCT a.inventory_unit_id)
FROM rental_unit_assignments a
JOIN rentals r ON r.id = a.rental_id
JOIN inventory_units u ON u.id = a.inventory_unit_id
JOIN variants v ON v.id = u.variant_id
WHERE v.product_id = ?
  AND r.status IN ?`

var committingStatuses = []string{
	string(models.RentalStatusConfirmed),
	string(models.RentalStatusActive),
}

type inventoryRepository struct {
	db *gorm.DB
}

func (r *inventoryRepository) CreateUnit(ctx context.Context, unit *models.InventoryUnit) error {
	return translateError(r.db.WithContext(ctx).Omit("Variant").Create(unit).Error, "serial_number")
}

func (r *inventoryRepository) UpdateUnit(ctx context.Context, unit *models.InventoryUnit) error {
	return translateError(r.db.WithContext(ctx).Omit("Variant").Save(unit).Error, "serial_number")
}

func (r *inventoryRepository) GetUnit(ctx context.Context, id uuid.UUID) (*models.InventoryUnit, error) {
	var unit models.InventoryUnit
	if err := r.db.WithContext(ctx).First(&unit, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &unit, nil
}

func (r *inventoryRepository) GetUnitForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryUnit, error) {
	var unit models.InventoryUnit
	if err := r.db.WithContext(ctx).Clauses(forUpdate).First(&unit, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &unit, nil
}

func (r *inventoryRepository) ListUnits(ctx context.Context, filter repository.UnitFilter) ([]models.InventoryUnit, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryUnit{})

	if filter.VariantID != nil {
		query = query.Where("variant_id = ?", *filter.VariantID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("serial_number ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "")
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "serial_number", "status"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var units []models.InventoryUnit
	if err := query.Find(&units).Error; err != nil {
		return nil, 0, translateError(err, "")
	}
	return units, total, nil
}

func (r *inventoryRepository) SetUnitsStatus(ctx context.Context, ids []uuid.UUID, status models.UnitStatus) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.InventoryUnit{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
	return translateError(err, "")
}

func (r *inventoryRepository) CountUnits(ctx context.Context, variantID uuid.UUID, statuses ...models.UnitStatus) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryUnit{}).Where("variant_id = ?", variantID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err, "")
	}
	return count, nil
}

func (r *inventoryRepository) CountCommitted(ctx context.Context, variantID uuid.UUID, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Raw(committedUnitsSQL, variantID, committingStatuses, end.Format(dateLayout), start.Format(dateLayout)).
		Scan(&count).Error
	if err != nil {
		return 0, translateError(err, "")
	}
	return count, nil
}

func (r *inventoryRepository) CountCommittedForProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(committedProductUnitsSQL, productID, committingStatuses).Scan(&count).Error; err != nil {
		return 0, translateError(err, "")
	}
	return count, nil
}

func (r *inventoryRepository) PickAvailable(ctx context.Context, variantID uuid.UUID, limit int) ([]models.InventoryUnit, error) {
	var units []models.InventoryUnit
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("variant_id = ? AND status = ?", variantID, models.UnitStatusAvailable).
		Order("created_at ASC").
		Limit(limit).
		Find(&units).Error
	if err != nil {
		return nil, translateError(err, "")
	}
	return units, nil
}
