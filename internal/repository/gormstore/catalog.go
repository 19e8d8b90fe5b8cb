// internal/repository/gormstore/catalog.go
package gormstore

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

type catalogRepository struct {
	db *gorm.DB
}

func (r *catalogRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	return translateError(r.db.WithContext(ctx).Omit("Variants").Create(product).Error, "slug")
}

func (r *catalogRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return translateError(r.db.WithContext(ctx).Omit("Variants").Save(product).Error, "slug")
}

func (r *catalogRepository) GetProduct(ctx context.Context, id uuid.UUID, withVariants bool) (*models.Product, error) {
	query := r.db.WithContext(ctx)
	if withVariants {
		query = query.Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
	}

	var product models.Product
	if err := query.First(&product, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &product, nil
}

func (r *catalogRepository) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "")
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "name", "category"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var products []models.Product
	if err := query.Preload("Variants").Find(&products).Error; err != nil {
		return nil, 0, translateError(err, "")
	}
	return products, total, nil
}

func (r *catalogRepository) DeleteProductCascade(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)

	variantIDs := db.Model(&models.Variant{}).Select("id").Where("product_id = ?", id)
	unitIDs := db.Model(&models.InventoryUnit{}).Select("id").Where("variant_id IN (?)", variantIDs)

	steps := []func() error{
		func() error {
			return db.Where("inventory_unit_id IN (?)", unitIDs).Delete(&models.RentalUnitAssignment{}).Error
		},
		func() error { return db.Where("variant_id IN (?)", variantIDs).Delete(&models.RentalItem{}).Error },
		func() error { return db.Where("variant_id IN (?)", variantIDs).Delete(&models.CartItem{}).Error },
		func() error { return db.Where("variant_id IN (?)", variantIDs).Delete(&models.InventoryUnit{}).Error },
		func() error { return db.Where("product_id = ?", id).Delete(&models.Variant{}).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return translateError(err, "")
		}
	}

	return affected(db.Where("id = ?", id).Delete(&models.Product{}))
}

func (r *catalogRepository) CreateVariant(ctx context.Context, variant *models.Variant) error {
	return translateError(r.db.WithContext(ctx).Omit("Units").Create(variant).Error, "sku")
}

func (r *catalogRepository) UpdateVariant(ctx context.Context, variant *models.Variant) error {
	return translateError(r.db.WithContext(ctx).Omit("Units").Save(variant).Error, "sku")
}

func (r *catalogRepository) GetVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &variant, nil
}

func (r *catalogRepository) LockVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	if err := r.db.WithContext(ctx).Clauses(forUpdate).First(&variant, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &variant, nil
}
