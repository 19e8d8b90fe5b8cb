// internal/repository/gormstore/orders.go
package gormstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

type cartRepository struct {
	db *gorm.DB
}

func (r *cartRepository) ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).Preload("Variant").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, translateError(err, "")
	}
	return items, nil
}

func (r *cartRepository) GetItem(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &item, nil
}

func (r *cartRepository) FindItem(ctx context.Context, userID, variantID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).Where("user_id = ? AND variant_id = ?", userID, variantID).First(&item).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &item, nil
}

func (r *cartRepository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return translateError(r.db.WithContext(ctx).Omit("Variant").Create(item).Error, "variant_id")
}

func (r *cartRepository) UpdateItem(ctx context.Context, item *models.CartItem) error {
	return translateError(r.db.WithContext(ctx).Omit("Variant").Save(item).Error, "variant_id")
}

func (r *cartRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CartItem{}))
}

func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error, "")
}

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
	}
	return translateError(r.db.WithContext(ctx).Create(order).Error, "")
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &order, nil
}

func (r *orderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Clauses(forUpdate).First(&order, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	return affected(r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}))
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})

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

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "total_amount", "status"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var orders []models.Order
	if err := query.Preload("Items").Find(&orders).Error; err != nil {
		return nil, 0, translateError(err, "")
	}
	return orders, total, nil
}
