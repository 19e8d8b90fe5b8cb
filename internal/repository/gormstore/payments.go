// internal/repository/gormstore/payments.go
package gormstore

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

type paymentRepository struct {
	db *gorm.DB
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return translateError(r.db.WithContext(ctx).Create(payment).Error, "provider_reference")
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &payment, nil
}

func (r *paymentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Clauses(forUpdate).First(&payment, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "")
	}
	return &payment, nil
}

func (r *paymentRepository) GetByReference(ctx context.Context, provider models.PaymentProvider, reference string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_reference = ?", provider, reference).
		First(&payment).Error
	if err != nil {
		return nil, translateError(err, "")
	}
	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return translateError(r.db.WithContext(ctx).Save(payment).Error, "provider_reference")
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "")
	}

	query = utils.ApplySort(query, params, []string{"created_at", "amount", "status"})
	query = utils.ApplyPagination(query, params)

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		return nil, 0, translateError(err, "")
	}
	return payments, total, nil
}

type auditRepository struct {
	db *gorm.DB
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return translateError(r.db.WithContext(ctx).Create(entry).Error, "")
}
