// internal/services/inventory_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

type InventoryService struct {
	store   repository.Store
	timeout time.Duration
}

type CreateUnitRequest struct {
	VariantID    uuid.UUID `json:"variant_id" validate:"required"`
	SerialNumber string    `json:"serial_number" validate:"required,serial_number"`
	Location     *string   `json:"location,omitempty" validate:"omitempty,max=255"`
	Status       string    `json:"status,omitempty"`
}

type UpdateUnitRequest struct {
	Status   *string `json:"status,omitempty"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=255"`
}

func NewInventoryService(store repository.Store, timeout time.Duration) *InventoryService {
	return &InventoryService{
		store:   store,
		timeout: timeout,
	}
}

func (s *InventoryService) CreateUnit(ctx context.Context, req *CreateUnitRequest) (*models.InventoryUnit, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	status := models.UnitStatusAvailable
	if req.Status != "" {
		status = models.UnitStatus(req.Status)
		if !status.Valid() {
			return nil, &InvalidStatusError{Status: req.Status}
		}
	}

	serial := strings.TrimSpace(req.SerialNumber)
	if serial == "" {
		return nil, &ValidationError{Field: "serial_number", Reason: "must not be empty"}
	}

	if _, err := s.store.Catalog().GetVariant(ctx, req.VariantID); err != nil {
		return nil, translate(err, "variant", req.VariantID.String())
	}

	unit := &models.InventoryUnit{
		VariantID:    req.VariantID,
		SerialNumber: serial,
		Status:       status,
		Location:     req.Location,
	}
	if err := s.store.Inventory().CreateUnit(ctx, unit); err != nil {
		return nil, translate(err, "inventory_unit", serial)
	}

	logrus.WithFields(logrus.Fields{
		"unit_id":    unit.ID,
		"variant_id": unit.VariantID,
		"serial":     unit.SerialNumber,
	}).Info("Inventory unit created")

	return unit, nil
}

func (s *InventoryService) UpdateUnit(ctx context.Context, id uuid.UUID, req *UpdateUnitRequest) (*models.InventoryUnit, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	var updated *models.InventoryUnit
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		unit, err := tx.Inventory().GetUnitForUpdate(ctx, id)
		if err != nil {
			return translate(err, "inventory_unit", id.String())
		}

		if req.Status != nil {
			status := models.UnitStatus(*req.Status)
			if !status.Valid() {
				return &InvalidStatusError{Status: *req.Status}
			}
			unit.Status = status
		}
		if req.Location != nil {
			unit.Location = req.Location
		}

		if err := tx.Inventory().UpdateUnit(ctx, unit); err != nil {
			return translate(err, "inventory_unit", id.String())
		}
		updated = unit
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *InventoryService) GetUnit(ctx context.Context, id uuid.UUID) (*models.InventoryUnit, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	unit, err := s.store.Inventory().GetUnit(ctx, id)
	if err != nil {
		return nil, translate(err, "inventory_unit", id.String())
	}
	return unit, nil
}

func (s *InventoryService) ListUnits(ctx context.Context, filter repository.UnitFilter) ([]models.InventoryUnit, int64, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, &InvalidStatusError{Status: string(filter.Status)}
	}

	units, total, err := s.store.Inventory().ListUnits(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory units: %w", err)
	}
	return units, total, nil
}

// ComputeAvailability reports how many units of a variant are free for the closed
// date range [start, end]. The result is a snapshot and reserves nothing. Available
// may be negative when the variant is over-committed.
func (s *InventoryService) ComputeAvailability(ctx context.Context, variantID uuid.UUID, start, end time.Time) (*models.Availability, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	start, end = utils.TruncateDate(start), utils.TruncateDate(end)
	if end.Before(start) {
		return nil, &ValidationError{Field: "end_date", Reason: "must not be before start_date"}
	}

	if _, err := s.store.Catalog().GetVariant(ctx, variantID); err != nil {
		return nil, translate(err, "variant", variantID.String())
	}

	total, err := s.store.Inventory().CountUnits(ctx, variantID, models.UnitStatusAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to count units: %w", err)
	}

	committed, err := s.store.Inventory().CountCommitted(ctx, variantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to count committed units: %w", err)
	}

	return &models.Availability{
		VariantID: variantID,
		StartDate: utils.FormatDate(start),
		EndDate:   utils.FormatDate(end),
		Total:     total,
		Committed: committed,
		Available: total - committed,
	}, nil
}
