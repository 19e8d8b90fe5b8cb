// internal/repository/memory/inventory.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
)

type inventoryRepository struct {
	s *Store
}

func (r *inventoryRepository) CreateUnit(ctx context.Context, unit *models.InventoryUnit) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.variants[unit.VariantID]; !ok {
			return fmt.Errorf("database error: variant %s does not exist", unit.VariantID)
		}
		if serialTaken(st, unit.SerialNumber, uuid.Nil) {
			return &repository.DuplicateError{Field: "serial_number"}
		}
		if unit.Status == "" {
			unit.Status = models.UnitStatusAvailable
		}
		stamp(&unit.BaseModel)
		u := *unit
		u.Variant = nil
		st.units[u.ID] = u
		return nil
	})
}

func (r *inventoryRepository) UpdateUnit(ctx context.Context, unit *models.InventoryUnit) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.units[unit.ID]; !ok {
			return repository.ErrNotFound
		}
		if serialTaken(st, unit.SerialNumber, unit.ID) {
			return &repository.DuplicateError{Field: "serial_number"}
		}
		unit.UpdatedAt = time.Now()
		u := *unit
		u.Variant = nil
		st.units[u.ID] = u
		return nil
	})
}

func (r *inventoryRepository) GetUnit(ctx context.Context, id uuid.UUID) (*models.InventoryUnit, error) {
	var out models.InventoryUnit
	err := r.s.do(ctx, func(st *state) error {
		unit, ok := st.units[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *inventoryRepository) GetUnitForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryUnit, error) {
	return r.GetUnit(ctx, id)
}

func (r *inventoryRepository) ListUnits(ctx context.Context, filter repository.UnitFilter) ([]models.InventoryUnit, int64, error) {
	var out []models.InventoryUnit
	var total int64
	err := r.s.do(ctx, func(st *state) error {
		for _, unit := range st.units {
			if filter.VariantID != nil && unit.VariantID != *filter.VariantID {
				continue
			}
			if filter.Status != "" && unit.Status != filter.Status {
				continue
			}
			if filter.Search != "" && !containsFold(unit.SerialNumber, filter.Search) {
				continue
			}
			out = append(out, unit)
		}
		total = int64(len(out))
		sortByCreated(out, func(u models.InventoryUnit) time.Time { return u.CreatedAt }, filter.PaginationParams)
		out = paginate(out, filter.PaginationParams)
		return nil
	})
	return out, total, err
}

func (r *inventoryRepository) SetUnitsStatus(ctx context.Context, ids []uuid.UUID, status models.UnitStatus) error {
	return r.s.do(ctx, func(st *state) error {
		now := time.Now()
		for _, id := range ids {
			unit, ok := st.units[id]
			if !ok {
				continue
			}
			unit.Status = status
			unit.UpdatedAt = now
			st.units[id] = unit
		}
		return nil
	})
}

func (r *inventoryRepository) CountUnits(ctx context.Context, variantID uuid.UUID, statuses ...models.UnitStatus) (int64, error) {
	var count int64
	err := r.s.do(ctx, func(st *state) error {
		for _, unit := range st.units {
			if unit.VariantID != variantID {
				continue
			}
			if len(statuses) > 0 && !hasUnitStatus(statuses, unit.Status) {
				continue
			}
			count++
		}
		return nil
	})
	return count, err
}

func (r *inventoryRepository) CountCommitted(ctx context.Context, variantID uuid.UUID, start, end time.Time) (int64, error) {
	var count int64
	err := r.s.do(ctx, func(st *state) error {
		seen := map[uuid.UUID]bool{}
		for _, assignment := range st.assignments {
			unit, ok := st.units[assignment.InventoryUnitID]
			if !ok || unit.VariantID != variantID {
				continue
			}
			rental, ok := st.rentals[assignment.RentalID]
			if !ok || !rental.Status.Committing() {
				continue
			}
			if overlaps(rental.StartDate, rental.EndDate, start, end) {
				seen[unit.ID] = true
			}
		}
		count = int64(len(seen))
		return nil
	})
	return count, err
}

func (r *inventoryRepository) CountCommittedForProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.s.do(ctx, func(st *state) error {
		seen := map[uuid.UUID]bool{}
		for _, assignment := range st.assignments {
			unit, ok := st.units[assignment.InventoryUnitID]
			if !ok {
				continue
			}
			variant, ok := st.variants[unit.VariantID]
			if !ok || variant.ProductID != productID {
				continue
			}
			if rental, ok := st.rentals[assignment.RentalID]; ok && rental.Status.Committing() {
				seen[unit.ID] = true
			}
		}
		count = int64(len(seen))
		return nil
	})
	return count, err
}

func (r *inventoryRepository) PickAvailable(ctx context.Context, variantID uuid.UUID, limit int) ([]models.InventoryUnit, error) {
	var out []models.InventoryUnit
	err := r.s.do(ctx, func(st *state) error {
		for _, unit := range st.units {
			if unit.VariantID == variantID && unit.Status == models.UnitStatusAvailable {
				out = append(out, unit)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
		if len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

func serialTaken(st *state, serial string, except uuid.UUID) bool {
	for id, unit := range st.units {
		if id != except && unit.SerialNumber == serial {
			return true
		}
	}
	return false
}

func hasUnitStatus(statuses []models.UnitStatus, status models.UnitStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
