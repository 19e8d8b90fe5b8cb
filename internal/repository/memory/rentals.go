// internal/repository/memory/rentals.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
)

type rentalRepository struct {
	s *Store
}

func (r *rentalRepository) Create(ctx context.Context, rental *models.Rental) error {
	return r.s.do(ctx, func(st *state) error {
		if rental.Status == "" {
			rental.Status = models.RentalStatusPending
		}
		stamp(&rental.BaseModel)
		stored := *rental
		stored.Items = nil
		stored.Assignments = nil
		st.rentals[stored.ID] = stored
		return nil
	})
}

func (r *rentalRepository) CreateItem(ctx context.Context, item *models.RentalItem) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.rentals[item.RentalID]; !ok {
			return fmt.Errorf("database error: rental %s does not exist", item.RentalID)
		}
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		stored := *item
		stored.Variant = nil
		st.rentalItems[stored.ID] = stored
		return nil
	})
}

func (r *rentalRepository) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	return r.s.do(ctx, func(st *state) error {
		rental, ok := st.rentals[id]
		if !ok {
			return repository.ErrNotFound
		}
		rental.TotalAmount = total
		rental.UpdatedAt = time.Now()
		st.rentals[id] = rental
		return nil
	})
}

func (r *rentalRepository) GetByID(ctx context.Context, id uuid.UUID, withDetails bool) (*models.Rental, error) {
	var out models.Rental
	err := r.s.do(ctx, func(st *state) error {
		rental, ok := st.rentals[id]
		if !ok {
			return repository.ErrNotFound
		}
		if withDetails {
			rental.Items = itemsOf(st, id, true)
			rental.Assignments = assignmentsOf(st, id, true)
		}
		out = rental
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *rentalRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	return r.GetByID(ctx, id, false)
}

func (r *rentalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RentalStatus) error {
	return r.s.do(ctx, func(st *state) error {
		rental, ok := st.rentals[id]
		if !ok {
			return repository.ErrNotFound
		}
		rental.Status = status
		rental.UpdatedAt = time.Now()
		st.rentals[id] = rental
		return nil
	})
}

func (r *rentalRepository) List(ctx context.Context, filter repository.RentalFilter) ([]models.Rental, int64, error) {
	var out []models.Rental
	var total int64
	err := r.s.do(ctx, func(st *state) error {
		for _, rental := range st.rentals {
			if filter.UserID != nil && rental.UserID != *filter.UserID {
				continue
			}
			if filter.Status != "" && rental.Status != filter.Status {
				continue
			}
			rental.Items = itemsOf(st, rental.ID, false)
			out = append(out, rental)
		}
		total = int64(len(out))
		sortByCreated(out, func(r models.Rental) time.Time { return r.CreatedAt }, filter.PaginationParams)
		out = paginate(out, filter.PaginationParams)
		return nil
	})
	return out, total, err
}

func (r *rentalRepository) ListItems(ctx context.Context, rentalID uuid.UUID) ([]models.RentalItem, error) {
	var out []models.RentalItem
	err := r.s.do(ctx, func(st *state) error {
		out = itemsOf(st, rentalID, false)
		return nil
	})
	return out, err
}

func (r *rentalRepository) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Rental, error) {
	var out []models.Rental
	err := r.s.do(ctx, func(st *state) error {
		for _, rental := range st.rentals {
			if rental.Status == models.RentalStatusPending && rental.CreatedAt.Before(createdBefore) {
				out = append(out, rental)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

func (r *rentalRepository) ListAssignments(ctx context.Context, rentalID uuid.UUID) ([]models.RentalUnitAssignment, error) {
	var out []models.RentalUnitAssignment
	err := r.s.do(ctx, func(st *state) error {
		out = assignmentsOf(st, rentalID, false)
		return nil
	})
	return out, err
}

func (r *rentalRepository) CreateAssignment(ctx context.Context, assignment *models.RentalUnitAssignment) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.rentals[assignment.RentalID]; !ok {
			return fmt.Errorf("database error: rental %s does not exist", assignment.RentalID)
		}
		if _, ok := st.units[assignment.InventoryUnitID]; !ok {
			return fmt.Errorf("database error: unit %s does not exist", assignment.InventoryUnitID)
		}
		if assignment.ID == uuid.Nil {
			assignment.ID = uuid.New()
		}
		if assignment.AssignedAt.IsZero() {
			assignment.AssignedAt = time.Now()
		}
		stored := *assignment
		stored.InventoryUnit = nil
		st.assignments[stored.ID] = stored
		return nil
	})
}

func (r *rentalRepository) MarkAssignmentsReturned(ctx context.Context, rentalID uuid.UUID, at time.Time) error {
	return r.s.do(ctx, func(st *state) error {
		for id, assignment := range st.assignments {
			if assignment.RentalID != rentalID || assignment.ReturnedAt != nil {
				continue
			}
			returned := at
			assignment.ReturnedAt = &returned
			st.assignments[id] = assignment
		}
		return nil
	})
}

func (r *rentalRepository) ReservedQuantity(ctx context.Context, variantID uuid.UUID, start, end time.Time) (int64, error) {
	var quantity int64
	err := r.s.do(ctx, func(st *state) error {
		for _, item := range st.rentalItems {
			if item.VariantID != variantID {
				continue
			}
			rental, ok := st.rentals[item.RentalID]
			if !ok {
				continue
			}
			reserving := rental.Status == models.RentalStatusPending || rental.Status.Committing()
			if reserving && overlaps(rental.StartDate, rental.EndDate, start, end) {
				quantity += int64(item.Quantity)
			}
		}
		return nil
	})
	return quantity, err
}

func itemsOf(st *state, rentalID uuid.UUID, withVariant bool) []models.RentalItem {
	items := []models.RentalItem{}
	for _, item := range st.rentalItems {
		if item.RentalID != rentalID {
			continue
		}
		if withVariant {
			if variant, ok := st.variants[item.VariantID]; ok {
				v := variant
				item.Variant = &v
			}
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID.String() < items[j].ID.String() })
	return items
}

func assignmentsOf(st *state, rentalID uuid.UUID, withUnit bool) []models.RentalUnitAssignment {
	assignments := []models.RentalUnitAssignment{}
	for _, assignment := range st.assignments {
		if assignment.RentalID != rentalID {
			continue
		}
		if withUnit {
			if unit, ok := st.units[assignment.InventoryUnitID]; ok {
				u := unit
				assignment.InventoryUnit = &u
			}
		}
		assignments = append(assignments, assignment)
	}
	sort.SliceStable(assignments, func(i, j int) bool {
		return assignments[i].AssignedAt.Before(assignments[j].AssignedAt)
	})
	return assignments
}
