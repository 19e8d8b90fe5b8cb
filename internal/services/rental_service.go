// internal/services/rental_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

type RentalService struct {
	store           repository.Store
	policy          TransitionPolicy
	enforceCapacity bool
	timeout         time.Duration
	notifier        Notifier
	now             func() time.Time
}

type RentalOptions struct {
	Policy          TransitionPolicy
	EnforceCapacity bool
	StoreTimeout    time.Duration
	Notifier        Notifier
}

// RentalItemInput is one requested line. A nil price books at the variant's current rent price.
type RentalItemInput struct {
	VariantID           uuid.UUID        `json:"variant_id" validate:"required"`
	Quantity            int              `json:"quantity" validate:"required,min=1"`
	UnitRentPricePerDay *decimal.Decimal `json:"unit_rent_price_per_day,omitempty"`
}

type CreateRentalInput struct {
	UserID          uuid.UUID
	StartDate       time.Time
	EndDate         time.Time
	Items           []RentalItemInput
	DeliveryAddress *string
}

type CreateRentalResult struct {
	RentalID    uuid.UUID       `json:"rental_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Rental      *models.Rental  `json:"rental"`
}

func NewRentalService(store repository.Store, opts RentalOptions) *RentalService {
	policy := opts.Policy
	if policy == nil {
		policy = LoosePolicy{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &RentalService{
		store:           store,
		policy:          policy,
		enforceCapacity: opts.EnforceCapacity,
		timeout:         opts.StoreTimeout,
		notifier:        notifier,
		now:             time.Now,
	}
}

// CreateRental books the given items for the inclusive date range and returns the
// computed total. Header, items and total are written in one transaction. Unless
// capacity enforcement is enabled, availability is not checked.
func (s *RentalService) CreateRental(ctx context.Context, in *CreateRentalInput) (*CreateRentalResult, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	start, end := utils.TruncateDate(in.StartDate), utils.TruncateDate(in.EndDate)
	if err := validateRentalInput(start, end, in.Items); err != nil {
		return nil, err
	}
	days := models.RentalDays(start, end)

	var result *CreateRentalResult
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, in.UserID); err != nil {
			return translate(err, "user", in.UserID.String())
		}

		items, err := s.resolveItems(ctx, tx, in.Items)
		if err != nil {
			return err
		}

		if s.enforceCapacity {
			if err := s.checkCapacity(ctx, tx, items, start, end); err != nil {
				return err
			}
		}

		rental := &models.Rental{
			UserID:          in.UserID,
			StartDate:       start,
			EndDate:         end,
			Status:          models.RentalStatusPending,
			TotalAmount:     decimal.Zero,
			DeliveryAddress: in.DeliveryAddress,
		}
		if err := tx.Rentals().Create(ctx, rental); err != nil {
			return fmt.Errorf("failed to create rental: %w", err)
		}

		total := decimal.Zero
		for i := range items {
			items[i].RentalID = rental.ID
			if err := tx.Rentals().CreateItem(ctx, &items[i]); err != nil {
				return fmt.Errorf("failed to create rental item: %w", err)
			}
			line := items[i].UnitRentPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity))).Mul(decimal.NewFromInt(int64(days)))
			total = total.Add(line)
		}
		total = total.Round(2)

		if err := tx.Rentals().UpdateTotal(ctx, rental.ID, total); err != nil {
			return fmt.Errorf("failed to write rental total: %w", err)
		}
		rental.TotalAmount = total
		rental.Items = items

		result = &CreateRentalResult{RentalID: rental.ID, TotalAmount: total, Rental: rental}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"rental_id": result.RentalID,
		"user_id":   in.UserID,
		"days":      days,
		"total":     result.TotalAmount.StringFixed(2),
	}).Info("Rental created")

	return result, nil
}

func validateRentalInput(start, end time.Time, items []RentalItemInput) error {
	if end.Before(start) {
		return &ValidationError{Field: "end_date", Reason: "must not be before start_date"}
	}
	if len(items) == 0 {
		return &ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	for i, item := range items {
		if item.VariantID == uuid.Nil {
			return &ValidationError{Field: fmt.Sprintf("items[%d].variant_id", i), Reason: "is required"}
		}
		if item.Quantity <= 0 {
			return &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "must be positive"}
		}
		if item.UnitRentPricePerDay != nil && !item.UnitRentPricePerDay.IsPositive() {
			return &ValidationError{Field: fmt.Sprintf("items[%d].unit_rent_price_per_day", i), Reason: "must be positive"}
		}
	}
	return nil
}

// resolveItems checks each variant exists and is rentable and snapshots its price.
func (s *RentalService) resolveItems(ctx context.Context, tx repository.Store, inputs []RentalItemInput) ([]models.RentalItem, error) {
	items := make([]models.RentalItem, 0, len(inputs))
	for i, in := range inputs {
		var variant *models.Variant
		var err error
		if s.enforceCapacity {
			variant, err = tx.Catalog().LockVariant(ctx, in.VariantID)
		} else {
			variant, err = tx.Catalog().GetVariant(ctx, in.VariantID)
		}
		if err != nil {
			return nil, translate(err, "variant", in.VariantID.String())
		}
		if !variant.IsRentable {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].variant_id", i), Reason: "variant is not available for rent"}
		}

		price := variant.RentPricePerDay
		if in.UnitRentPricePerDay != nil {
			price = *in.UnitRentPricePerDay
		}
		if !price.IsPositive() {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].unit_rent_price_per_day", i), Reason: "must be positive"}
		}

		items = append(items, models.RentalItem{
			VariantID:     in.VariantID,
			Quantity:      in.Quantity,
			UnitRentPrice: price,
		})
	}
	return items, nil
}

// checkCapacity requires, per variant, that quantities already reserved by
// overlapping pending, confirmed or active rentals plus the new request fit in the
// pool of serviceable units. Variant rows are locked by resolveItems, so concurrent
// bookings of the same variant serialize here.
func (s *RentalService) checkCapacity(ctx context.Context, tx repository.Store, items []models.RentalItem, start, end time.Time) error {
	requested := map[uuid.UUID]int64{}
	order := []uuid.UUID{}
	for _, item := range items {
		if _, seen := requested[item.VariantID]; !seen {
			order = append(order, item.VariantID)
		}
		requested[item.VariantID] += int64(item.Quantity)
	}

	for _, variantID := range order {
		pool, err := tx.Inventory().CountUnits(ctx, variantID, models.UnitStatusAvailable, models.UnitStatusRented)
		if err != nil {
			return fmt.Errorf("failed to count units: %w", err)
		}
		reserved, err := tx.Rentals().ReservedQuantity(ctx, variantID, start, end)
		if err != nil {
			return fmt.Errorf("failed to sum reservations: %w", err)
		}

		free := pool - reserved
		if reserved+requested[variantID] > pool {
			if free < 0 {
				free = 0
			}
			return &CapacityError{VariantID: variantID.String(), Requested: requested[variantID], Available: free}
		}
	}
	return nil
}

// TransitionRental moves a rental to newStatus. Entering returned or cancelled from
// any other status releases the rental's assigned units back to available, and
// returned also stamps the assignments' return time. Re-entering either status
// releases nothing.
func (s *RentalService) TransitionRental(ctx context.Context, rentalID uuid.UUID, newStatus string) (*models.Rental, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	status := models.RentalStatus(newStatus)
	if !status.Valid() {
		return nil, &InvalidStatusError{Status: newStatus}
	}

	var updated *models.Rental
	var previous models.RentalStatus
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		updated, previous, err = s.transitionInTx(ctx, tx, rentalID, status)
		return err
	})
	if err != nil {
		return nil, err
	}

	if previous != status {
		s.notifier.RentalStatusChanged(ctx, updated, previous)
	}

	return updated, nil
}

// transitionInTx runs the transition inside a caller-owned transaction.
func (s *RentalService) transitionInTx(ctx context.Context, tx repository.Store, rentalID uuid.UUID, status models.RentalStatus) (*models.Rental, models.RentalStatus, error) {
	rental, err := tx.Rentals().GetForUpdate(ctx, rentalID)
	if err != nil {
		return nil, "", translate(err, "rental", rentalID.String())
	}
	previous := rental.Status

	if !s.policy.Allow(previous, status) {
		return nil, previous, &InvalidStatusError{Status: string(status), From: string(previous)}
	}

	if err := tx.Rentals().UpdateStatus(ctx, rentalID, status); err != nil {
		return nil, previous, translate(err, "rental", rentalID.String())
	}

	released := 0
	if status.Releasing() && !previous.Releasing() {
		assignments, err := tx.Rentals().ListAssignments(ctx, rentalID)
		if err != nil {
			return nil, previous, fmt.Errorf("failed to load assignments: %w", err)
		}

		// Units on returned assignments may already be out on another rental.
		unitIDs := make([]uuid.UUID, 0, len(assignments))
		for _, a := range assignments {
			if a.ReturnedAt == nil {
				unitIDs = append(unitIDs, a.InventoryUnitID)
			}
		}
		if err := tx.Inventory().SetUnitsStatus(ctx, unitIDs, models.UnitStatusAvailable); err != nil {
			return nil, previous, fmt.Errorf("failed to release units: %w", err)
		}

		if status == models.RentalStatusReturned {
			if err := tx.Rentals().MarkAssignmentsReturned(ctx, rentalID, s.now()); err != nil {
				return nil, previous, fmt.Errorf("failed to stamp returns: %w", err)
			}
		}
		released = len(unitIDs)
	}

	updated, err := tx.Rentals().GetByID(ctx, rentalID, true)
	if err != nil {
		return nil, previous, translate(err, "rental", rentalID.String())
	}

	logrus.WithFields(logrus.Fields{
		"rental_id":      rentalID,
		"from":           previous,
		"to":             status,
		"policy":         s.policy.Name(),
		"units_released": released,
	}).Info("Rental status changed")

	return updated, previous, nil
}

// AssignUnits allocates physical units to a confirmed or active rental and marks
// them rented. With no unit ids, available units are picked for every item still
// short of its quantity.
func (s *RentalService) AssignUnits(ctx context.Context, rentalID uuid.UUID, unitIDs []uuid.UUID) (*models.Rental, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	var updated *models.Rental
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		rental, err := tx.Rentals().GetForUpdate(ctx, rentalID)
		if err != nil {
			return translate(err, "rental", rentalID.String())
		}
		if !rental.Status.Committing() {
			return &ConflictError{Resource: "rental", Reason: fmt.Sprintf("cannot assign units to a %s rental", rental.Status)}
		}

		outstanding, order, err := s.outstandingByVariant(ctx, tx, rentalID)
		if err != nil {
			return err
		}

		var units []models.InventoryUnit
		if len(unitIDs) > 0 {
			units, err = s.explicitUnits(ctx, tx, unitIDs, outstanding)
		} else {
			units, err = s.pickUnits(ctx, tx, outstanding, order)
		}
		if err != nil {
			return err
		}
		if len(units) == 0 {
			return &ValidationError{Field: "unit_ids", Reason: "rental is already fully assigned"}
		}

		now := s.now()
		ids := make([]uuid.UUID, 0, len(units))
		for _, unit := range units {
			assignment := &models.RentalUnitAssignment{
				RentalID:        rentalID,
				InventoryUnitID: unit.ID,
				AssignedAt:      now,
			}
			if err := tx.Rentals().CreateAssignment(ctx, assignment); err != nil {
				return fmt.Errorf("failed to create assignment: %w", err)
			}
			ids = append(ids, unit.ID)
		}
		if err := tx.Inventory().SetUnitsStatus(ctx, ids, models.UnitStatusRented); err != nil {
			return fmt.Errorf("failed to mark units rented: %w", err)
		}

		updated, err = tx.Rentals().GetByID(ctx, rentalID, true)
		if err != nil {
			return translate(err, "rental", rentalID.String())
		}

		logrus.WithFields(logrus.Fields{
			"rental_id": rentalID,
			"units":     len(ids),
		}).Info("Units assigned to rental")
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// outstandingByVariant returns, per variant on the rental, how many units are
// still to be assigned. Assignments already returned do not count.
func (s *RentalService) outstandingByVariant(ctx context.Context, tx repository.Store, rentalID uuid.UUID) (map[uuid.UUID]int, []uuid.UUID, error) {
	items, err := tx.Rentals().ListItems(ctx, rentalID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rental items: %w", err)
	}

	outstanding := map[uuid.UUID]int{}
	order := []uuid.UUID{}
	for _, item := range items {
		if _, seen := outstanding[item.VariantID]; !seen {
			order = append(order, item.VariantID)
		}
		outstanding[item.VariantID] += item.Quantity
	}

	assignments, err := tx.Rentals().ListAssignments(ctx, rentalID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	for _, a := range assignments {
		if a.ReturnedAt != nil {
			continue
		}
		unit, err := tx.Inventory().GetUnit(ctx, a.InventoryUnitID)
		if err != nil {
			return nil, nil, translate(err, "inventory_unit", a.InventoryUnitID.String())
		}
		outstanding[unit.VariantID]--
	}

	return outstanding, order, nil
}

func (s *RentalService) explicitUnits(ctx context.Context, tx repository.Store, unitIDs []uuid.UUID, outstanding map[uuid.UUID]int) ([]models.InventoryUnit, error) {
	seen := map[uuid.UUID]bool{}
	units := make([]models.InventoryUnit, 0, len(unitIDs))
	for _, id := range unitIDs {
		if seen[id] {
			return nil, &ValidationError{Field: "unit_ids", Reason: fmt.Sprintf("unit %s listed twice", id)}
		}
		seen[id] = true

		unit, err := tx.Inventory().GetUnitForUpdate(ctx, id)
		if err != nil {
			return nil, translate(err, "inventory_unit", id.String())
		}
		if unit.Status != models.UnitStatusAvailable {
			return nil, &ConflictError{Resource: "inventory_unit", Reason: fmt.Sprintf("unit %s is %s", unit.SerialNumber, unit.Status)}
		}
		if outstanding[unit.VariantID] <= 0 {
			return nil, &ValidationError{Field: "unit_ids", Reason: fmt.Sprintf("unit %s does not match an unassigned rental item", unit.SerialNumber)}
		}
		outstanding[unit.VariantID]--
		units = append(units, *unit)
	}
	return units, nil
}

func (s *RentalService) pickUnits(ctx context.Context, tx repository.Store, outstanding map[uuid.UUID]int, order []uuid.UUID) ([]models.InventoryUnit, error) {
	var units []models.InventoryUnit
	for _, variantID := range order {
		need := outstanding[variantID]
		if need <= 0 {
			continue
		}
		picked, err := tx.Inventory().PickAvailable(ctx, variantID, need)
		if err != nil {
			return nil, fmt.Errorf("failed to pick units: %w", err)
		}
		if len(picked) < need {
			return nil, &CapacityError{VariantID: variantID.String(), Requested: int64(need), Available: int64(len(picked))}
		}
		units = append(units, picked...)
	}
	return units, nil
}

func (s *RentalService) GetRental(ctx context.Context, actor Actor, id uuid.UUID) (*models.Rental, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	rental, err := s.store.Rentals().GetByID(ctx, id, true)
	if err != nil {
		return nil, translate(err, "rental", id.String())
	}
	if !actor.CanAccess(rental.UserID) {
		return nil, &NotFoundError{Resource: "rental", ID: id.String()}
	}
	return rental, nil
}

// ListRentals lists the actor's own rentals; staff see every rental.
func (s *RentalService) ListRentals(ctx context.Context, actor Actor, filter repository.RentalFilter) ([]models.Rental, int64, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, &InvalidStatusError{Status: string(filter.Status)}
	}
	if !actor.IsStaff() {
		filter.UserID = &actor.UserID
	}

	rentals, total, err := s.store.Rentals().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rentals: %w", err)
	}
	return rentals, total, nil
}

// ExpireStalePending cancels rentals left pending longer than ttl. Each rental is
// re-checked under its row lock and cancelled in its own transaction, so one
// failure does not stop the batch.
func (s *RentalService) ExpireStalePending(ctx context.Context, ttl time.Duration, batch int) (int, error) {
	listCtx, cancel := bound(ctx, s.timeout)
	stale, err := s.store.Rentals().ListStalePending(listCtx, s.now().Add(-ttl), batch)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("failed to list stale rentals: %w", err)
	}

	expired := 0
	for _, rental := range stale {
		cancelled, err := s.cancelIfPending(ctx, rental.ID)
		if err != nil {
			logrus.WithError(err).WithField("rental_id", rental.ID).Warn("Failed to expire pending rental")
			continue
		}
		if cancelled {
			expired++
		}
	}

	return expired, nil
}

func (s *RentalService) cancelIfPending(ctx context.Context, rentalID uuid.UUID) (bool, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	var updated *models.Rental
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		rental, err := tx.Rentals().GetForUpdate(ctx, rentalID)
		if err != nil {
			return translate(err, "rental", rentalID.String())
		}
		if rental.Status != models.RentalStatusPending {
			return nil
		}
		updated, _, err = s.transitionInTx(ctx, tx, rentalID, models.RentalStatusCancelled)
		return err
	})
	if err != nil || updated == nil {
		return false, err
	}

	s.notifier.RentalStatusChanged(ctx, updated, models.RentalStatusPending)
	return true, nil
}
