// internal/services/services.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ledrent/ledrent-backend/internal/models"
)

const defaultStoreTimeout = 5 * time.Second

// Actor is the caller on whose behalf a service method runs.
type Actor struct {
	UserID uuid.UUID
	Role   models.UserRole
}

func (a Actor) IsStaff() bool {
	return a.Role == models.UserRoleStaff || a.Role == models.UserRoleAdmin
}

func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.IsStaff() || a.UserID == ownerID
}

// Notifier receives domain events after they commit. Implementations must not block.
type Notifier interface {
	RentalStatusChanged(ctx context.Context, rental *models.Rental, previous models.RentalStatus)
	OrderPaid(ctx context.Context, order *models.Order)
}

type nopNotifier struct{}

func (nopNotifier) RentalStatusChanged(context.Context, *models.Rental, models.RentalStatus) {}
func (nopNotifier) OrderPaid(context.Context, *models.Order)                                 {}

// bound derives a context that expires after d, on top of any caller deadline.
func bound(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultStoreTimeout
	}
	return context.WithTimeout(ctx, d)
}
