// internal/models/rental.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Rental struct {
	BaseModel
	UserID          uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	StartDate       time.Time       `json:"start_date" gorm:"type:date;not null;index:idx_rentals_dates"`
	EndDate         time.Time       `json:"end_date" gorm:"type:date;not null;index:idx_rentals_dates"`
	Status          RentalStatus    `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null;default:0"`
	DeliveryAddress *string         `json:"delivery_address,omitempty" gorm:"type:text"`

	// Relationships
	Items       []RentalItem           `json:"items,omitempty" gorm:"foreignKey:RentalID;constraint:OnDelete:CASCADE"`
	Assignments []RentalUnitAssignment `json:"assignments,omitempty" gorm:"foreignKey:RentalID;constraint:OnDelete:CASCADE"`
}

// RentalItem carries the rent price captured at booking time.
type RentalItem struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RentalID      uuid.UUID       `json:"rental_id" gorm:"type:uuid;not null;index"`
	VariantID     uuid.UUID       `json:"variant_id" gorm:"type:uuid;not null;index"`
	Quantity      int             `json:"quantity" gorm:"not null"`
	UnitRentPrice decimal.Decimal `json:"unit_rent_price" gorm:"type:decimal(12,2);not null"`

	Variant *Variant `json:"variant,omitempty" gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
}

type RentalUnitAssignment struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RentalID        uuid.UUID  `json:"rental_id" gorm:"type:uuid;not null;index"`
	InventoryUnitID uuid.UUID  `json:"inventory_unit_id" gorm:"type:uuid;not null;index"`
	AssignedAt      time.Time  `json:"assigned_at" gorm:"not null"`
	ReturnedAt      *time.Time `json:"returned_at"`

	InventoryUnit *InventoryUnit `json:"inventory_unit,omitempty" gorm:"foreignKey:InventoryUnitID;constraint:OnDelete:CASCADE"`
}

// RentalDays returns the inclusive number of billed calendar days, never less than one.
func RentalDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	days := int(e.Sub(s).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}
