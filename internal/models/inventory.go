// internal/models/inventory.go
package models

import (
	"github.com/google/uuid"
)

// InventoryUnit is one physical serialized piece of equipment belonging to a variant.
type InventoryUnit struct {
	BaseModel
	VariantID    uuid.UUID  `json:"variant_id" gorm:"type:uuid;not null;index"`
	SerialNumber string     `json:"serial_number" gorm:"size:100;uniqueIndex;not null"`
	Status       UnitStatus `json:"status" gorm:"type:varchar(20);not null;default:'available';index"`
	Location     *string    `json:"location,omitempty" gorm:"size:255"`

	// Relationships
	Variant *Variant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

// Availability is the result of an availability query for a variant and date window.
type Availability struct {
	VariantID uuid.UUID `json:"variant_id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Total     int64     `json:"total"`
	Committed int64     `json:"committed"`
	Available int64     `json:"available"`
}
