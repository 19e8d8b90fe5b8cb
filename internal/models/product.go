// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name        string         `json:"name" gorm:"size:255;not null"`
	Slug        string         `json:"slug" gorm:"size:255;uniqueIndex;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Category    string         `json:"category" gorm:"size:100;index"`
	Images      pq.StringArray `json:"images" gorm:"type:text[]"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`
	Status      ProductStatus  `json:"status" gorm:"type:varchar(20);default:'draft';index"`

	// Relationships
	Variants []Variant `json:"variants,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// Variant is a sellable/rentable SKU configuration of a product (pitch, cabinet size).
type Variant struct {
	BaseModel
	ProductID       uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	SKU             string          `json:"sku" gorm:"size:100;uniqueIndex;not null"`
	Name            string          `json:"name" gorm:"size:255;not null"`
	PixelPitchMM    decimal.Decimal `json:"pixel_pitch_mm" gorm:"type:decimal(5,2)"`
	CabinetSize     string          `json:"cabinet_size" gorm:"size:50"`
	SalePrice       decimal.Decimal `json:"sale_price" gorm:"type:decimal(12,2);not null"`
	RentPricePerDay decimal.Decimal `json:"rent_price_per_day" gorm:"type:decimal(12,2);not null"`
	IsRentable      bool            `json:"is_rentable" gorm:"default:true"`

	// Relationships
	Units []InventoryUnit `json:"units,omitempty" gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
}
