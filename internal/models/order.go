// internal/models/order.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartItem struct {
	BaseModel
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_variant"`
	VariantID uuid.UUID `json:"variant_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_variant"`
	Quantity  int       `json:"quantity" gorm:"not null"`

	Variant *Variant `json:"variant,omitempty" gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
}

type Order struct {
	BaseModel
	UserID          uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	ShippingAddress string          `json:"shipping_address" gorm:"type:text"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem snapshots the sale price at checkout.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID   uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	VariantID uuid.UUID       `json:"variant_id" gorm:"type:uuid;not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
}
