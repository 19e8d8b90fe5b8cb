// internal/models/payment.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Payment struct {
	BaseModel
	UserID            uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	Provider          PaymentProvider `json:"provider" gorm:"type:varchar(20);not null;uniqueIndex:idx_payments_provider_ref"`
	Purpose           PaymentPurpose  `json:"purpose" gorm:"type:varchar(20);not null"`
	PurposeID         uuid.UUID       `json:"purpose_id" gorm:"type:uuid;not null;index"`
	Amount            decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Currency          string          `json:"currency" gorm:"size:3;not null"`
	Status            PaymentStatus   `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ProviderReference string          `json:"provider_reference" gorm:"size:255;uniqueIndex:idx_payments_provider_ref"`
	CheckoutURL       string          `json:"checkout_url,omitempty" gorm:"type:text"`
	ClientSecret      string          `json:"client_secret,omitempty" gorm:"-"`
	RefundedAmount    decimal.Decimal `json:"refunded_amount" gorm:"type:decimal(12,2);not null;default:0"`
	ProcessedAt       *time.Time      `json:"processed_at"`
	RefundedAt        *time.Time      `json:"refunded_at"`
	RefundReason      string          `json:"refund_reason,omitempty" gorm:"type:text"`
}
