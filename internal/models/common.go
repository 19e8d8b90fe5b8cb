// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields. Rows are hard-deleted; catalog deletes cascade
// through foreign keys instead of soft-delete markers.
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the id client-side so callers can reference it before commit.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleStaff    UserRole = "staff"
	UserRoleAdmin    UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

type UnitStatus string

const (
	UnitStatusAvailable   UnitStatus = "available"
	UnitStatusRented      UnitStatus = "rented"
	UnitStatusMaintenance UnitStatus = "maintenance"
	UnitStatusDamaged     UnitStatus = "damaged"
	UnitStatusRetired     UnitStatus = "retired"
)

var unitStatuses = []UnitStatus{
	UnitStatusAvailable,
	UnitStatusRented,
	UnitStatusMaintenance,
	UnitStatusDamaged,
	UnitStatusRetired,
}

func (s UnitStatus) Valid() bool {
	for _, v := range unitStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "pending"
	RentalStatusConfirmed RentalStatus = "confirmed"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusCompleted RentalStatus = "completed"
	RentalStatusCancelled RentalStatus = "cancelled"
	RentalStatusReturned  RentalStatus = "returned"
)

var rentalStatuses = []RentalStatus{
	RentalStatusPending,
	RentalStatusConfirmed,
	RentalStatusActive,
	RentalStatusCompleted,
	RentalStatusCancelled,
	RentalStatusReturned,
}

// RentalStatuses returns the closed set of rental statuses.
func RentalStatuses() []RentalStatus {
	out := make([]RentalStatus, len(rentalStatuses))
	copy(out, rentalStatuses)
	return out
}

func (s RentalStatus) Valid() bool {
	for _, v := range rentalStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Committing reports whether rentals in this status hold their assigned units.
func (s RentalStatus) Committing() bool {
	return s == RentalStatusConfirmed || s == RentalStatusActive
}

// Releasing reports whether entering this status returns units to the pool.
func (s RentalStatus) Releasing() bool {
	return s == RentalStatusReturned || s == RentalStatusCancelled
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range orderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type PaymentProvider string

const (
	PaymentProviderStripe   PaymentProvider = "stripe"
	PaymentProviderChapa    PaymentProvider = "chapa"
	PaymentProviderTelebirr PaymentProvider = "telebirr"
)

type PaymentPurpose string

const (
	PaymentPurposeRental PaymentPurpose = "rental"
	PaymentPurposeOrder  PaymentPurpose = "order"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)
