package models

import (
	"time"
)

// Order status constants
const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusPreparing      = "preparing"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
	OrderStatusRefunded       = "refunded"
)

// Order is a food order placed by a user against a kitchen. Monetary fields
// are integer minor units; GrandTotal = Subtotal + DeliveryFee and is the
// amount refunded in full on cancellation.
type Order struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `json:"user_id" gorm:"index;not null"`
	User               User       `json:"user" gorm:"foreignKey:UserID"`
	KitchenID          uint       `json:"kitchen_id" gorm:"index;not null"`
	Kitchen            Kitchen    `json:"kitchen" gorm:"foreignKey:KitchenID"`
	CookID             uint       `json:"cook_id"`
	Subtotal           int64      `json:"subtotal"`
	DeliveryFee        int64      `json:"delivery_fee"`
	GrandTotal         int64      `json:"grand_total"`
	Status             string     `json:"status" gorm:"index"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	RefundedAt         *time.Time `json:"refunded_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// OrderStatusTransition is an append-only audit row, one per status change.
type OrderStatusTransition struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OrderID         uint      `json:"order_id" gorm:"index;not null"`
	Order           Order     `json:"-" gorm:"foreignKey:OrderID"`
	FromStatus      string    `json:"from_status"`
	ToStatus        string    `json:"to_status"`
	TriggeredBy     *uint     `json:"triggered_by,omitempty"`
	IsAdminOverride bool      `json:"is_admin_override"`
	OverrideReason  string    `json:"override_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
