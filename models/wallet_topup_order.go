package models

import "time"

// WalletTopupOrder tracks a payment-gateway order created to add money to a
// user wallet. Amount is in integer minor units.
type WalletTopupOrder struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `json:"user_id" gorm:"index;not null"`
	GatewayOrderID string    `json:"gateway_order_id" gorm:"uniqueIndex"`
	Amount         int64     `json:"amount"`
	Status         string    `json:"status"` // pending, completed, failed
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
