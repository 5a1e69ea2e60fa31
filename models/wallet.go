package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet owner types
const (
	WalletOwnerUser = "user"
	WalletOwnerCook = "cook"
)

// Wallet holds in-app funds for a user or a cook. User wallets carry only
// the withdrawable balance; cook wallets additionally hold funds pending
// order completion in HeldBalance. All amounts are integer minor currency
// units. Balances are only ever written by the wallet ledger.
type Wallet struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OwnerType   string         `json:"owner_type" gorm:"uniqueIndex:idx_wallet_owner;not null"`
	OwnerID     uint           `json:"owner_id" gorm:"uniqueIndex:idx_wallet_owner;not null"`
	KitchenID   *uint          `json:"kitchen_id,omitempty" gorm:"uniqueIndex:idx_wallet_owner"`
	Balance     int64          `json:"balance" gorm:"not null;default:0"`
	HeldBalance int64          `json:"held_balance" gorm:"not null;default:0"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// WalletTransaction is an immutable ledger entry. One row is written per
// balance mutation; rows are never updated or deleted, and replaying the
// deltas for a wallet must always reproduce its current balance.
type WalletTransaction struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletID      uint      `json:"wallet_id" gorm:"index;not null"`
	Wallet        Wallet    `json:"-" gorm:"foreignKey:WalletID"`
	Type          string    `json:"type"`      // refund, order_cancelled, topup, ...
	Direction     string    `json:"direction"` // credit, debit
	BalanceKind   string    `json:"balance_kind"`
	Amount        int64     `json:"amount" gorm:"not null"`
	BalanceBefore int64     `json:"balance_before" gorm:"not null"`
	BalanceAfter  int64     `json:"balance_after" gorm:"not null"`
	OrderID       *uint     `json:"order_id,omitempty"`
	Reference     string    `json:"reference"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

// Transaction type constants
const (
	TransactionTypeRefund         = "refund"
	TransactionTypeOrderCancelled = "order_cancelled"
	TransactionTypeTopup          = "topup"
)

// Transaction direction constants
const (
	TransactionDirectionCredit = "credit"
	TransactionDirectionDebit  = "debit"
)

// Balance kind constants
const (
	BalanceKindAvailable = "available"
	BalanceKindHeld      = "held"
)
