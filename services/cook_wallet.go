package services

import (
	"fmt"

	"github.com/plateful/plateful/models"
	"github.com/plateful/plateful/utils"
	"gorm.io/gorm"
)

// CookWalletAdjustment reverses a cook's pending earnings when an order is
// cancelled. The reversal targets the held balance only; funds already
// released for withdrawal are never clawed back here.
type CookWalletAdjustment struct {
	ledger *WalletLedger
}

// NewCookWalletAdjustment creates a new CookWalletAdjustment
func NewCookWalletAdjustment(ledger *WalletLedger) *CookWalletAdjustment {
	return &CookWalletAdjustment{ledger: ledger}
}

// DecrementForCancellation debits the cook wallet's held balance by the
// refunded amount, recording an order_cancelled ledger entry. A zero amount
// is a no-op. An insufficient held balance surfaces ErrInsufficientBalance
// for the caller to handle; it indicates drift that reconciliation must
// repair.
func (a *CookWalletAdjustment) DecrementForCancellation(db *gorm.DB, wallet *models.Wallet, order *models.Order, amount int64) (*models.WalletTransaction, error) {
	if amount == 0 {
		utils.LogInfo("Skipping cook wallet adjustment for zero-amount order %d", order.ID)
		return nil, nil
	}

	orderID := order.ID
	reference := fmt.Sprintf("CANCEL-ORDER-%d", order.ID)
	description := fmt.Sprintf("Earnings reversal for cancelled order #%d", order.ID)

	return a.ledger.DebitHeld(db, wallet, amount, models.TransactionTypeOrderCancelled, &orderID, reference, description)
}
