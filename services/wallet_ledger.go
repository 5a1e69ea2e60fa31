package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/plateful/plateful/models"
	"github.com/plateful/plateful/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInvalidAmount is returned when a ledger operation is asked to move
	// a zero or negative amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInsufficientBalance is returned when a debit would drive the
	// target balance negative. Nothing is written when it is returned.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// WalletLedger is the only component allowed to mutate wallet balances.
// Every mutation locks the wallet row, writes exactly one immutable
// WalletTransaction with the balance before and after, and keeps both
// balance fields non-negative. All methods operate on the *gorm.DB they are
// given so callers control the transaction boundary.
type WalletLedger struct{}

// NewWalletLedger creates a new WalletLedger
func NewWalletLedger() *WalletLedger {
	return &WalletLedger{}
}

// GetOrCreateWallet returns the wallet for the given owner, creating it
// with zero balances if it does not exist. Cook wallets are keyed by
// (owner, kitchen); user wallets have a nil kitchen.
func (l *WalletLedger) GetOrCreateWallet(db *gorm.DB, ownerType string, ownerID uint, kitchenID *uint) (*models.Wallet, error) {
	query := db.Where("owner_type = ? AND owner_id = ?", ownerType, ownerID)
	if kitchenID != nil {
		query = query.Where("kitchen_id = ?", *kitchenID)
	} else {
		query = query.Where("kitchen_id IS NULL")
	}

	var wallet models.Wallet
	if err := query.First(&wallet).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		wallet = models.Wallet{
			OwnerType: ownerType,
			OwnerID:   ownerID,
			KitchenID: kitchenID,
		}
		if err := db.Create(&wallet).Error; err != nil {
			return nil, err
		}
		utils.LogDebug("Created wallet for %s %d", ownerType, ownerID)
	}
	return &wallet, nil
}

// Credit increases the wallet's withdrawable balance and records the
// matching ledger entry.
func (l *WalletLedger) Credit(db *gorm.DB, wallet *models.Wallet, amount int64, txnType string, orderID *uint, reference, description string) (*models.WalletTransaction, error) {
	return l.apply(db, wallet, models.BalanceKindAvailable, models.TransactionDirectionCredit, amount, txnType, orderID, reference, description)
}

// Debit decreases the wallet's withdrawable balance. Fails with
// ErrInsufficientBalance if the balance would go negative.
func (l *WalletLedger) Debit(db *gorm.DB, wallet *models.Wallet, amount int64, txnType string, orderID *uint, reference, description string) (*models.WalletTransaction, error) {
	return l.apply(db, wallet, models.BalanceKindAvailable, models.TransactionDirectionDebit, amount, txnType, orderID, reference, description)
}

// CreditHeld increases the wallet's held (non-withdrawable) balance.
func (l *WalletLedger) CreditHeld(db *gorm.DB, wallet *models.Wallet, amount int64, txnType string, orderID *uint, reference, description string) (*models.WalletTransaction, error) {
	return l.apply(db, wallet, models.BalanceKindHeld, models.TransactionDirectionCredit, amount, txnType, orderID, reference, description)
}

// DebitHeld decreases the wallet's held (non-withdrawable) balance.
func (l *WalletLedger) DebitHeld(db *gorm.DB, wallet *models.Wallet, amount int64, txnType string, orderID *uint, reference, description string) (*models.WalletTransaction, error) {
	return l.apply(db, wallet, models.BalanceKindHeld, models.TransactionDirectionDebit, amount, txnType, orderID, reference, description)
}

// apply performs one balance mutation under an exclusive lock on the wallet
// row. The balance check runs before any write, so a refused debit issues no
// SQL that could abort the surrounding transaction.
func (l *WalletLedger) apply(db *gorm.DB, wallet *models.Wallet, balanceKind, direction string, amount int64, txnType string, orderID *uint, reference, description string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAmount, amount)
	}

	var locked models.Wallet
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, wallet.ID).Error; err != nil {
		return nil, err
	}

	before := locked.Balance
	column := "balance"
	if balanceKind == models.BalanceKindHeld {
		before = locked.HeldBalance
		column = "held_balance"
	}

	var after int64
	switch direction {
	case models.TransactionDirectionCredit:
		after = before + amount
	case models.TransactionDirectionDebit:
		if amount > before {
			return nil, fmt.Errorf("%w: wallet %d has %d, needs %d", ErrInsufficientBalance, locked.ID, before, amount)
		}
		after = before - amount
	default:
		return nil, fmt.Errorf("unknown transaction direction: %s", direction)
	}

	if err := db.Model(&models.Wallet{}).Where("id = ?", locked.ID).
		UpdateColumns(map[string]interface{}{column: after, "updated_at": time.Now()}).Error; err != nil {
		return nil, err
	}

	transaction := models.WalletTransaction{
		WalletID:      locked.ID,
		Type:          txnType,
		Direction:     direction,
		BalanceKind:   balanceKind,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		OrderID:       orderID,
		Reference:     reference,
		Description:   description,
	}
	if err := db.Create(&transaction).Error; err != nil {
		return nil, err
	}

	// Keep the caller's copy current.
	if balanceKind == models.BalanceKindHeld {
		wallet.HeldBalance = after
	} else {
		wallet.Balance = after
	}
	utils.LogDebug("Wallet %d %s %s %d: %d -> %d", locked.ID, balanceKind, direction, amount, before, after)

	return &transaction, nil
}
