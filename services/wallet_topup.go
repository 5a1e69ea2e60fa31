package services

import (
	"github.com/plateful/plateful/models"
	"github.com/plateful/plateful/utils"
	"gorm.io/gorm"
)

// WalletTopup completes verified gateway payments. Completion is an atomic
// claim on the topup order row, so concurrent verifications of the same
// payment credit the wallet exactly once.
type WalletTopup struct {
	ledger *WalletLedger
}

// NewWalletTopup creates a new WalletTopup
func NewWalletTopup(ledger *WalletLedger) *WalletTopup {
	return &WalletTopup{ledger: ledger}
}

// CompleteTopup claims the pending topup order and credits the user wallet
// through the ledger. Returns (nil, nil) when the order was already
// completed, by this or a concurrent request.
func (s *WalletTopup) CompleteTopup(db *gorm.DB, topup *models.WalletTopupOrder, reference string) (*models.WalletTransaction, error) {
	var transaction *models.WalletTransaction
	err := db.Transaction(func(tx *gorm.DB) error {
		// The conditional update takes the row lock; the loser of a race
		// sees zero rows and skips the credit.
		res := tx.Model(&models.WalletTopupOrder{}).
			Where("id = ? AND status = ?", topup.ID, "pending").
			UpdateColumn("status", "completed")
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			utils.LogDebug("Topup order %d already completed", topup.ID)
			return nil
		}

		wallet, err := s.ledger.GetOrCreateWallet(tx, models.WalletOwnerUser, topup.UserID, nil)
		if err != nil {
			return err
		}
		transaction, err = s.ledger.Credit(tx, wallet, topup.Amount, models.TransactionTypeTopup, nil, reference, "Wallet topup")
		return err
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}
