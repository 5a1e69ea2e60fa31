package services

import (
	"errors"
	"fmt"

	"github.com/plateful/plateful/models"
	"github.com/plateful/plateful/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier delivers user-facing notifications. Failures are the caller's to
// log; they never fail the ledger transaction.
type Notifier interface {
	NotifyRefund(user *models.User, amount int64, order *models.Order) error
}

// AuditSink records audit events, best-effort from the workflow's
// perspective.
type AuditSink interface {
	RecordAudit(subjectType string, subjectID uint, causerID *uint, event string, properties map[string]interface{}) error
}

// RefundWorkflow processes the cancellation refund for a single order:
// credit the client wallet, reverse the cook's pending earnings, move the
// order to refunded, and leave an audit trail. It is safe to invoke any
// number of times for the same order; redeliveries after the first commit
// are no-ops.
type RefundWorkflow struct {
	db         *gorm.DB
	ledger     *WalletLedger
	cookAdjust *CookWalletAdjustment
	tracker    *OrderStateTracker
	notifier   Notifier
	audit      AuditSink
}

// NewRefundWorkflow creates a new RefundWorkflow
func NewRefundWorkflow(db *gorm.DB, ledger *WalletLedger, cookAdjust *CookWalletAdjustment, tracker *OrderStateTracker, notifier Notifier, audit AuditSink) *RefundWorkflow {
	return &RefundWorkflow{
		db:         db,
		ledger:     ledger,
		cookAdjust: cookAdjust,
		tracker:    tracker,
		notifier:   notifier,
		audit:      audit,
	}
}

// ProcessRefund runs the refund for one order. A nil return means the task
// is done and must not be redelivered: that covers success, already-refunded
// orders, orders in a non-cancelled state, and orders or users deleted
// concurrently. A non-nil return means the unit of work rolled back and the
// task should be retried.
func (w *RefundWorkflow) ProcessRefund(orderID, userID uint) error {
	utils.LogInfo("ProcessRefund called for order %d, user %d", orderID, userID)

	var order models.Order
	if err := w.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.LogError("Refund skipped: order %d not found", orderID)
			return nil
		}
		return err
	}

	// Primary de-duplication guard against redelivery.
	if order.Status == models.OrderStatusRefunded {
		utils.LogDebug("Order %d already refunded, nothing to do", orderID)
		return nil
	}
	if order.Status != models.OrderStatusCancelled {
		utils.LogDebug("Order %d is %s, not cancelled; refund not actionable", orderID, order.Status)
		return nil
	}

	var user models.User
	if err := w.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.LogError("Refund skipped: user %d not found for order %d", userID, orderID)
			return nil
		}
		return err
	}

	// Full reversal; no commission is charged on cancelled orders.
	amount := order.GrandTotal

	err := w.db.Transaction(func(tx *gorm.DB) error {
		// Re-check the guards against the locked row; this closes the race
		// between the initial read and lock acquisition.
		var locked models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.LogError("Refund skipped: order %d deleted before lock", orderID)
				return nil
			}
			return err
		}
		if locked.Status == models.OrderStatusRefunded {
			utils.LogDebug("Order %d refunded by a concurrent run", orderID)
			return nil
		}
		if locked.Status != models.OrderStatusCancelled {
			utils.LogDebug("Order %d moved to %s before lock; refund not actionable", orderID, locked.Status)
			return nil
		}

		if amount > 0 {
			wallet, err := w.ledger.GetOrCreateWallet(tx, models.WalletOwnerUser, user.ID, nil)
			if err != nil {
				return utils.WrapError(err, "failed to get client wallet")
			}
			oid := locked.ID
			reference := fmt.Sprintf("REFUND-ORDER-%d", locked.ID)
			description := fmt.Sprintf("Refund for cancelled order #%d", locked.ID)
			if _, err := w.ledger.Credit(tx, wallet, amount, models.TransactionTypeRefund, &oid, reference, description); err != nil {
				return utils.WrapError(err, "failed to credit client wallet")
			}
			utils.LogDebug("Credited %d to wallet %d for order %d", amount, wallet.ID, locked.ID)

			if err := w.notifier.NotifyRefund(&user, amount, &locked); err != nil {
				// The wallet mutation is the data of record; delivery
				// failures are logged only.
				utils.LogError("Refund notification failed for order %d: %v", locked.ID, err)
			}

			w.reverseCookEarnings(tx, &locked, amount)
		}

		if err := w.tracker.Transition(tx, &locked, models.OrderStatusRefunded); err != nil {
			return utils.WrapError(err, "failed to mark order refunded")
		}

		props := map[string]interface{}{
			"old_status": models.OrderStatusCancelled,
			"new_status": models.OrderStatusRefunded,
			"amount":     amount,
			"currency":   "INR",
		}
		if err := w.audit.RecordAudit("order", locked.ID, nil, "order_refunded", props); err != nil {
			utils.LogError("Failed to record refund audit for order %d: %v", locked.ID, err)
		}
		return nil
	})
	if err != nil {
		utils.LogError("Refund transaction failed for order %d: %v", orderID, err)
		return err
	}

	utils.LogInfo("Refund processed for order %d, amount %d", orderID, amount)
	return nil
}

// reverseCookEarnings debits the cook wallet's held balance by the refunded
// amount. Any failure here is logged and swallowed: the client's refund is
// never blocked by cook-side bookkeeping, and divergence is left to
// reconciliation.
func (w *RefundWorkflow) reverseCookEarnings(tx *gorm.DB, order *models.Order, amount int64) {
	cookID := order.CookID
	if cookID == 0 {
		// Legacy rows predate cook stamping; fall back to the kitchen's
		// assigned cook.
		var kitchen models.Kitchen
		if err := tx.First(&kitchen, order.KitchenID).Error; err != nil {
			utils.LogError("Cook reversal skipped for order %d: kitchen %d not found: %v", order.ID, order.KitchenID, err)
			return
		}
		cookID = kitchen.CookID
	}
	if cookID == 0 {
		utils.LogError("Cook reversal skipped for order %d: no cook resolved", order.ID)
		return
	}

	var cook models.Cook
	if err := tx.First(&cook, cookID).Error; err != nil {
		utils.LogError("Cook reversal skipped for order %d: cook %d not found: %v", order.ID, cookID, err)
		return
	}

	kitchenID := order.KitchenID
	wallet, err := w.ledger.GetOrCreateWallet(tx, models.WalletOwnerCook, cook.ID, &kitchenID)
	if err != nil {
		utils.LogError("Cook reversal skipped for order %d: failed to get cook wallet: %v", order.ID, err)
		return
	}

	if _, err := w.cookAdjust.DecrementForCancellation(tx, wallet, order, amount); err != nil {
		utils.LogError("Cook wallet debit failed for order %d, cook %d: %v (reconciliation required)", order.ID, cook.ID, err)
	}
}
