package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/plateful/models"
)

func TestProcessRefundHappyPath(t *testing.T) {
	db := setupTestDB(t)
	workflow, notifier, audit := newTestWorkflow(db)

	user := seedUser(t, db, "client")
	kitchen, _, cookWallet := seedKitchenWithCook(t, db, "tandoor-express", 40000)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusCancelled)

	require.NoError(t, workflow.ProcessRefund(order.ID, user.ID))

	// Client wallet credited in full.
	var userWallet models.Wallet
	require.NoError(t, db.Where("owner_type = ? AND owner_id = ?", models.WalletOwnerUser, user.ID).First(&userWallet).Error)
	assert.Equal(t, int64(12500), userWallet.Balance)

	var credit models.WalletTransaction
	require.NoError(t, db.Where("wallet_id = ?", userWallet.ID).First(&credit).Error)
	assert.Equal(t, models.TransactionTypeRefund, credit.Type)
	assert.Equal(t, models.TransactionDirectionCredit, credit.Direction)
	assert.Equal(t, int64(12500), credit.Amount)
	assert.Equal(t, "REFUND-ORDER-1", credit.Reference)
	require.NotNil(t, credit.OrderID)
	assert.Equal(t, order.ID, *credit.OrderID)

	// Cook's pending earnings reversed.
	var storedCookWallet models.Wallet
	require.NoError(t, db.First(&storedCookWallet, cookWallet.ID).Error)
	assert.Equal(t, int64(27500), storedCookWallet.HeldBalance)

	// Order is refunded with a stamped timestamp and a transition row.
	var storedOrder models.Order
	require.NoError(t, db.First(&storedOrder, order.ID).Error)
	assert.Equal(t, models.OrderStatusRefunded, storedOrder.Status)
	assert.NotNil(t, storedOrder.RefundedAt)

	var transitions []models.OrderStatusTransition
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&transitions).Error)
	require.Len(t, transitions, 1)
	assert.Equal(t, models.OrderStatusCancelled, transitions[0].FromStatus)
	assert.Equal(t, models.OrderStatusRefunded, transitions[0].ToStatus)

	assert.Equal(t, 1, notifier.count())
	assert.Equal(t, 1, audit.count())
}

func TestProcessRefundIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	workflow, notifier, _ := newTestWorkflow(db)

	user := seedUser(t, db, "client")
	kitchen, _, _ := seedKitchenWithCook(t, db, "tandoor-express", 40000)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusCancelled)

	for i := 0; i < 5; i++ {
		require.NoError(t, workflow.ProcessRefund(order.ID, user.ID))
	}

	var userWallet models.Wallet
	require.NoError(t, db.Where("owner_type = ? AND owner_id = ?", models.WalletOwnerUser, user.ID).First(&userWallet).Error)
	assert.Equal(t, int64(12500), userWallet.Balance)

	var txnCount int64
	require.NoError(t, db.Model(&models.WalletTransaction{}).Count(&txnCount).Error)
	assert.Equal(t, int64(2), txnCount, "one client credit and one cook debit")

	var transitionCount int64
	require.NoError(t, db.Model(&models.OrderStatusTransition{}).Count(&transitionCount).Error)
	assert.Equal(t, int64(1), transitionCount)

	assert.Equal(t, 1, notifier.count())
}

func TestProcessRefundConcurrentDeliveries(t *testing.T) {
	db := setupTestDB(t)
	workflow, _, _ := newTestWorkflow(db)

	user := seedUser(t, db, "client")
	kitchen, _, _ := seedKitchenWithCook(t, db, "tandoor-express", 40000)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusCancelled)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = workflow.ProcessRefund(order.ID, user.ID)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var userWallet models.Wallet
	require.NoError(t, db.Where("owner_type = ? AND owner_id = ?", models.WalletOwnerUser, user.ID).First(&userWallet).Error)
	assert.Equal(t, int64(12500), userWallet.Balance, "exactly one credit despite concurrent deliveries")

	var transitionCount int64
	require.NoError(t, db.Model(&models.OrderStatusTransition{}).Count(&transitionCount).Error)
	assert.Equal(t, int64(1), transitionCount)
}

func TestProcessRefundNotActionableStates(t *testing.T) {
	db := setupTestDB(t)
	workflow, notifier, _ := newTestWorkflow(db)

	user := seedUser(t, db, "client")
	kitchen, _, _ := seedKitchenWithCook(t, db, "tandoor-express", 40000)

	for _, status := range []string{
		models.OrderStatusPending,
		models.OrderStatusConfirmed,
		models.OrderStatusDelivered,
		models.OrderStatusRefunded,
	} {
		order := seedOrder(t, db, user, kitchen, 12500, status)
		require.NoError(t, workflow.ProcessRefund(order.ID, user.ID))

		var stored models.Order
		require.NoError(t, db.First(&stored, order.ID).Error)
		assert.Equal(t, status, stored.Status, "status %s must not change", status)
	}

	var txnCount int64
	require.NoError(t, db.Model(&models.WalletTransaction{}).Count(&txnCount).Error)
	assert.Equal(t, int64(0), txnCount)
	assert.Equal(t, 0, notifier.count())
}

func TestProcessRefundMissingOrderAndUser(t *testing.T) {
	db := setupTestDB(t)
	workflow, _, _ := newTestWorkflow(db)

	// Missing order is done, not retried.
	require.NoError(t, workflow.ProcessRefund(9999, 1))

	// Missing user likewise.
	user := seedUser(t, db, "client")
	kitchen, _, _ := seedKitchenWithCook(t, db, "tandoor-express", 0)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusCancelled)
	require.NoError(t, workflow.ProcessRefund(order.ID, 9999))

	var stored models.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
}

// TestProcessRefundCookShortfall covers the partial failure path: the cook
// wallet cannot cover the reversal, yet the client refund commits.
func TestProcessRefundCookShortfall(t *testing.T) {
	db := setupTestDB(t)
	workflow, _, _ := newTestWorkflow(db)

	user := seedUser(t, db, "client")
	kitchen, _, cookWallet := seedKitchenWithCook(t, db, "tandoor-express", 5000)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusCancelled)

	require.NoError(t, workflow.ProcessRefund(order.ID, user.ID))

	var userWallet models.Wallet
	require.NoError(t, db.Where("owner_type = ? AND owner_id = ?", models.WalletOwnerUser, user.ID).First(&userWallet).Error)
	assert.Equal(t, int64(12500), userWallet.Balance, "client refund unaffected by cook wallet shortfall")

	var storedCookWallet models.Wallet
	require.NoError(t, db.First(&storedCookWallet, cookWallet.ID).Error)
	assert.Equal(t, int64(5000), storedCookWallet.HeldBalance, "held balance never driven negative")

	var storedOrder models.Order
	require.NoError(t, db.First(&storedOrder, order.ID).Error)
	assert.Equal(t, models.OrderStatusRefunded, storedOrder.Status)
}

func TestProcessRefundFallsBackToKitchenCook(t *testing.T) {
	db := setupTestDB(t)
	workflow, _, _ := newTestWorkflow(db)

	user := seedUser(t, db, "client")
	kitchen, _, cookWallet := seedKitchenWithCook(t, db, "tandoor-express", 40000)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusCancelled)

	// Simulate a legacy order with no cook stamped.
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).UpdateColumn("cook_id", 0).Error)

	require.NoError(t, workflow.ProcessRefund(order.ID, user.ID))

	var storedCookWallet models.Wallet
	require.NoError(t, db.First(&storedCookWallet, cookWallet.ID).Error)
	assert.Equal(t, int64(27500), storedCookWallet.HeldBalance, "reversal resolved through the kitchen's cook")
}

func TestProcessRefundZeroAmountOrder(t *testing.T) {
	db := setupTestDB(t)
	workflow, notifier, audit := newTestWorkflow(db)

	user := seedUser(t, db, "client")
	kitchen, _, _ := seedKitchenWithCook(t, db, "tandoor-express", 40000)
	order := seedOrder(t, db, user, kitchen, 0, models.OrderStatusCancelled)

	require.NoError(t, workflow.ProcessRefund(order.ID, user.ID))

	// No money moved, no notification, but the order still completes its
	// lifecycle and the audit trail records the refund.
	var txnCount int64
	require.NoError(t, db.Model(&models.WalletTransaction{}).Count(&txnCount).Error)
	assert.Equal(t, int64(0), txnCount)
	assert.Equal(t, 0, notifier.count())

	var stored models.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, models.OrderStatusRefunded, stored.Status)
	assert.Equal(t, 1, audit.count())
}

func TestProcessRefundNotifierFailureDoesNotBlock(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewWalletLedger()
	notifier := &recordingNotifier{err: assert.AnError}
	audit := &recordingAudit{}
	workflow := NewRefundWorkflow(db, ledger, NewCookWalletAdjustment(ledger), NewOrderStateTracker(), notifier, audit)

	user := seedUser(t, db, "client")
	kitchen, _, _ := seedKitchenWithCook(t, db, "tandoor-express", 40000)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusCancelled)

	require.NoError(t, workflow.ProcessRefund(order.ID, user.ID))

	var userWallet models.Wallet
	require.NoError(t, db.Where("owner_type = ? AND owner_id = ?", models.WalletOwnerUser, user.ID).First(&userWallet).Error)
	assert.Equal(t, int64(12500), userWallet.Balance)

	var stored models.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, models.OrderStatusRefunded, stored.Status)
}
