package controllers

import (
	"github.com/plateful/plateful/services"
)

// RefundEnqueuer hands a cancelled order to the asynchronous refund worker.
type RefundEnqueuer interface {
	Enqueue(orderID, userID uint) error
}

var (
	ledger      *services.WalletLedger
	tracker     *services.OrderStateTracker
	topup       *services.WalletTopup
	refundQueue RefundEnqueuer
)

// Init wires the shared services into the controller package. Called once
// from main before the router starts.
func Init(l *services.WalletLedger, t *services.OrderStateTracker, tp *services.WalletTopup, q RefundEnqueuer) {
	ledger = l
	tracker = t
	topup = tp
	refundQueue = q
}
