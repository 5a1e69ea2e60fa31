package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/plateful/plateful/models"
	"github.com/plateful/plateful/utils"
	"gorm.io/gorm"
)

// ErrInvalidTransition is returned when an order is asked to move along an
// edge the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid order status transition")

// allowedTransitions is the order lifecycle. refunded is terminal.
var allowedTransitions = map[string][]string{
	models.OrderStatusPending:        {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed:      {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing:      {models.OrderStatusOutForDelivery, models.OrderStatusCancelled},
	models.OrderStatusOutForDelivery: {models.OrderStatusDelivered},
	models.OrderStatusCancelled:      {models.OrderStatusRefunded},
}

// OrderStateTracker validates and records order status transitions. Every
// accepted transition appends exactly one OrderStatusTransition row, so the
// table replays to the order's full history.
type OrderStateTracker struct{}

// NewOrderStateTracker creates a new OrderStateTracker
func NewOrderStateTracker() *OrderStateTracker {
	return &OrderStateTracker{}
}

// Transition performs a system-triggered transition (no actor recorded).
func (t *OrderStateTracker) Transition(db *gorm.DB, order *models.Order, newStatus string) error {
	return t.TransitionWithActor(db, order, newStatus, nil, false, "")
}

// TransitionWithActor validates the edge, writes the new status (stamping
// refunded_at when entering refunded) and appends the audit row. Admin
// overrides bypass edge validation, except that refunded stays terminal and
// is only reachable from cancelled; money movement depends on that edge.
func (t *OrderStateTracker) TransitionWithActor(db *gorm.DB, order *models.Order, newStatus string, actorID *uint, adminOverride bool, reason string) error {
	if order.Status == models.OrderStatusRefunded {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, order.Status)
	}
	if newStatus == models.OrderStatusRefunded && order.Status != models.OrderStatusCancelled {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}
	if !adminOverride && !edgeAllowed(order.Status, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_at": now,
	}
	if newStatus == models.OrderStatusRefunded {
		updates["refunded_at"] = now
	}
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		return err
	}

	transition := models.OrderStatusTransition{
		OrderID:         order.ID,
		FromStatus:      order.Status,
		ToStatus:        newStatus,
		TriggeredBy:     actorID,
		IsAdminOverride: adminOverride,
		OverrideReason:  reason,
	}
	if err := db.Create(&transition).Error; err != nil {
		return err
	}

	utils.LogInfo("Order %d transitioned %s -> %s", order.ID, order.Status, newStatus)
	order.Status = newStatus
	order.UpdatedAt = now
	if newStatus == models.OrderStatusRefunded {
		order.RefundedAt = &now
	}
	return nil
}

func edgeAllowed(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
