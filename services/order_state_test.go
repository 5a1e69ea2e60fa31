package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/plateful/models"
)

func TestTransitionValidEdge(t *testing.T) {
	db := setupTestDB(t)
	tracker := NewOrderStateTracker()
	user := seedUser(t, db, "orderer")
	kitchen, _, _ := seedKitchenWithCook(t, db, "chaat-street", 0)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusPending)

	require.NoError(t, tracker.Transition(db, order, models.OrderStatusConfirmed))
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)

	var stored models.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, models.OrderStatusConfirmed, stored.Status)

	var transitions []models.OrderStatusTransition
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&transitions).Error)
	require.Len(t, transitions, 1)
	assert.Equal(t, models.OrderStatusPending, transitions[0].FromStatus)
	assert.Equal(t, models.OrderStatusConfirmed, transitions[0].ToStatus)
	assert.False(t, transitions[0].IsAdminOverride)
}

func TestTransitionInvalidEdge(t *testing.T) {
	db := setupTestDB(t)
	tracker := NewOrderStateTracker()
	user := seedUser(t, db, "orderer")
	kitchen, _, _ := seedKitchenWithCook(t, db, "chaat-street", 0)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusPending)

	err := tracker.Transition(db, order, models.OrderStatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.OrderStatusPending, order.Status)

	var count int64
	require.NoError(t, db.Model(&models.OrderStatusTransition{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestTransitionRefundedIsTerminal(t *testing.T) {
	db := setupTestDB(t)
	tracker := NewOrderStateTracker()
	user := seedUser(t, db, "orderer")
	kitchen, _, _ := seedKitchenWithCook(t, db, "chaat-street", 0)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusRefunded)

	adminID := uint(1)
	err := tracker.TransitionWithActor(db, order, models.OrderStatusPending, &adminID, true, "trying to revive")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionRefundedOnlyFromCancelled(t *testing.T) {
	db := setupTestDB(t)
	tracker := NewOrderStateTracker()
	user := seedUser(t, db, "orderer")
	kitchen, _, _ := seedKitchenWithCook(t, db, "chaat-street", 0)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusDelivered)

	// Even an admin override cannot refund a non-cancelled order.
	adminID := uint(1)
	err := tracker.TransitionWithActor(db, order, models.OrderStatusRefunded, &adminID, true, "customer complaint")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionToRefundedStampsTimestamp(t *testing.T) {
	db := setupTestDB(t)
	tracker := NewOrderStateTracker()
	user := seedUser(t, db, "orderer")
	kitchen, _, _ := seedKitchenWithCook(t, db, "chaat-street", 0)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusCancelled)

	require.NoError(t, tracker.Transition(db, order, models.OrderStatusRefunded))
	require.NotNil(t, order.RefundedAt)

	var stored models.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.NotNil(t, stored.RefundedAt)
}

func TestAdminOverrideBypassesEdgeValidation(t *testing.T) {
	db := setupTestDB(t)
	tracker := NewOrderStateTracker()
	user := seedUser(t, db, "orderer")
	kitchen, _, _ := seedKitchenWithCook(t, db, "chaat-street", 0)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusDelivered)

	adminID := uint(42)
	require.NoError(t, tracker.TransitionWithActor(db, order, models.OrderStatusCancelled, &adminID, true, "fraudulent order"))

	var transitions []models.OrderStatusTransition
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&transitions).Error)
	require.Len(t, transitions, 1)
	assert.True(t, transitions[0].IsAdminOverride)
	assert.Equal(t, "fraudulent order", transitions[0].OverrideReason)
	require.NotNil(t, transitions[0].TriggeredBy)
	assert.Equal(t, adminID, *transitions[0].TriggeredBy)
}

func TestTransitionHistoryReplays(t *testing.T) {
	db := setupTestDB(t)
	tracker := NewOrderStateTracker()
	user := seedUser(t, db, "orderer")
	kitchen, _, _ := seedKitchenWithCook(t, db, "chaat-street", 0)
	order := seedOrder(t, db, user, kitchen, 12500, models.OrderStatusPending)

	path := []string{
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusCancelled,
		models.OrderStatusRefunded,
	}
	for _, status := range path {
		require.NoError(t, tracker.Transition(db, order, status))
	}

	var transitions []models.OrderStatusTransition
	require.NoError(t, db.Where("order_id = ?", order.ID).Order("id ASC").Find(&transitions).Error)
	require.Len(t, transitions, len(path))

	from := models.OrderStatusPending
	for i, transition := range transitions {
		assert.Equal(t, from, transition.FromStatus)
		assert.Equal(t, path[i], transition.ToStatus)
		from = transition.ToStatus
	}
}
