package controllers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful/config"
	"github.com/plateful/plateful/models"
	"github.com/plateful/plateful/utils"
	"gorm.io/gorm"
)

// cancellationWindow is how long after placement an order stays cancellable.
const cancellationWindow = 30 * time.Minute

// cancellationGuard returns the client-facing error that blocks a
// cancellation, or nil when the order is cancellable.
func cancellationGuard(order *models.Order) *utils.AppError {
	if order.Status == models.OrderStatusCancelled || order.Status == models.OrderStatusRefunded {
		return utils.BadRequestError("Order already cancelled", nil)
	}
	if order.Status != models.OrderStatusPending &&
		order.Status != models.OrderStatusConfirmed &&
		order.Status != models.OrderStatusPreparing {
		return utils.BadRequestError("Order cannot be cancelled at this stage", nil)
	}
	if time.Since(order.CreatedAt) > cancellationWindow {
		return utils.BadRequestError("Cancellation window (30 minutes) has expired", nil)
	}
	return nil
}

// CancelOrder cancels an order and schedules its refund. The wallet credit
// always happens asynchronously; this handler only records the cancellation
// and enqueues the refund task.
func CancelOrder(c *gin.Context) {
	utils.LogInfo("CancelOrder called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.LogError("User not found in context")
		utils.Unauthorized(c, "Unauthorized")
		return
	}
	user := userVal.(models.User)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.LogError("Invalid order ID format: %v", err)
		utils.BadRequest(c, "Invalid order ID", nil)
		return
	}
	utils.LogDebug("Processing cancellation for order ID: %d", orderID)

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Missing cancellation reason for order ID: %d: %v", orderID, err)
		utils.BadRequest(c, "Reason is required", nil)
		return
	}

	var order models.Order
	if err := config.DB.Where("id = ? AND user_id = ?", orderID, user.ID).First(&order).Error; err != nil {
		utils.LogError("Order not found - Order ID: %d, User ID: %d: %v", orderID, user.ID, err)
		utils.NotFound(c, "Order not found")
		return
	}

	if appErr := cancellationGuard(&order); appErr != nil {
		utils.LogError("Cancellation rejected - Order ID: %d, Status: %s: %s", orderID, order.Status, appErr.Message)
		utils.Error(c, appErr.Code, appErr.Message, nil)
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			UpdateColumn("cancellation_reason", req.Reason).Error; err != nil {
			return err
		}
		userID := user.ID
		return tracker.TransitionWithActor(tx, &order, models.OrderStatusCancelled, &userID, false, "")
	})
	if err != nil {
		utils.LogError("Failed to cancel order %d: %v", orderID, err)
		utils.InternalServerError(c, "Failed to cancel order", nil)
		return
	}

	if err := refundQueue.Enqueue(order.ID, user.ID); err != nil {
		// The order is cancelled either way; an admin can re-enqueue the
		// refund if the broker was down.
		utils.LogError("Failed to enqueue refund for order %d: %v", order.ID, err)
	}

	utils.LogInfo("Order %d cancelled by user %d, refund queued", order.ID, user.ID)
	utils.Success(c, "Order cancelled. Your refund is being processed to your wallet.", gin.H{
		"order": gin.H{
			"id":            order.ID,
			"status":        order.Status,
			"refund_amount": fmt.Sprintf("%d", order.GrandTotal),
		},
	})
}
