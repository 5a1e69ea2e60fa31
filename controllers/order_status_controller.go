package controllers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful/config"
	"github.com/plateful/plateful/models"
	"github.com/plateful/plateful/services"
	"github.com/plateful/plateful/utils"
	"gorm.io/gorm"
)

// ListOrderTransitions returns the status history of an order
func ListOrderTransitions(c *gin.Context) {
	utils.LogInfo("ListOrderTransitions called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "Unauthorized")
		return
	}
	user := userVal.(models.User)

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid order ID", nil)
		return
	}

	var order models.Order
	query := config.DB.Where("id = ?", orderID)
	if !user.IsAdmin {
		query = query.Where("user_id = ?", user.ID)
	}
	if err := query.First(&order).Error; err != nil {
		utils.LogError("Order not found - Order ID: %d: %v", orderID, err)
		utils.NotFound(c, "Order not found")
		return
	}

	var transitions []models.OrderStatusTransition
	if err := config.DB.Where("order_id = ?", order.ID).Order("created_at ASC").Find(&transitions).Error; err != nil {
		utils.LogError("Failed to fetch transitions for order %d: %v", order.ID, err)
		utils.InternalServerError(c, "Failed to fetch order history", nil)
		return
	}

	history := make([]gin.H, len(transitions))
	for i, t := range transitions {
		history[i] = gin.H{
			"from_status":       t.FromStatus,
			"to_status":         t.ToStatus,
			"is_admin_override": t.IsAdminOverride,
			"override_reason":   t.OverrideReason,
			"created_at":        t.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	utils.Success(c, "Order history retrieved successfully", gin.H{
		"order": gin.H{
			"id":     order.ID,
			"status": order.Status,
		},
		"transitions": history,
	})
}

// AdminUpdateOrderStatus force-moves an order to a new status, recording an
// admin override in the transition log
func AdminUpdateOrderStatus(c *gin.Context) {
	utils.LogInfo("AdminUpdateOrderStatus called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "Unauthorized")
		return
	}
	admin := userVal.(models.User)

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.LogError("Invalid order ID: %v", err)
		utils.BadRequest(c, "Invalid order ID", nil)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid status update request: %v", err)
		utils.BadRequest(c, "Status and reason are required", nil)
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFoundError("Order not found", err)
			}
			return err
		}
		adminID := admin.ID
		if err := tracker.TransitionWithActor(tx, &order, req.Status, &adminID, true, req.Reason); err != nil {
			if errors.Is(err, services.ErrInvalidTransition) {
				return utils.ConflictError(fmt.Sprintf("Order cannot move from %s to %s", order.Status, req.Status), err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		utils.LogError("Failed to update order %d status: %v", orderID, err)
		if appErr := utils.GetAppError(err); appErr != nil {
			utils.Error(c, appErr.Code, appErr.Message, nil)
			return
		}
		utils.InternalServerError(c, "Failed to update order status", nil)
		return
	}

	utils.LogInfo("Admin %d moved order %d to %s", admin.ID, orderID, req.Status)
	utils.Success(c, "Order status updated successfully", gin.H{
		"order": gin.H{
			"id":     orderID,
			"status": req.Status,
		},
	})
}

// AdminRequeueRefund re-enqueues the refund task for a cancelled order.
// Safe to call on already-refunded orders; the workflow no-ops.
func AdminRequeueRefund(c *gin.Context) {
	utils.LogInfo("AdminRequeueRefund called")

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid order ID", nil)
		return
	}

	var order models.Order
	if err := config.DB.First(&order, orderID).Error; err != nil {
		utils.LogError("Order not found - Order ID: %d: %v", orderID, err)
		utils.NotFound(c, "Order not found")
		return
	}

	if order.Status != models.OrderStatusCancelled && order.Status != models.OrderStatusRefunded {
		utils.LogError("Refund requeue rejected - Order ID: %d, Status: %s", orderID, order.Status)
		utils.BadRequest(c, "Order is not cancelled", nil)
		return
	}

	if err := refundQueue.Enqueue(order.ID, order.UserID); err != nil {
		utils.LogError("Failed to enqueue refund for order %d: %v", order.ID, err)
		utils.InternalServerError(c, "Failed to enqueue refund", nil)
		return
	}

	utils.LogInfo("Refund re-enqueued for order %d", order.ID)
	utils.Success(c, "Refund task enqueued", gin.H{
		"order_id": order.ID,
		"status":   order.Status,
	})
}
