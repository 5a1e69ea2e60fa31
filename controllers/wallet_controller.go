package controllers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful/config"
	"github.com/plateful/plateful/models"
	"github.com/plateful/plateful/utils"
)

// GetWalletBalance returns the user's wallet balance
func GetWalletBalance(c *gin.Context) {
	utils.LogInfo("GetWalletBalance called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	wallet, err := ledger.GetOrCreateWallet(config.DB, models.WalletOwnerUser, user.ID, nil)
	if err != nil {
		utils.LogError("Failed to get wallet for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to get wallet", nil)
		return
	}

	utils.Success(c, "Wallet balance retrieved successfully", gin.H{
		"balance":         wallet.Balance,
		"balance_display": formatMinor(wallet.Balance),
	})
}

// GetWalletTransactions returns the user's wallet transaction history
func GetWalletTransactions(c *gin.Context) {
	utils.LogInfo("GetWalletTransactions called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	wallet, err := ledger.GetOrCreateWallet(config.DB, models.WalletOwnerUser, user.ID, nil)
	if err != nil {
		utils.LogError("Failed to get wallet for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to get wallet", nil)
		return
	}

	pagination := utils.NewPagination(c)

	var total int64
	if err := config.DB.Model(&models.WalletTransaction{}).Where("wallet_id = ?", wallet.ID).Count(&total).Error; err != nil {
		utils.LogError("Failed to count transactions for wallet ID: %d: %v", wallet.ID, err)
		utils.InternalServerError(c, "Failed to count transactions", nil)
		return
	}
	pagination.SetTotal(total)

	var transactions []models.WalletTransaction
	if err := config.DB.Where("wallet_id = ?", wallet.ID).
		Order("created_at DESC").
		Limit(pagination.Limit).Offset(pagination.Offset).
		Find(&transactions).Error; err != nil {
		utils.LogError("Failed to get transactions for wallet ID: %d: %v", wallet.ID, err)
		utils.InternalServerError(c, "Failed to get transactions", nil)
		return
	}

	formatted := make([]gin.H, len(transactions))
	for i, txn := range transactions {
		formatted[i] = gin.H{
			"id":             txn.ID,
			"type":           txn.Type,
			"direction":      txn.Direction,
			"amount":         txn.Amount,
			"amount_display": formatMinor(txn.Amount),
			"balance_after":  txn.BalanceAfter,
			"order_id":       txn.OrderID,
			"reference":      txn.Reference,
			"description":    txn.Description,
			"created_at":     txn.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	utils.SuccessWithPagination(c, "Wallet transactions retrieved successfully", gin.H{
		"transactions": formatted,
		"wallet": gin.H{
			"balance":         wallet.Balance,
			"balance_display": formatMinor(wallet.Balance),
		},
	}, total, pagination.Page, pagination.Limit)
}

// AdminGetCookWallet returns a cook's wallet, including held funds, for
// kitchen dashboards
func AdminGetCookWallet(c *gin.Context) {
	utils.LogInfo("AdminGetCookWallet called")

	cookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid cook ID", nil)
		return
	}

	var cook models.Cook
	if err := config.DB.First(&cook, cookID).Error; err != nil {
		utils.LogError("Cook not found - Cook ID: %d: %v", cookID, err)
		utils.NotFound(c, "Cook not found")
		return
	}

	kitchenID := cook.KitchenID
	wallet, err := ledger.GetOrCreateWallet(config.DB, models.WalletOwnerCook, cook.ID, &kitchenID)
	if err != nil {
		utils.LogError("Failed to get wallet for cook ID: %d: %v", cook.ID, err)
		utils.InternalServerError(c, "Failed to get wallet", nil)
		return
	}

	var transactions []models.WalletTransaction
	if err := config.DB.Where("wallet_id = ?", wallet.ID).
		Order("created_at DESC").Limit(20).
		Find(&transactions).Error; err != nil {
		utils.LogError("Failed to get transactions for wallet ID: %d: %v", wallet.ID, err)
		utils.InternalServerError(c, "Failed to get transactions", nil)
		return
	}

	formatted := make([]gin.H, len(transactions))
	for i, txn := range transactions {
		formatted[i] = gin.H{
			"id":             txn.ID,
			"type":           txn.Type,
			"direction":      txn.Direction,
			"balance_kind":   txn.BalanceKind,
			"amount":         txn.Amount,
			"amount_display": formatMinor(txn.Amount),
			"order_id":       txn.OrderID,
			"created_at":     txn.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	utils.Success(c, "Cook wallet retrieved successfully", gin.H{
		"cook": gin.H{
			"id":         cook.ID,
			"name":       cook.Name,
			"kitchen_id": cook.KitchenID,
		},
		"wallet": gin.H{
			"balance":              wallet.Balance,
			"balance_display":      formatMinor(wallet.Balance),
			"held_balance":         wallet.HeldBalance,
			"held_balance_display": formatMinor(wallet.HeldBalance),
			"total":                wallet.Balance + wallet.HeldBalance,
		},
		"recent_transactions": formatted,
	})
}

// formatMinor renders integer minor units as a rupee string
func formatMinor(amount int64) string {
	return fmt.Sprintf("₹%.2f", float64(amount)/100)
}
