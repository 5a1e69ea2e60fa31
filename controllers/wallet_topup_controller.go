package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plateful/plateful/config"
	"github.com/plateful/plateful/models"
	"github.com/plateful/plateful/utils"
	razorpay "github.com/razorpay/razorpay-go"
)

// InitiateWalletTopup creates a payment-gateway order to add money to the
// wallet. Amount is in integer minor units (paise).
func InitiateWalletTopup(c *gin.Context) {
	utils.LogInfo("InitiateWalletTopup called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var req struct {
		Amount int64 `json:"amount" binding:"required,min=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid topup request for user ID: %d: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. Amount is required in minor units (min 100)", err.Error())
		return
	}
	utils.LogDebug("Received topup request - User ID: %d, Amount: %d", user.ID, req.Amount)

	client := razorpay.NewClient(os.Getenv("RAZORPAY_KEY"), os.Getenv("RAZORPAY_SECRET"))
	orderData := map[string]interface{}{
		"amount":          req.Amount,
		"currency":        "INR",
		"receipt":         fmt.Sprintf("wallet_topup_%d_%s", user.ID, time.Now().Format("20060102150405")),
		"payment_capture": 1,
	}

	rzOrder, err := client.Order.Create(orderData, nil)
	if err != nil {
		utils.LogError("Failed to create gateway order for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to create payment order", nil)
		return
	}
	gatewayOrderID := fmt.Sprintf("%v", rzOrder["id"])
	utils.LogDebug("Created gateway order %s for user %d", gatewayOrderID, user.ID)

	topupOrder := models.WalletTopupOrder{
		UserID:         user.ID,
		GatewayOrderID: gatewayOrderID,
		Amount:         req.Amount,
		Status:         "pending",
	}
	if err := config.DB.Create(&topupOrder).Error; err != nil {
		utils.LogError("Failed to record topup order for user ID: %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to record topup order", nil)
		return
	}

	utils.LogInfo("Wallet topup initiated for user %d", user.ID)
	utils.Success(c, "Wallet topup order created successfully", gin.H{
		"gateway_order_id": gatewayOrderID,
		"amount":           req.Amount,
		"amount_display":   formatMinor(req.Amount),
		"key":              os.Getenv("RAZORPAY_KEY"),
	})
}

// VerifyWalletTopup verifies the gateway signature and credits the wallet
// through the ledger
func VerifyWalletTopup(c *gin.Context) {
	utils.LogInfo("VerifyWalletTopup called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var req struct {
		GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
		GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
		GatewaySignature string `json:"gateway_signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid verification request for user ID: %d: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	var topupOrder models.WalletTopupOrder
	if err := config.DB.Where("gateway_order_id = ? AND user_id = ?", req.GatewayOrderID, user.ID).First(&topupOrder).Error; err != nil {
		utils.LogError("Topup order not found - Order ID: %s: %v", req.GatewayOrderID, err)
		utils.BadRequest(c, "Unknown topup order", nil)
		return
	}

	keySecret := os.Getenv("RAZORPAY_SECRET")
	data := req.GatewayOrderID + "|" + req.GatewayPaymentID
	h := hmac.New(sha256.New, []byte(keySecret))
	h.Write([]byte(data))
	generatedSignature := hex.EncodeToString(h.Sum(nil))
	if generatedSignature != req.GatewaySignature {
		utils.LogError("Payment verification failed - Order ID: %s", req.GatewayOrderID)
		utils.BadRequest(c, "Payment verification failed", gin.H{"retry": true})
		return
	}
	utils.LogDebug("Verified payment signature for order ID: %s", req.GatewayOrderID)

	reference := fmt.Sprintf("TOPUP-%s-%s", req.GatewayPaymentID, uuid.New().String()[:8])
	transaction, err := topup.CompleteTopup(config.DB, &topupOrder, reference)
	if err != nil {
		utils.LogError("Failed to credit topup for order ID: %s: %v", req.GatewayOrderID, err)
		utils.InternalServerError(c, "Failed to credit wallet", nil)
		return
	}

	// A nil transaction means this payment was already credited, here or by
	// a concurrent verify; re-verifying is a no-op.
	if transaction == nil {
		utils.LogInfo("Topup order %s already completed", req.GatewayOrderID)
		utils.Success(c, "Topup already processed", nil)
		return
	}

	utils.LogInfo("Wallet topup completed for user %d, amount %d", user.ID, topupOrder.Amount)
	utils.Success(c, "Money added to wallet successfully!", gin.H{
		"amount_added":   formatMinor(topupOrder.Amount),
		"wallet_balance": transaction.BalanceAfter,
		"transaction_id": transaction.ID,
		"reference":      transaction.Reference,
	})
}
