package services

import (
	"github.com/plateful/plateful/models"
	"github.com/plateful/plateful/utils"
)

// EmailNotifier delivers notifications over SMTP.
type EmailNotifier struct{}

// NewEmailNotifier creates a new EmailNotifier
func NewEmailNotifier() *EmailNotifier {
	return &EmailNotifier{}
}

// NotifyRefund emails the user that their cancelled order was refunded to
// their wallet.
func (n *EmailNotifier) NotifyRefund(user *models.User, amount int64, order *models.Order) error {
	utils.LogDebug("Sending refund notification to user %d for order %d", user.ID, order.ID)
	return utils.SendRefundEmail(user.Email, order.ID, amount)
}
