package utils

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// EmailConfig holds email configuration
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func emailConfigFromEnv() EmailConfig {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil || port == 0 {
		port = 587
	}
	return EmailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

// SendEmail sends an HTML email using SMTP
func SendEmail(to, subject, body string) error {
	config := emailConfigFromEnv()

	m := gomail.NewMessage()
	m.SetHeader("From", config.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	return nil
}

// SendRefundEmail notifies a user that a cancelled order was refunded to
// their wallet. Amount is in minor units.
func SendRefundEmail(to string, orderID uint, amount int64) error {
	subject := fmt.Sprintf("Refund issued for order #%d", orderID)
	body := fmt.Sprintf(`
		<h2>Your refund is in your wallet</h2>
		<p>Order #%d was cancelled and the full amount has been credited to your Plateful wallet.</p>
		<h1 style="color: #4CAF50;">₹%.2f</h1>
		<p>You can use this balance on your next order.</p>
	`, orderID, float64(amount)/100)

	return SendEmail(to, subject, body)
}
