package services

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateful/plateful/config"
	"github.com/plateful/plateful/models"
)

// setupTestDB connects to the database named by TEST_DATABASE_DSN, migrates
// the schema and truncates all tables. Tests are skipped when no test
// database is configured.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateModels(db))

	tables := []string{
		"wallet_transactions",
		"wallets",
		"order_status_transitions",
		"orders",
		"wallet_topup_orders",
		"activity_logs",
		"cooks",
		"kitchens",
		"users",
	}
	for _, table := range tables {
		require.NoError(t, db.Exec("TRUNCATE TABLE "+table+" RESTART IDENTITY CASCADE").Error)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// seedKitchenWithCook creates a kitchen, its cook and the cook's wallet with
// the given held balance.
func seedKitchenWithCook(t *testing.T, db *gorm.DB, name string, heldBalance int64) (*models.Kitchen, *models.Cook, *models.Wallet) {
	t.Helper()

	kitchen := models.Kitchen{Name: name, IsActive: true}
	require.NoError(t, db.Create(&kitchen).Error)

	cook := models.Cook{Name: name + " cook", Email: name + "-cook@example.com", KitchenID: kitchen.ID}
	require.NoError(t, db.Create(&cook).Error)

	require.NoError(t, db.Model(&models.Kitchen{}).Where("id = ?", kitchen.ID).
		UpdateColumn("cook_id", cook.ID).Error)
	kitchen.CookID = cook.ID

	kitchenID := kitchen.ID
	wallet := models.Wallet{
		OwnerType:   models.WalletOwnerCook,
		OwnerID:     cook.ID,
		KitchenID:   &kitchenID,
		HeldBalance: heldBalance,
	}
	require.NoError(t, db.Create(&wallet).Error)

	return &kitchen, &cook, &wallet
}

func seedOrder(t *testing.T, db *gorm.DB, user *models.User, kitchen *models.Kitchen, grandTotal int64, status string) *models.Order {
	t.Helper()
	order := models.Order{
		UserID:     user.ID,
		KitchenID:  kitchen.ID,
		CookID:     kitchen.CookID,
		Subtotal:   grandTotal,
		GrandTotal: grandTotal,
		Status:     status,
	}
	require.NoError(t, db.Create(&order).Error)
	return &order
}

// recordingNotifier captures refund notifications instead of sending email.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []recordedNotification
	err   error
}

type recordedNotification struct {
	UserID  uint
	Amount  int64
	OrderID uint
}

func (n *recordingNotifier) NotifyRefund(user *models.User, amount int64, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, recordedNotification{UserID: user.ID, Amount: amount, OrderID: order.ID})
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// recordingAudit captures audit events in memory.
type recordingAudit struct {
	mu     sync.Mutex
	events []string
}

func (a *recordingAudit) RecordAudit(subjectType string, subjectID uint, causerID *uint, event string, properties map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func (a *recordingAudit) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}

func newTestWorkflow(db *gorm.DB) (*RefundWorkflow, *recordingNotifier, *recordingAudit) {
	ledger := NewWalletLedger()
	notifier := &recordingNotifier{}
	audit := &recordingAudit{}
	workflow := NewRefundWorkflow(db, ledger, NewCookWalletAdjustment(ledger), NewOrderStateTracker(), notifier, audit)
	return workflow, notifier, audit
}
