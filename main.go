package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/plateful/plateful/config"
	"github.com/plateful/plateful/controllers"
	"github.com/plateful/plateful/routes"
	"github.com/plateful/plateful/services"
	"github.com/plateful/plateful/utils"
	"github.com/plateful/plateful/workers"
)

func main() {
	// Initialize logger
	if err := utils.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	// Load environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("Error loading config: %v", err)
		log.Fatal("Error loading config:", err)
	}

	// Initialize database
	config.InitDB()

	// Wire up the wallet ledger and refund workflow
	ledger := services.NewWalletLedger()
	tracker := services.NewOrderStateTracker()
	cookAdjust := services.NewCookWalletAdjustment(ledger)
	notifier := services.NewEmailNotifier()
	audit := services.NewActivityAuditSink(config.DB)
	workflow := services.NewRefundWorkflow(config.DB, ledger, cookAdjust, tracker, notifier, audit)

	// Start the refund worker
	queue, err := workers.NewRefundQueue(cfg.AMQPUrl, workflow, func(task workers.RefundTask, err error) {
		utils.LogError("Refund for order %d abandoned after retries: %v", task.OrderID, err)
		if auditErr := audit.RecordAudit("order", task.OrderID, nil, "refund_failed", map[string]interface{}{
			"error":    err.Error(),
			"attempts": task.Attempt + 1,
		}); auditErr != nil {
			utils.LogError("Failed to record refund failure for order %d: %v", task.OrderID, auditErr)
		}
	})
	if err != nil {
		utils.LogError("Failed to connect refund queue: %v", err)
		log.Fatal("Failed to connect refund queue:", err)
	}
	defer queue.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := queue.Start(ctx); err != nil && ctx.Err() == nil {
			utils.LogError("Refund worker stopped: %v", err)
		}
	}()

	controllers.Init(ledger, tracker, services.NewWalletTopup(ledger), queue)

	// Set up router
	router := routes.SetupRouter()

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	utils.LogInfo("Server starting on port %s", port)
	// Start server
	if err := router.Run(":" + port); err != nil {
		utils.LogError("Error starting server: %v", err)
		log.Fatal("Error starting server:", err)
	}
}
