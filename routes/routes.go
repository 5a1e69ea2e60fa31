package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful/controllers"
	"github.com/plateful/plateful/middleware"
	"github.com/plateful/plateful/utils"
)

// SetupRouter initializes and returns the Gin router with all routes
func SetupRouter() *gin.Engine {
	router := gin.New()

	// Global middleware must be registered before any route; gin combines
	// the chain into each handler at registration time.
	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.LoggerMiddleware())
	router.Use(utils.CORSMiddleware())
	router.Use(utils.SecurityHeadersMiddleware())

	// API version group
	api := router.Group("/v1")
	{
		initUserRoutes(api)
		initAdminRoutes(api)
	}

	return router
}

func initUserRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
	}

	user := api.Group("")
	user.Use(middleware.AuthMiddleware())
	{
		wallet := user.Group("/wallet")
		{
			wallet.GET("", controllers.GetWalletBalance)
			wallet.GET("/transactions", controllers.GetWalletTransactions)
			wallet.GET("/statement/pdf", controllers.DownloadWalletStatementPDF)
			wallet.GET("/statement/excel", controllers.DownloadWalletStatementExcel)
			wallet.POST("/topup", controllers.InitiateWalletTopup)
			wallet.POST("/topup/verify", controllers.VerifyWalletTopup)
		}

		orders := user.Group("/orders")
		{
			orders.POST("/:id/cancel", controllers.CancelOrder)
			orders.GET("/:id/transitions", controllers.ListOrderTransitions)
		}
	}
}

func initAdminRoutes(api *gin.RouterGroup) {
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.PUT("/orders/:id/status", controllers.AdminUpdateOrderStatus)
		admin.POST("/orders/:id/refund", controllers.AdminRequeueRefund)
		admin.GET("/cooks/:id/wallet", controllers.AdminGetCookWallet)
	}
}
