// internal/app/router.go
package app

import (
	accountHandler "lexinsight-service/internal/handlers/account"
	authHandler "lexinsight-service/internal/handlers/auth"
	billingHandler "lexinsight-service/internal/handlers/billing"
	reportHandler "lexinsight-service/internal/handlers/report"
	reviewHandler "lexinsight-service/internal/handlers/review"
	wsHandler "lexinsight-service/internal/handlers/websocket"
	"lexinsight-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	AuthHandler    *authHandler.AuthHandler
	ReviewHandler  *reviewHandler.ReviewHandler
	ReportHandler  *reportHandler.ReportHandler
	BillingHandler *billingHandler.BillingHandler
	AccountHandler *accountHandler.AccountHandler
	WSHandler      *wsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Public Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/register", h.AuthHandler.Register)
		authPublic.POST("/login", h.AuthHandler.Login)
		authPublic.POST("/refresh", h.AuthHandler.Refresh)
	}

	// Client feedback form posts, no auth
	api.POST("/feedback/:account_id", h.ReviewHandler.SubmitFeedback)

	// Payment gateway webhook deliveries, verified by signature
	api.POST("/billing/webhook", h.BillingHandler.Webhook)

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.Me)
	}

	// ==================== Reviews ====================
	reviews := api.Group("/reviews")
	reviews.Use(h.AuthMiddleware.Auth())
	{
		reviews.GET("", h.ReviewHandler.List)
		reviews.POST("/import", h.ReviewHandler.ImportCSV)
		reviews.DELETE("", h.ReviewHandler.DeleteAll)
	}

	// ==================== Reports ====================
	reports := api.Group("/reports")
	reports.Use(h.AuthMiddleware.Auth())
	{
		reports.POST("/generate", h.ReportHandler.Generate)
		reports.GET("", h.ReportHandler.History)
		reports.GET("/preview", h.ReportHandler.Preview)
	}

	// ==================== Account ====================
	accountGroup := api.Group("/account")
	accountGroup.Use(h.AuthMiddleware.Auth())
	{
		accountGroup.GET("/status", h.ReportHandler.Status)
	}

	// ==================== Billing ====================
	billing := api.Group("/billing")
	billing.Use(h.AuthMiddleware.Auth())
	{
		billing.POST("/checkout", h.BillingHandler.CreateCheckout)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		admin.GET("/accounts", h.AccountHandler.List)
		admin.POST("/accounts/:id/credits", h.AccountHandler.GrantCredits)
		admin.PUT("/accounts/:id/subscription", h.AccountHandler.SetSubscription)
	}
}
