package routes

import (
	"net/http"

	"studwork_backend/internal/handlers"
	"studwork_backend/internal/middleware"
	"studwork_backend/internal/models"
	"studwork_backend/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all HTTP and WebSocket routes.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
	jwtSecret string,
) {
	authMW := middleware.AuthMiddleware(jwtSecret)
	adminMW := middleware.RequireRoles(models.UserRoleAdmin)

	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := ginRouter.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", appHandlers.AuthHandler.Register)
			auth.POST("/login", appHandlers.AuthHandler.Login)
		}

		authed := api.Group("")
		authed.Use(authMW)
		{
			authed.GET("/users/me", appHandlers.AuthHandler.GetCurrentUser)

			kyc := authed.Group("/kyc")
			{
				kyc.POST("", appHandlers.VerificationHandler.Submit)
				kyc.GET("/status", appHandlers.VerificationHandler.Status)
				kyc.GET("/audit", appHandlers.VerificationHandler.MyAuditTrail)
			}

			notifications := authed.Group("/notifications")
			{
				notifications.GET("", appHandlers.NotificationHandler.List)
				notifications.POST("/:id/read", appHandlers.NotificationHandler.MarkAsRead)
			}
		}

		admin := api.Group("/admin/kyc")
		admin.Use(authMW, adminMW)
		{
			admin.GET("/pending", appHandlers.AdminKycHandler.PendingQueue)
			admin.GET("/stats", appHandlers.AdminKycHandler.Stats)

			admin.POST("/:user_id/approve", appHandlers.AdminKycHandler.Approve)
			admin.POST("/:user_id/reject", appHandlers.AdminKycHandler.Reject)
			admin.POST("/:user_id/suspend", appHandlers.AdminKycHandler.Suspend)
			admin.POST("/:user_id/reactivate", appHandlers.AdminKycHandler.Reactivate)

			admin.GET("/:user_id/audit", appHandlers.AdminKycHandler.AuditBySubject)
			admin.GET("/audit/actor/:actor_id", appHandlers.AdminKycHandler.AuditByActor)
			admin.GET("/audit/action/:action", appHandlers.AdminKycHandler.AuditByAction)

			admin.GET("/:user_id/consistency", appHandlers.AdminKycHandler.CheckConsistency)
			admin.POST("/reconcile", appHandlers.AdminKycHandler.Reconcile)
		}
	}

	wsGroup := ginRouter.Group("/ws")
	wsGroup.Use(authMW)
	{
		wsGroup.GET("", wsHandler.ServeWS)
	}
}
