package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/devhance/backend/internal/api"
	"github.com/devhance/backend/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(
	projectHandler *api.ProjectHandler,
	userHandler *api.UserHandler,
	webhookHandler *api.WebhookHandler,
	healthHandler *api.HealthHandler,
	clientOrigin string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{clientOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	apiGroup := router.Group("/api")
	projectHandler.RegisterRoutes(apiGroup)
	userHandler.RegisterRoutes(apiGroup)
	webhookHandler.RegisterRoutes(apiGroup)
	healthHandler.RegisterRoutes(apiGroup)

	return router
}
