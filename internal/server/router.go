package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/plantpal-backend/internal/handlers"
	"github.com/yungbote/plantpal-backend/internal/observability"
)

type RouterConfig struct {
	PlantHandler        *handlers.PlantHandler
	ActivityHandler     *handlers.ActivityHandler
	PolicyHandler       *handlers.PolicyHandler
	NotificationHandler *handlers.NotificationHandler
	Metrics             *observability.Metrics
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("plantpal-backend"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := router.Group("/api")
	{
		// Plants
		api.POST("/plants", cfg.PlantHandler.Create)
		api.GET("/plants", cfg.PlantHandler.List)
		api.GET("/plants/:id", cfg.PlantHandler.Get)
		api.PUT("/plants/:id", cfg.PlantHandler.Update)
		api.DELETE("/plants/:id", cfg.PlantHandler.Delete)

		// Care activity
		api.POST("/plants/:id/activities", cfg.ActivityHandler.Log)
		api.GET("/plants/:id/activities", cfg.ActivityHandler.List)

		// Policies
		api.GET("/policy", cfg.PolicyHandler.GetGlobal)
		api.PUT("/policy", cfg.PolicyHandler.UpdateGlobal)
		api.GET("/plants/:id/policy", cfg.PolicyHandler.GetPlantPolicy)
		api.PUT("/plants/:id/policy", cfg.PolicyHandler.UpsertPlantPolicy)
		api.DELETE("/plants/:id/policy", cfg.PolicyHandler.DeletePlantPolicy)

		// Notifications
		api.GET("/plants/:id/notifications", cfg.NotificationHandler.ListForPlant)
		api.DELETE("/notifications/:id", cfg.NotificationHandler.Cancel)
		api.POST("/notifications/evaluate", cfg.NotificationHandler.Evaluate)
		api.POST("/notifications/outcome", cfg.NotificationHandler.Outcome)
	}

	return router
}
