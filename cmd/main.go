package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/plantpal-backend/internal/clients/redis"
	"github.com/yungbote/plantpal-backend/internal/clients/weather"
	"github.com/yungbote/plantpal-backend/internal/db"
	"github.com/yungbote/plantpal-backend/internal/handlers"
	"github.com/yungbote/plantpal-backend/internal/jobs"
	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/observability"
	"github.com/yungbote/plantpal-backend/internal/repos"
	"github.com/yungbote/plantpal-backend/internal/scheduling"
	"github.com/yungbote/plantpal-backend/internal/server"
	"github.com/yungbote/plantpal-backend/internal/services"
	"github.com/yungbote/plantpal-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Env
	log.Info("Loading environment variables from main...")
	evaluateInterval := utils.GetEnvAsInt("EVALUATE_INTERVAL_MINUTES", 30, log)
	weatherPollMinutes := utils.GetEnvAsInt("WEATHER_POLL_MINUTES", 60, log)
	weatherTTLHours := utils.GetEnvAsInt("WEATHER_TTL_HOURS", 3, log)
	batchWindowMinutes := utils.GetEnvAsInt("BATCH_WINDOW_MINUTES", 10, log)
	scheduleTZ := utils.GetEnv("SCHEDULE_TZ", "UTC", log)
	seasonalConfigPath := utils.GetEnv("SEASONAL_CONFIG_PATH", "", log)

	loc, err := time.LoadLocation(scheduleTZ)
	if err != nil {
		log.Warn("Invalid SCHEDULE_TZ, falling back to UTC", "tz", scheduleTZ, "error", err)
		loc = time.UTC
	}

	// Observability
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "plantpal-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = shutdownOTel(shutdownCtx)
			cancel()
		}()
	}
	metrics := observability.Init(log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()
	metrics.StartPostgresCollector(ctx, log, thePG)
	metrics.StartRedisCollector(ctx, log, os.Getenv("REDIS_ADDR"))
	metrics.StartServer(ctx, log, os.Getenv("METRICS_ADDR"))

	// Repos
	log.Info("Setting up Repos from main...")
	plantRepo := repos.NewPlantRepo(thePG, log)
	activityRepo := repos.NewCareActivityRepo(thePG, log)
	policyRepo := repos.NewPolicyRepo(thePG, log)
	notificationRepo := repos.NewNotificationRepo(thePG, log)
	batchRepo := repos.NewBatchRepo(thePG, log)

	// Seasonal config
	seasonal := scheduling.DefaultSeasonalConfig()
	if seasonalConfigPath != "" {
		loaded, err := scheduling.LoadSeasonalConfig(seasonalConfigPath)
		if err != nil {
			log.Warn("Could not load seasonal config, using defaults", "path", seasonalConfigPath, "error", err)
		} else {
			seasonal = loaded
		}
	}

	// Clients
	weatherClient, err := weather.NewClient(log)
	if err != nil {
		log.Warn("Could not init WeatherClient, scheduling runs weather-unaware", "error", err)
	}
	pushBus, err := redis.NewPushBus(log)
	if err != nil {
		log.Error("Could not init PushBus", "error", err)
		os.Exit(1)
	}
	defer pushBus.Close()

	// Services
	log.Info("Setting up Services from main...")
	weatherService := services.NewWeatherService(log, weatherClient)
	weatherService.StartPolling(ctx, time.Duration(weatherPollMinutes)*time.Minute)

	scheduler := services.NewSchedulerFromRepos(
		log,
		policyRepo,
		activityRepo,
		notificationRepo,
		batchRepo,
		weatherService,
		pushBus,
		seasonal,
		metrics,
		scheduling.Config{
			WeatherTTL:         time.Duration(weatherTTLHours) * time.Hour,
			BatchWindowMinutes: batchWindowMinutes,
			Location:           loc,
		},
	)
	notificationService := services.NewNotificationService(log, plantRepo, notificationRepo, scheduler)
	policyService := services.NewPolicyService(log, policyRepo, plantRepo, notificationService)
	activityService := services.NewActivityService(log, activityRepo, plantRepo, notificationRepo, notificationService)
	plantService := services.NewPlantService(log, plantRepo, notificationService)

	// Transport outcome listener
	if err := pushBus.StartOutcomeListener(ctx, func(handle string, outcome scheduling.Outcome) {
		if err := notificationService.HandleOutcome(ctx, handle, outcome); err != nil {
			log.Warn("Outcome handling failed", "handle", handle, "error", err)
		}
	}); err != nil {
		log.Error("Could not start outcome listener", "error", err)
		os.Exit(1)
	}

	// Evaluation worker
	worker := jobs.NewWorker(log, notificationService, metrics, time.Duration(evaluateInterval)*time.Minute)
	worker.Start(ctx)

	// Handlers
	log.Info("Setting up handlers from main...")
	plantHandler := handlers.NewPlantHandler(log, plantService)
	activityHandler := handlers.NewActivityHandler(log, activityService)
	policyHandler := handlers.NewPolicyHandler(log, policyService)
	notificationHandler := handlers.NewNotificationHandler(log, notificationService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		PlantHandler:        plantHandler,
		ActivityHandler:     activityHandler,
		PolicyHandler:       policyHandler,
		NotificationHandler: notificationHandler,
		Metrics:             metrics,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
