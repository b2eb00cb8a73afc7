package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/fitonboard/backend/internal/api"
	"github.com/fitonboard/backend/internal/api/handlers"
	"github.com/fitonboard/backend/internal/cache/redis"
	"github.com/fitonboard/backend/internal/confidence"
	"github.com/fitonboard/backend/internal/kg/builder"
	"github.com/fitonboard/backend/internal/kg/neo4j"
	"github.com/fitonboard/backend/internal/llm"
	"github.com/fitonboard/backend/internal/metrics"
	"github.com/fitonboard/backend/internal/middleware/ratelimit"
	"github.com/fitonboard/backend/internal/middleware/security"
	"github.com/fitonboard/backend/internal/middleware/validation"
	"github.com/fitonboard/backend/internal/profile"
	"github.com/fitonboard/backend/internal/selection"
	"github.com/fitonboard/backend/internal/storage/sqlite"
	"github.com/fitonboard/backend/internal/waiver"
	"github.com/fitonboard/backend/internal/workout"
	"github.com/fitonboard/backend/pkg/config"
	appLogger "github.com/fitonboard/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting FitOnboard API Server")

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	checks := map[string]handlers.Check{
		"sqlite": func(context.Context) error { return sqliteClient.Ping() },
	}

	metrics.Init()

	// Interface values stay nil unless the backing service is enabled.
	var (
		draftStore  waiver.DraftStore = sqliteClient
		cache       workout.Cache
		graph       workout.CandidateSource
		redisClient *redis.Client
	)

	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		draftStore = redisClient
		cache = redisClient
		checks["redis"] = redisClient.Ping
	}

	if cfg.Neo4j.Enabled {
		neo4jClient, err := neo4j.NewClient(cfg.Neo4j)
		if err != nil {
			appLogger.Fatal("Failed to create Neo4j client", zap.Error(err))
		}
		defer neo4jClient.Close(context.Background())
		graph = neo4jClient
		checks["neo4j"] = func(ctx context.Context) error {
			_, err := neo4jClient.CountExercises(ctx)
			return err
		}

		if cfg.Neo4j.Seed {
			seedCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			_, err := builder.NewBuilder(neo4jClient).Seed(seedCtx)
			cancel()
			if err != nil {
				appLogger.Warn("Failed to seed exercise graph", zap.Error(err))
			} else if redisClient != nil {
				// Cached plans were built from the previous candidate set.
				if _, err := redisClient.InvalidateWorkouts(context.Background()); err != nil {
					appLogger.Warn("Failed to invalidate cached workouts", zap.Error(err))
				}
			}
		}

		if count, err := neo4jClient.CountExercises(context.Background()); err == nil {
			metrics.GraphExercises.Set(float64(count))
		}
	}

	llmClient := llm.NewClient(cfg.LLM)
	scorer := confidence.NewService(cfg.Scoring)

	waiverService := waiver.NewService(sqliteClient, draftStore,
		time.Duration(cfg.Drafts.DebounceMS)*time.Millisecond)
	defer waiverService.Close()

	workoutConfig := workout.DefaultConfig()
	if cfg.Redis.WorkoutTTL > 0 {
		workoutConfig.CacheTTL = time.Duration(cfg.Redis.WorkoutTTL) * time.Second
	}
	workoutService := workout.NewService(sqliteClient, cache, graph, llmClient, scorer, workoutConfig)

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Security.MaxRequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	allowOrigins := "*"
	if len(cfg.Security.AllowedOrigins) > 0 {
		allowOrigins = strings.Join(cfg.Security.AllowedOrigins, ",")
	}

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins:  cfg.Security.AllowedOrigins,
		IsDevelopment:   cfg.Security.IsDevelopment,
		NoStorePrefixes: []string{"/api/v1/waivers", "/api/v1/profiles", "/api/v1/workouts"},
	}))
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	app.Get("/metrics", metrics.MetricsHandler())

	health := handlers.NewHealthHandler(checks)
	if redisClient != nil {
		health.WithCounters(redisClient, metrics.DurableCounters...)
	}

	api.Register(app, api.Handlers{
		Health:    health,
		Waiver:    handlers.NewWaiverHandler(waiverService),
		Profile:   handlers.NewProfileHandler(profile.NewService(sqliteClient)),
		Selection: handlers.NewSelectionHandler(selection.BodyAreas(), selection.Equipment()),
		Workout:   handlers.NewWorkoutHandler(workoutService),
		WebSocket: handlers.NewWebSocketHandler(workoutService),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Warn("Shutdown did not complete cleanly", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
