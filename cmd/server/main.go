package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"adventure-server/internal/ai"
	"adventure-server/internal/config"
	"adventure-server/internal/database"
	"adventure-server/internal/handler"
	"adventure-server/internal/logger"
	"adventure-server/internal/middleware"
	"adventure-server/internal/repository"
	"adventure-server/internal/service"
	"adventure-server/migrations"
	"adventure-server/pkg/migration"
	"adventure-server/pkg/taskrunner"
)

func main() {
	// Загрузка переменных окружения (.env опционален, в production его нет)
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Инициализация логгера
	appLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = appLogger.Sync() }()
	zap.ReplaceGlobals(appLogger)

	// Код в pkg/ пишет через zerolog
	initZerolog(cfg)

	zap.L().Info("Starting adventure server",
		zap.String("env", cfg.Env),
		zap.String("ai_client_type", cfg.AIClientType),
		zap.String("ai_model", cfg.AIModel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Подключение к PostgreSQL
	dbPool, err := database.NewPool(ctx, cfg, appLogger)
	if err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	// Применение миграций
	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: ".",
		MigrationsFS:   migrations.FS,
	}, dbPool)
	if err := migrator.Up(); err != nil {
		zap.L().Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Репозитории
	storyRepo := repository.NewPgStoryRepository(dbPool, appLogger)
	jobRepo := repository.NewPgJobRepository(dbPool, appLogger)

	// AI клиент
	aiClient, err := ai.NewClient(cfg, appLogger)
	if err != nil {
		zap.L().Fatal("Failed to create AI client", zap.Error(err))
	}

	// Раннер фоновых задач генерации
	runner := taskrunner.New(taskrunner.Config{MaxTasks: 100})

	storyService := service.NewStoryService(storyRepo, jobRepo, aiClient, runner, cfg, appLogger)
	storyHandler := handler.NewStoryHandler(storyService, appLogger)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := newRouter(cfg, storyHandler, appLogger)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSeconds) * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	// Даем запущенным генерациям шанс дописать результат в базу
	if err := runner.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Task runner shutdown failed", zap.Error(err))
	}

	zap.L().Info("Server stopped gracefully")
}

// newRouter собирает HTTP-роутер. Gin фиксирует цепочку middleware
// каждого роута в момент его регистрации, поэтому все middleware,
// включая prometheus, подключаются до RegisterRoutes.
func newRouter(cfg *config.Config, storyHandler *handler.StoryHandler, appLogger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.GinZapLogger(appLogger))
	router.Use(gin.Recovery())
	router.Use(zerologContextMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.GetAllowedOrigins()
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	apiGroup := router.Group(cfg.APIPrefix)
	storyHandler.RegisterRoutes(apiGroup)

	return router
}

// initZerolog настраивает глобальный zerolog для кода в pkg/
func initZerolog(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Env == "development" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}
	logLevel := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logLevel = lvl
	}
	zerolog.SetGlobalLevel(logLevel)
}

// zerologContextMiddleware внедряет zerolog логгер в контекст запроса,
// чтобы фоновые задачи, созданные из запроса, унаследовали его.
func zerologContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctxWithLogger := zlog.Logger.WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctxWithLogger)
		c.Next()
	}
}
