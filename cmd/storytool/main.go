package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"adventure-server/internal/logger"
	"adventure-server/internal/toolserver"
)

const defaultAPIBaseURL = "http://localhost:8000/api"

func main() {
	_ = godotenv.Load()

	apiBaseURL := os.Getenv("STORY_API_BASE_URL")
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}

	// stdout занят протоколом MCP, весь лог уходит в stderr
	appLogger, err := logger.New(logger.Config{
		Level:      os.Getenv("LOG_LEVEL"),
		Encoding:   "json",
		OutputPath: "stderr",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = appLogger.Sync() }()

	apiClient := toolserver.NewAPIClient(apiBaseURL, 30*time.Second, appLogger)
	srv := toolserver.New(apiClient, appLogger)

	appLogger.Info("Starting story tool adapter", zap.String("api_base_url", apiBaseURL))
	if err := srv.ServeStdio(); err != nil {
		appLogger.Fatal("MCP server stopped with error", zap.Error(err))
	}
}
