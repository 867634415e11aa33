package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mikeboe/research-stream/pkg/clients"
	"github.com/mikeboe/research-stream/pkg/config"
	"github.com/mikeboe/research-stream/pkg/database"
	"github.com/mikeboe/research-stream/pkg/logging"
	"github.com/mikeboe/research-stream/pkg/research"
	"github.com/mikeboe/research-stream/pkg/research/tools"
	"github.com/mikeboe/research-stream/pkg/server"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel)
	ctx := context.Background()

	analyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		logger.Error("Failed to init analyzer", "backend", cfg.AnalyzerBackend, "error", err)
		os.Exit(1)
	}

	// Recording is optional; without a database runs only stream.
	var store server.RunStore
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.InitSchema(ctx); err != nil {
			logger.Error("Failed to initialize schema", "error", err)
			os.Exit(1)
		}
		store = database.NewRunStore(db)
	} else {
		logger.Warn("DATABASE_URL not set, runs will not be recorded")
	}

	arxiv := tools.NewArxiv()
	brave := tools.NewBrave(cfg.BraveApiKey)
	searchers := map[string]research.Searcher{
		arxiv.Name(): arxiv,
		brave.Name(): brave,
	}

	svc := server.NewService(searchers, analyzer, research.Config{
		NumResults:      cfg.NumResults,
		MinContentChars: cfg.MinContentChars,
		MaxContentChars: cfg.MaxContentChars,
	}, store)
	svc.DefaultSource = cfg.DefaultSource
	svc.Logger = logger
	handler := server.NewHandler(svc)

	// Web Server Setup
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	handler.RegisterRoutes(r)

	logger.Info("Server starting", "port", cfg.Port, "backend", cfg.AnalyzerBackend, "model", cfg.Model)
	if err := r.Run(":" + cfg.Port); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}

func newAnalyzer(ctx context.Context, cfg *config.Config) (research.Analyzer, error) {
	opts := clients.GenerationOptions{MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature}

	if cfg.AnalyzerBackend == config.BackendGenai {
		return clients.NewGenaiAnalyzer(ctx, cfg.Model, cfg.GoogleApiKey, opts)
	}
	llm, err := clients.GoogleAi(ctx, clients.ModelType(cfg.Model), cfg.GoogleApiKey)
	if err != nil {
		return nil, err
	}
	return clients.NewLangchainAnalyzer(llm, opts), nil
}
