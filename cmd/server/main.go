package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ir-chat/internal/api"
	"ir-chat/internal/assistant"
	"ir-chat/internal/config"
	"ir-chat/internal/db"
	"ir-chat/internal/models"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := newLogger(*debug)
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Ensure the sqlite data directory exists
	if cfg.Database.Driver == "sqlite" || cfg.Database.Driver == "sqlite3" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	database, err := db.Open(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migrated", zap.String("driver", cfg.Database.Driver))

	if err := seedCompanies(database, cfg.CompaniesFile, logger); err != nil {
		logger.Fatal("Failed to seed companies", zap.Error(err))
	}

	assistantClient := assistant.NewClient(logger,
		assistant.WithRunTimeout(cfg.OpenAI.RunTimeout))

	router := api.NewRouter(api.RouterConfig{
		Database:           database,
		Assistant:          assistantClient,
		Logger:             logger,
		PublicURL:          cfg.Server.PublicURL,
		DefaultSuggestions: cfg.Chat.DefaultSuggestions,
		ServiceCredentials: assistant.Credentials{
			APIKey:      cfg.OpenAI.APIKey,
			AssistantID: cfg.OpenAI.AssistantID,
		},
	})

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Fatal("Server forced to shutdown", zap.Error(err))
		}

		close(done)
	}()

	logger.Info("Server starting", zap.String("port", cfg.Server.Port))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Server failed to start", zap.Error(err))
	}

	<-done
	logger.Info("Server stopped gracefully")
}

func newLogger(debug bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

// seedCompanies registers the tenants listed in the companies file. Seeding
// is an upsert, so restarting with an edited file refreshes credentials.
func seedCompanies(database *db.DB, path string, logger *zap.Logger) error {
	seeds, err := config.LoadCompanySeeds(path)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		return nil
	}

	for _, seed := range seeds {
		company := &models.Company{
			Name:               seed.Name,
			AssistantID:        seed.AssistantID,
			OpenAIAPIKey:       seed.OpenAIAPIKey,
			InvestURL:          seed.InvestURL,
			DefaultSuggestions: seed.DefaultSuggestions,
		}
		if err := database.UpsertCompany(company); err != nil {
			return err
		}
		logger.Info("Company seeded", zap.String("company", company.Name))
	}
	return nil
}
