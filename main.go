package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/rizkywidodo/TugasAkhir/internal/classifier"
	"github.com/rizkywidodo/TugasAkhir/internal/config"
	"github.com/rizkywidodo/TugasAkhir/internal/github_client"
	"github.com/rizkywidodo/TugasAkhir/internal/ml_client"
	"github.com/rizkywidodo/TugasAkhir/internal/repository"
	"github.com/rizkywidodo/TugasAkhir/internal/server"
	"github.com/rizkywidodo/TugasAkhir/internal/telegram_bot"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	log := logrus.New()

	// Load configuration
	cfgPath := "configs/config.yml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// External clients
	mlClient := ml_client.NewClient(cfg.MLService.URL)
	githubClient := github_client.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Token, logger)

	// Classification engine with its keyed model cache
	engine := classifier.NewEngine(mlClient, logger)

	// Optional admin notifier
	notifier, err := telegram_bot.NewNotifier(cfg, logger)
	if err != nil {
		logger.Warn("Failed to initialize Telegram notifier, continuing without it", zap.Error(err))
		notifier = nil
	}

	// Initialize and run the server
	srv := server.NewServer(db, cfg, engine, githubClient, notifier, log, logger)
	srv.Run(cfg.Server.Port)
}
