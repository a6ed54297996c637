package main

import (
	"context"
	"time"

	"livegraphs/internal/analytics"
	"livegraphs/internal/config"
	"livegraphs/internal/database"
	"livegraphs/internal/server"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := cfg.SetupLogger()

	// Initialize the embedded database engine
	store := database.NewFileStore(cfg.SnapshotPath)
	engine := database.NewEngine(cfg.DataDir, store, cfg.SnapshotSoftLimit, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := engine.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Database engine failed to initialize")
	}
	defer func() { _ = engine.Close() }()

	svc, err := analytics.NewService(engine.DB(), cfg.TopN, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Analytics service failed to initialize")
	}

	// Create and initialize server
	srv := server.New(cfg, engine, svc, logger)
	srv.Initialize()

	// Start server
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}
