package main

import (
	"fmt"

	"github.com/amaumene/gostremiocz/internal/config"
	"github.com/amaumene/gostremiocz/internal/database"
	"github.com/amaumene/gostremiocz/internal/services"
	"github.com/amaumene/gostremiocz/pkg/logger"
)

// app is everything a command needs once configuration is loaded.
type app struct {
	cfg       *config.Config
	log       logger.Logger
	container *services.Container
}

// newApp loads configuration and builds the service container. persist
// opens the bolt title store; without it titles live in memory only.
func newApp(configPath string, persist bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := logger.NewWithOptions(logger.Options{
		Level:    cfg.LogLevel,
		File:     cfg.LogFile,
		Compress: true,
	})

	var db database.Database
	if persist {
		bolt, err := database.NewBolt(cfg.DatabasePath, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		db = bolt
		log.Infof("[App] title store opened at %s", cfg.DatabasePath)
	}

	container, err := services.NewContainer(cfg, db, log)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	if cfg.TMDBAPIKey == "" {
		log.Warnf("[App] TMDB_API_KEY not set; requests must carry their own key")
	}
	if cfg.HasPremium() {
		log.Infof("[App] premium credentials configured for %s", cfg.PrehrajtoEmail)
	}

	return &app{cfg: cfg, log: log, container: container}, nil
}

func (a *app) Close() error {
	return a.container.Close()
}
