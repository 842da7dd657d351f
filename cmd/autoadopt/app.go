package main

import (
	"context"
	"fmt"

	"autoadopt/internal/adopt"
	"autoadopt/internal/config"
	"autoadopt/internal/logger"
	"autoadopt/internal/oui"
	"autoadopt/internal/probe"
	"autoadopt/internal/repository/sqlite"
	"autoadopt/internal/service"
)

// app holds the wired components shared by every command
type app struct {
	cfg        *config.Config
	configPath string
	repo       *sqlite.Repository
	eventBus   *service.EventBus
	inventory  *service.Inventory
	prober     *probe.Prober
	discovery  *service.DiscoveryService
	adoption   *service.AdoptionService
}

// loadConfig reads the config from --config or the standard locations and
// initializes logging
func loadConfig() (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if configPath != "" {
		cfg, path, err = config.LoadFromPath(configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	// the flag applies to this run only and is never saved
	logging := cfg.Logging
	if logLevel != "" {
		logging.Level = logLevel
	}
	if err := logger.Init(logging); err != nil {
		return nil, path, fmt.Errorf("init logging: %w", err)
	}
	return cfg, path, nil
}

// newApp wires the repository, prober and services from the config
func newApp(ctx context.Context) (*app, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent("main")
	if path != "" {
		log.Info().Str("path", path).Msg("Loaded config")
	} else {
		log.Info().Msg("No config file found, using defaults")
	}

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Debug().Str("path", cfg.Database.Path).Msg("Database opened")

	platform, err := probe.NewPlatform(cfg.Discovery.Backend, probe.ExecRunner)
	if err != nil {
		repo.Close()
		return nil, err
	}

	eventBus := service.NewEventBus()
	inventory := service.NewInventory()

	prober := probe.NewProber(cfg.ProbeSettings(), platform, oui.New(cfg.Discovery.OUIFile))
	prober.SetEventPublisher(eventBus)

	discovery := service.NewDiscoveryService(prober, inventory, repo, eventBus)
	if err := discovery.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to restore device inventory")
	}

	adoption := service.NewAdoptionService(
		adopt.NewController(cfg.AdoptSettings()),
		inventory, repo, repo, eventBus,
		cfg.ServiceSettings(),
		cfg.StreamSettings(),
	)

	return &app{
		cfg:        cfg,
		configPath: path,
		repo:       repo,
		eventBus:   eventBus,
		inventory:  inventory,
		prober:     prober,
		discovery:  discovery,
		adoption:   adoption,
	}, nil
}

// Close waits for running sessions and closes the database
func (a *app) Close() error {
	a.adoption.Wait()
	return a.repo.Close()
}
