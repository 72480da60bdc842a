package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bountyhub/recommender/internal/app"
	"github.com/bountyhub/recommender/internal/config"
	"github.com/bountyhub/recommender/internal/domain/ranking"
	"github.com/bountyhub/recommender/internal/simulation"
	"github.com/bountyhub/recommender/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithEngineOptions(
			ranking.WithWeights(cfg.RelevanceWeight, cfg.SocialWeight, cfg.PriceWeight, cfg.EngagementWeight),
			ranking.WithMinRelevance(cfg.MinRelevance),
			ranking.WithStretchRatio(cfg.StretchRatio),
		),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer svc.Stop()

	err = simulation.Run(ctx, svc, simulation.Config{
		Users:    cfg.SimUsers,
		Bounties: cfg.SimBounties,
		Events:   cfg.SimEvents,
		Seed:     cfg.SimSeed,
	})
	if err != nil {
		log.Error(ctx, "simulation run failed", logger.Error(err))
		return
	}
	log.Info(ctx, "simulation run complete")
}
