package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/planforge/planforge-backend/config"
	"github.com/planforge/planforge-backend/internal/bootstrap"
	"github.com/planforge/planforge-backend/internal/explore"
	"github.com/planforge/planforge-backend/internal/maintenance"
	"github.com/planforge/planforge-backend/internal/notifications"
	"github.com/planforge/planforge-backend/internal/projects"
	"github.com/planforge/planforge-backend/internal/sharing"
	"github.com/planforge/planforge-backend/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(cfg.App).With().Str("service", "planforge-worker").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := bootstrap.OpenDB(ctx, cfg.Database)
	if err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("open redis")
	}
	defer rdb.Close()
	cancel()

	projectRepo := projects.NewRepo(db)
	exploreSvc := explore.NewService(projectRepo, rdb, logger)

	sched := maintenance.NewScheduler(
		users.NewRepo(db, cfg.App.UsernameGracePeriod),
		projectRepo,
		sharing.NewRepo(db),
		notifications.NewRepo(db),
		exploreSvc,
		cfg.App.ProjectRetention,
		logger,
	)
	if err := sched.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	sched.Stop()
}
