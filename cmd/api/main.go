package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/planforge/planforge-backend/config"
	"github.com/planforge/planforge-backend/internal/auth"
	"github.com/planforge/planforge-backend/internal/blob"
	"github.com/planforge/planforge-backend/internal/bootstrap"
)

const serviceName = "planforge-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(cfg.App)
	bootstrap.SetGinMode(cfg.App.Environment)

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

	var authClient *fbauth.Client
	if cfg.Auth.Mode == "firebase" {
		authClient, err = auth.InitializeFirebase(cfg.Auth)
		if err != nil {
			cancel()
			logger.Fatal().Err(err).Msg("initialize firebase")
		}
	} else {
		logger.Warn().Msg("running with dev auth, requests are trusted by header")
	}

	var blobs blob.Store
	if cfg.Blob.Backend == "s3" {
		blobs, err = blob.NewS3Store(ctx, cfg.Blob)
		if err != nil {
			cancel()
			logger.Fatal().Err(err).Msg("initialize blob store")
		}
	}
	cancel()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Config:      cfg,
		DB:          db,
		Redis:       rdb,
		AuthClient:  authClient,
		Blobs:       blobs,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
