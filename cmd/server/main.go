package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/whatfix/ticket-analyzer/backend/internal/config"
	"github.com/whatfix/ticket-analyzer/backend/internal/db"
	httpapi "github.com/whatfix/ticket-analyzer/backend/internal/http"
	"github.com/whatfix/ticket-analyzer/backend/internal/jobs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "ticket-analyzer").Logger()

	ctx := context.Background()

	var store *db.Store
	if cfg.DatabaseURL != "" {
		store, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect db")
		}
		defer store.Close()
		logger.Info().Msg("run history enabled")
	} else {
		logger.Info().Msg("run history disabled (no DATABASE_URL)")
	}

	tracker := jobs.New(cfg.JobTTL, logger.With().Str("component", "jobs").Logger())
	defer tracker.Close()

	router := httpapi.Router(cfg, tracker, store, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("default_provider", cfg.DefaultLLMProvider).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
