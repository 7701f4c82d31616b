package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ycwei/smartlook/config"
	"github.com/ycwei/smartlook/internal/llm"
	"github.com/ycwei/smartlook/internal/server"
	"github.com/ycwei/smartlook/internal/session"
	"github.com/ycwei/smartlook/internal/shopping"
	"github.com/ycwei/smartlook/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()
	cfg := config.Load()

	// Analysis cache. The wardrobe itself is memory-resident; only model
	// classifications are cached across restarts.
	cacheStore, err := storage.NewSQLiteStore(cfg.CacheDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analysis cache")
	}
	defer cacheStore.Close()
	log.Info().Str("dbPath", cfg.CacheDBPath).Msg("analysis cache initialized")

	// The gateway checks GEMINI_API_KEY lazily on the first call, so a
	// missing key is reported per-request rather than at startup.
	gateway := llm.NewCachedGateway(llm.NewGeminiGateway(), cacheStore)

	sessions := session.NewManager(gateway)
	shopper := shopping.NewOrchestrator(gateway)
	api := server.New(sessions, shopper)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.Router(),
	}

	// Cancel on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}
