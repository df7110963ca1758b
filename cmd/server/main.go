package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Chat/internal/adapters/auth"
	router "github.com/dkeye/Chat/internal/adapters/http"
	"github.com/dkeye/Chat/internal/adapters/memstore"
	wssignal "github.com/dkeye/Chat/internal/adapters/signal"
	"github.com/dkeye/Chat/internal/adapters/sqlstore"
	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/config"
	"github.com/dkeye/Chat/internal/core"
)

func openStore(cfg config.Database) (core.Store, error) {
	if cfg.Driver == "memory" {
		log.Warn().Str("module", "main").Msg("using in-memory store, nothing will be persisted")
		return memstore.New(), nil
	}
	return sqlstore.Open(cfg.Driver, cfg.DSN, cfg.Migrate)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	store, err := openStore(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()

	members := app.NewMembershipService(store, app.NewInviteTracker(), app.NewVoteTracker())
	channels := app.NewChannelService(store, members)
	messages := app.NewMessageService(store, members, channels)
	presence := app.NewPresenceService(store)

	o := orch.New(app.NewRegistry(), app.NewRoomManager(), app.SimplePolicy{})

	ctrl := wssignal.NewSignalWSController(
		o,
		auth.NewJWTAuthenticator(cfg.JWTSecret, store),
		members,
		channels,
		messages,
		presence,
		wssignal.NewRateLimiter(cfg.Limits.Events, cfg.Limits.Window),
		wssignal.Options{ReadLimit: cfg.ReadLimit, PingPeriod: cfg.PingPeriod, SendQueue: cfg.SendQueue},
	)

	sweeper := app.NewSweeper(channels, o, cfg.Cleanup.Interval, cfg.Cleanup.Inactivity)
	g, gctx := errgroup.WithContext(ctx)

	r := router.SetupRouter(gctx, cfg, ctrl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g.Go(func() error {
		sweeper.Start(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Chat server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
		return
	}
	log.Info().Msg("Server exited gracefully")
}
