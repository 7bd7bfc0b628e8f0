// Package app provides the top-level application lifecycle management for the
// market daemon. It wires together all dependencies (stores, caches, blob
// storage, the ledger, and the API server) and runs them until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openforecast/marketd/internal/access"
	"github.com/openforecast/marketd/internal/config"
	"github.com/openforecast/marketd/internal/events"
	"github.com/openforecast/marketd/internal/ledger"
	"github.com/openforecast/marketd/internal/pricing"
	"github.com/openforecast/marketd/internal/server"
	"github.com/openforecast/marketd/internal/server/handler"
	"github.com/openforecast/marketd/internal/server/ws"
)

// shutdownGrace is how long in-flight HTTP requests get to finish on shutdown.
const shutdownGrace = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the API
// server and background workers, and blocks until the context is cancelled.
// On return it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("backend", a.cfg.Storage.Backend),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	// --- Domain assembly ---
	recorder := events.NewRecorder(deps.EventStore, deps.EventBus, deps.Clock, a.logger)
	accessCtl := access.NewController(a.cfg.Owner, deps.AdminStore, recorder, a.logger)

	engine := pricing.NewEngine(pricing.EngineConfig{
		MinLiquidity:      a.cfg.Pricing.MinLiquidity,
		LiquidityFraction: a.cfg.Pricing.LiquidityRatio,
		MinSpread:         a.cfg.Pricing.MinSpread,
		MaxSpread:         a.cfg.Pricing.MaxSpread,
		MinPrice:          a.cfg.Pricing.MinPrice,
		MaxPrice:          a.cfg.Pricing.MaxPrice,
	})
	maker := pricing.NewMaker(engine, pricing.MakerConfig{
		ImpactThreshold:    a.cfg.Maker.ImpactThreshold,
		PriceCeiling:       a.cfg.Maker.UpperPriceBound,
		PriceFloor:         a.cfg.Maker.LowerPriceBound,
		CounterFraction:    a.cfg.Maker.InjectionRatio,
		CounterCap:         a.cfg.Maker.MaxInjection,
		StakeFloorFraction: a.cfg.Maker.StakeFloorRatio,
	})

	led := ledger.New(
		ledger.Config{
			DisputeWindow:  a.cfg.Market.DisputeWindow.Duration,
			MinDisputeBond: a.cfg.Market.MinDisputeBond,
			LockTTL:        a.cfg.Market.LockTTL.Duration,
		},
		ledger.Deps{
			Markets:   deps.MarketStore,
			Positions: deps.PositionStore,
			Disputes:  deps.DisputeStore,
			Treasury:  deps.Treasury,
			Engine:    engine,
			Maker:     maker,
			Access:    accessCtl,
			Locks:     deps.LockManager,
			Odds:      deps.OddsCache,
			Clock:     deps.Clock,
			Recorder:  recorder,
		},
		a.logger,
	)

	// --- HTTP + WebSocket surface ---
	hub := ws.NewHub(deps.EventBus, a.logger)

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(deps.Pingers),
		Markets:  handler.NewMarketHandler(led, deps.EventStore, a.logger),
		Disputes: handler.NewDisputeHandler(led, a.logger),
		Admins:   handler.NewAdminHandler(accessCtl, a.logger),
		Treasury: handler.NewTreasuryHandler(deps.Treasury, a.logger),
	}
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKeyHash:  a.cfg.Server.APIKeyHash,
	}, handlers, hub, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := hub.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if deps.Archiver != nil {
		g.Go(func() error {
			err := deps.Archiver.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: run: %w", err)
	}
	return nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
