// ====================================
// File: cmd/routerd/main.go
// ====================================
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

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/config"
	"github.com/rovshanmuradov/swap-router/internal/engine"
	"github.com/rovshanmuradov/swap-router/internal/events"
	"github.com/rovshanmuradov/swap-router/internal/host"
	"github.com/rovshanmuradov/swap-router/internal/keeper"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/store/memory"
	"github.com/rovshanmuradov/swap-router/internal/store/sqlite"
	"github.com/rovshanmuradov/swap-router/internal/types"
	"github.com/rovshanmuradov/swap-router/internal/utils/logger"
	"github.com/rovshanmuradov/swap-router/internal/utils/metrics"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the configuration file")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Error("routerd stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) (err error) {
	st, err := openStore(cfg.Store, log)
	if err != nil {
		return err
	}

	units, err := types.ComputeUnits(types.PriorityLevel(cfg.ComputeLevel))
	if err != nil {
		return multierr.Append(err, st.Close())
	}
	manager, err := cfg.GlobalManagerKey()
	if err != nil {
		return multierr.Append(err, st.Close())
	}
	if manager.IsZero() {
		log.Warn("global_manager not set, vault admin cannot be replaced")
	}
	h, err := host.New(st, log, runtime.WithComputeBudget(units))
	if err != nil {
		return multierr.Append(err, st.Close())
	}

	collector := metrics.NewCollector()
	bus := events.NewBus(log, cfg.EventBuffer)
	bus.SubscribeAll(events.NewLogHandler(log), events.DomainEvents...)
	eng := engine.New(h, collector, bus, log, engine.WithGlobalManager(manager))

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = multierr.Combine(err, bus.Shutdown(shutdownCtx), h.Close())
	}()

	var srv *http.Server
	if cfg.MetricsListen != "" {
		srv = &http.Server{Addr: cfg.MetricsListen, Handler: collector.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server failed", zap.Error(err))
			}
		}()
		log.Info("Metrics server started", zap.String("listen", cfg.MetricsListen))
	}

	log.Info("routerd started",
		zap.String("store", cfg.Store.Backend),
		zap.Uint64("compute_budget", units),
		zap.Bool("keeper", cfg.Keeper.Enabled))

	if cfg.Keeper.Enabled {
		k, err := newKeeper(cfg.Keeper, h, eng, collector, log)
		if err != nil {
			return err
		}
		err = k.Run(ctx)
		if srv != nil {
			err = multierr.Append(err, srv.Shutdown(context.Background()))
		}
		return err
	}

	<-ctx.Done()
	if srv != nil {
		return srv.Shutdown(context.Background())
	}
	return nil
}

func openStore(cfg config.StoreConfig, log *zap.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.StoreSQLite:
		st, err := sqlite.Open(sqlite.Config{Path: cfg.Path, BusyTimeout: cfg.BusyTimeoutMs}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return st, nil
	default:
		return memory.New(), nil
	}
}

func newKeeper(cfg config.KeeperConfig, h *host.Host, eng *engine.Engine, collector *metrics.Collector, log *zap.Logger) (*keeper.Keeper, error) {
	operator, err := solana.PublicKeyFromBase58(cfg.Operator)
	if err != nil {
		return nil, fmt.Errorf("invalid keeper operator: %w", err)
	}
	pairs, err := keeper.PairsFromConfig(cfg.Pairs)
	if err != nil {
		return nil, err
	}
	return keeper.New(eng, keeper.NewPoolQuoter(h, pairs...), keeper.Config{
		Operator:       operator,
		Interval:       cfg.Interval(),
		Workers:        cfg.Workers,
		Retries:        cfg.Retries,
		PlatformFeeBps: cfg.PlatformFeeBps,
		Shared:         cfg.Shared,
	}, collector, log), nil
}
