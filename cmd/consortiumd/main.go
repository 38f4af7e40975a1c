package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/config"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/core/events"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/core/state"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/core/types"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/native/amm"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/native/bank"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/native/lending"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/observability"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/observability/logging"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/rpc"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/storage"
)

func main() {
	var configPath string
	var env string
	flag.StringVar(&configPath, "config", "./config.toml", "path to the daemon configuration file")
	flag.StringVar(&env, "env", "local", "deployment environment label used in logs")
	flag.Parse()

	logger := logging.Setup("consortiumd", env)

	if err := run(configPath, logger); err != nil {
		logger.Error("daemon exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		return fmt.Errorf("open ledger database: %w", err)
	}
	defer db.Close()

	manager := state.NewManager(db)

	allocs, err := cfg.GenesisAllocs()
	if err != nil {
		return fmt.Errorf("decode genesis allocations: %w", err)
	}
	if len(allocs) > 0 {
		seeded, err := manager.ApplyGenesis(allocs)
		if err != nil {
			return fmt.Errorf("apply genesis allocations: %w", err)
		}
		if seeded {
			logger.Info("genesis allocations applied", slog.Int("accounts", len(allocs)))
		}
	}

	ledger := bank.NewLedger(manager)
	emitter := &logEmitter{log: logger}

	lendingEngine := lending.NewEngine(crypto.ModuleAddress("lending"), lending.RiskParameters{
		MaxLoanAmount:   cfg.MaxLoanAmount(),
		InterestRateBps: cfg.Lending.InterestRateBps,
	})
	lendingEngine.SetState(manager)
	lendingEngine.SetTransferer(ledger)
	lendingEngine.SetEmitter(emitter)

	ammEngine := amm.NewEngine(crypto.ModuleAddress("amm"), cfg.AMM.DefaultFeeRateBps)
	ammEngine.SetState(manager)
	ammEngine.SetTransferer(ledger)
	ammEngine.SetEmitter(emitter)

	if owner, ok, err := cfg.Owner(); err != nil {
		return fmt.Errorf("resolve owner: %w", err)
	} else if ok {
		lendingEngine.SetOwner(owner)
		ammEngine.SetOwner(owner)
		logger.Info("owner configured", slog.String("address", owner.String()))
	} else {
		logger.Warn("no owner configured, gated operations are disabled")
	}

	clock, err := newBlockClock(manager)
	if err != nil {
		return fmt.Errorf("restore block height: %w", err)
	}

	server := rpc.NewServer(lendingEngine, ammEngine, clock, logger)

	apiServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		logger.Info("api listening",
			slog.String("address", cfg.ListenAddress),
			slog.String("network", cfg.NetworkName),
		)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()
	go func() {
		logger.Info("metrics listening", slog.String("address", cfg.MetricsAddress))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	interval := time.Duration(cfg.BlockIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("block clock started",
		slog.Uint64("height", clock.Height()),
		slog.Duration("interval", interval),
	)

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-errCh:
			runErr = err
			break loop
		case <-ticker.C:
			height, err := clock.Advance()
			if err != nil {
				runErr = fmt.Errorf("persist block height: %w", err)
				break loop
			}
			if height%100 == 0 {
				logger.Info("block height", slog.Uint64("height", height))
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown", slog.Any("error", err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown", slog.Any("error", err))
	}
	logger.Info("daemon stopped", slog.Uint64("height", clock.Height()))
	return runErr
}

// blockClock advances the ledger's logical block height on a wall-clock
// ticker and persists every step so a restart resumes where it left off.
type blockClock struct {
	height  atomic.Uint64
	manager *state.Manager
}

func newBlockClock(manager *state.Manager) (*blockClock, error) {
	height, err := manager.BlockHeight()
	if err != nil {
		return nil, err
	}
	clock := &blockClock{manager: manager}
	clock.height.Store(height)
	return clock, nil
}

func (c *blockClock) Height() uint64 {
	return c.height.Load()
}

func (c *blockClock) Advance() (uint64, error) {
	next := c.height.Add(1)
	if err := c.manager.SetBlockHeight(next); err != nil {
		return next, err
	}
	return next, nil
}

// logEmitter publishes engine events to the structured log and the event
// counter metrics.
type logEmitter struct {
	log *slog.Logger
}

func (e *logEmitter) Emit(event events.Event) {
	if event == nil {
		return
	}
	observability.Events().RecordEvent(event.EventType())
	attrs := []any{slog.String("type", event.EventType())}
	if carrier, ok := event.(interface{ Event() *types.Event }); ok {
		if evt := carrier.Event(); evt != nil {
			for key, value := range evt.Attributes {
				attrs = append(attrs, slog.String(key, value))
			}
		}
	}
	e.log.Info("ledger event", attrs...)
}
