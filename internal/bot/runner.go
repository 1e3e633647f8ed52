// internal/bot/runner.go
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-arb-bot/internal/blockchain"
	"github.com/rovshanmuradov/solana-arb-bot/internal/config"
	"github.com/rovshanmuradov/solana-arb-bot/internal/dex/jupiter"
	"github.com/rovshanmuradov/solana-arb-bot/internal/dex/meteora"
	"github.com/rovshanmuradov/solana-arb-bot/internal/export"
	"github.com/rovshanmuradov/solana-arb-bot/internal/report"
	"github.com/rovshanmuradov/solana-arb-bot/internal/scanner"
	"github.com/rovshanmuradov/solana-arb-bot/internal/storage"
	"github.com/rovshanmuradov/solana-arb-bot/internal/storage/postgres"
	"github.com/rovshanmuradov/solana-arb-bot/internal/token"
)

type Runner struct {
	logger     *zap.Logger
	config     *config.Config
	service    *scanner.Service
	server     *report.Server
	history    *scanner.History
	store      storage.Storage
	shutdownCh chan os.Signal
}

// NewRunner собирает все компоненты сканера из конфигурации.
func NewRunner(cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	solClient := blockchain.NewClient(cfg.RPCList[0], logger)

	known := token.WellKnown()
	for symbol, mint := range cfg.BaseTokens {
		if _, ok := known[mint]; !ok {
			known[mint] = token.Info{Mint: mint, Decimals: uint8(cfg.DefaultDecimals), Symbol: symbol}
		}
	}
	tokenCache := token.NewCache(solClient, token.CacheConfig{
		Known:           known,
		DefaultDecimals: uint8(cfg.DefaultDecimals),
	}, logger)

	catalog := meteora.NewClient(meteora.ClientConfig{
		BaseURL:    cfg.MeteoraAPIURL,
		Limit:      cfg.PoolListingLimit,
		MaxPoolAge: time.Duration(cfg.PoolMaxAgeMinutes) * time.Minute,
	}, logger)

	quotes := jupiter.NewClient(cfg.JupiterAPIURL, logger)

	simulator := scanner.NewSimulator(scanner.SimulatorConfig{
		SlippageImpactFactor: cfg.SlippageImpactFactor,
		SlippageCapBps:       cfg.SlippageCapBps,
	}, logger)

	opportunityStore := scanner.NewStore()
	history := scanner.NewHistory(cfg.HistorySize)

	scn := scanner.NewScanner(scanner.Config{
		MinProfitPercent: cfg.MinProfitPercent,
		TradeCapital:     cfg.TradeCapital,
		BaseMints:        cfg.BaseMints(),
		QuoteSlippageBps: cfg.QuoteSlippageBps,
	}, catalog, quotes, tokenCache, simulator, opportunityStore, logger)

	sinks := []scanner.Sink{report.NewConsole()}

	var st storage.Storage
	if cfg.PostgresURL != "" {
		var err error
		st, err = postgres.NewStorage(cfg.PostgresURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := st.RunMigrations(); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		sinks = append(sinks, storage.NewCycleSink(st, logger))
	}

	service := scanner.NewService(
		scn,
		history,
		time.Duration(cfg.ScanInterval)*time.Second,
		sinks,
		logger,
	)

	server := report.NewServer(cfg.ReportListenAddr, opportunityStore, history, logger)

	return &Runner{
		logger:     logger,
		config:     cfg,
		service:    service,
		server:     server,
		history:    history,
		store:      st,
		shutdownCh: make(chan os.Signal, 1),
	}, nil
}

func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("📡 Signal received: " + sig.String())
			cancel()
		case <-runCtx.Done():
		}
	}()

	r.logger.Info("🚀 Starting arbitrage scanner",
		zap.Float64("trade_capital", r.config.TradeCapital),
		zap.Float64("min_profit_percent", r.config.MinProfitPercent),
		zap.Int("scan_interval_sec", r.config.ScanInterval))

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return r.service.Run(gctx)
	})
	g.Go(func() error {
		return r.server.Run(gctx)
	})

	err := g.Wait()
	r.exportHistory()
	return err
}

// exportHistory dumps the collected opportunity history to disk on shutdown.
func (r *Runner) exportHistory() {
	if r.config.ExportDir == "" {
		return
	}
	entries := r.history.Entries()
	if len(entries) == 0 {
		return
	}

	exporter := export.NewExporter(r.logger)
	path, err := exporter.Export(entries, export.Options{
		Format:    export.Format(r.config.ExportFormat),
		OutputDir: r.config.ExportDir,
	})
	if err != nil {
		r.logger.Warn("Failed to export opportunity history", zap.Error(err))
		return
	}
	r.logger.Info("💾 Opportunity history exported", zap.String("path", path))
}

func (r *Runner) Shutdown() {
	r.logger.Info("👋 Scanner shutting down gracefully")

	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.logger.Warn("Failed to close storage", zap.Error(err))
		}
	}

	if err := r.logger.Sync(); err != nil {
		if !os.IsNotExist(err) &&
			err.Error() != "sync /dev/stdout: invalid argument" &&
			err.Error() != "sync /dev/stderr: inappropriate ioctl for device" {
			fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
		}
	}
}
