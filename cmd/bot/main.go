// ====================================
// File: cmd/bot/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb-bot/internal/bot"
	"github.com/rovshanmuradov/solana-arb-bot/internal/config"
	"github.com/rovshanmuradov/solana-arb-bot/internal/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, err := utils.InitLogger(cfg.DebugLogging, cfg.LogFile)
	if err != nil {
		os.Exit(1)
	}

	runner, err := bot.NewRunner(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize scanner", zap.Error(err))
	}

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("Scanner execution error", zap.Error(err))
	}

	runner.Shutdown()
}
