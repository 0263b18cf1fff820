package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sasselerator/internal/app"
	"sasselerator/internal/config"
	"sasselerator/internal/logger"
	"sasselerator/internal/mcp"

	"go.uber.org/zap"
)

// mcp-stdio обслуживает каталог инструментов по stdio. stdout занят протоколом,
// поэтому логи всегда идут в stderr.
func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		Encoding:   cfg.LogEncoding,
		OutputPath: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, log, app.Options{WithoutGenerator: true})
	if err != nil {
		log.Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()

	log.Info("Serving MCP over stdio", zap.String("store", cfg.StoreDriver))
	if err := mcp.ServeStdio(ctx, deps.Catalog, log); err != nil && ctx.Err() == nil {
		log.Error("MCP session ended with error", zap.Error(err))
		deps.Close()
		os.Exit(1)
	}
}
