package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/octobees/bedriftssok/internal/config"
	"github.com/octobees/bedriftssok/internal/logger"
	"github.com/octobees/bedriftssok/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := server.New(cfg, zl)
	if err := server.Run(ctx, e, cfg.Port, zl); err != nil {
		zl.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}
