package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"oraclewatch/internal/infrastructure/config"
	"oraclewatch/internal/infrastructure/logger"
	"oraclewatch/internal/infrastructure/svc"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	logger.Setup("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init service context failed")
	}
	defer func() { _ = sc.Close() }()

	log.Info().
		Str("config", *configPath).
		Strs("assets", cfg.Assets.List).
		Dur("poll_interval", cfg.PollInterval()).
		Msg("oraclewatch started")

	if err := sc.Run(ctx); err != nil {
		log.Error().Err(err).Msg("oraclewatch exited")
	}
}
