package main

import (
	"context"
	"os"

	"sneakerstore/internal/config"
	"sneakerstore/internal/db"
	"sneakerstore/internal/logger"
	"sneakerstore/internal/migrate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("migrate", "info", "json", os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New("migrate", cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	log.Info().Msg("migrations applied")
}
