package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"sneakerstore/internal/auth"
	"sneakerstore/internal/config"
	"sneakerstore/internal/db"
	"sneakerstore/internal/logger"
	productrepo "sneakerstore/internal/repository/product"
	userrepo "sneakerstore/internal/repository/user"
	"sneakerstore/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("seed", "info", "json", os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New("seed", cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	res, err := seed.Apply(ctx, productrepo.NewPostgres(pool, log), userrepo.NewPostgres(pool, log))
	if err != nil {
		log.Fatal().Err(err).Msg("seed apply")
	}
	log.Info().Int("products", res.Products).Str("admin_id", res.Admin.ID).Str("shopper_id", res.Shopper.ID).Msg("seed applied")

	// Tokens are only printed when the API secret is known.
	if cfg.JWTConfig.Secret == "" {
		return
	}
	now := time.Now()
	for _, u := range []struct {
		label string
		id    string
	}{{"admin", res.Admin.ID}, {"shopper", res.Shopper.ID}} {
		token, err := auth.Mint(cfg.JWTConfig, now, u.id)
		if err != nil {
			log.Fatal().Err(err).Str("user", u.label).Msg("mint token")
		}
		fmt.Printf("%s token: %s\n", u.label, token)
	}
}
