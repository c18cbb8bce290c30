package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"sneakerstore/internal/config"
	"sneakerstore/internal/db"
	"sneakerstore/internal/importer"
	"sneakerstore/internal/logger"
	"sneakerstore/internal/repository/product"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to product CSV (id,name,brand,price,colors,sizes)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("importer", "info", "json", os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New("importer", cfg.LogLevel, cfg.LogFormat, os.Stdout)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open file")
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, log), log)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Int("imported", count).Msg("import failed")
	}

	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
