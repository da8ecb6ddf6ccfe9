// Package main applies the embedded battle record migrations.
package main

import (
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/monbattle/internal/config"
	"github.com/cory-johannsen/monbattle/internal/observability"
	"github.com/cory-johannsen/monbattle/migrations"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	direction := flag.String("direction", "up", "up, down, or version to only report the schema version")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	mg, err := migrations.New(cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("opening migrator",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Name),
			zap.Error(err),
		)
	}
	defer mg.Close()

	switch *direction {
	case "up":
		err = mg.Up(*steps)
	case "down":
		err = mg.Down(*steps)
	case "version":
	default:
		logger.Fatal("invalid direction", zap.String("direction", *direction))
	}
	if err != nil {
		logger.Fatal("migration failed", zap.String("direction", *direction), zap.Error(err))
	}

	version, dirty, err := mg.Version()
	if err != nil {
		logger.Fatal("reading schema version", zap.Error(err))
	}
	logger.Info("schema version",
		zap.String("direction", *direction),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
		zap.Duration("elapsed", time.Since(start)),
	)
}
