package main

import (
	"context"
	"time"

	mongoMigration "carhub/internal/migrations/mongo"
	"carhub/pkg/config"
)

const (
	JobName    = "carhub-migration"
	jobTimeout = 120 * time.Second
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job")
	report, err := mongoMigration.RunMigration(ctx, cfg)
	if err != nil {
		cfg.Log.Error("Migration failed", "error", err)
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Migration job aborted")
	}

	cfg.Log.Info("Migration completed successfully",
		"cars_scanned", report.CarsScanned,
		"cars_healed", report.CarsHealed,
	)
}
