package mongo

import (
	"context"
	"fmt"
	"sync/atomic"

	"carhub/internal/cars/repository"
	"carhub/pkg/config"
	"carhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

const healWorkers = 8

var (
	CarsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "registrationNumber", Value: 1}}},
		{Keys: bson.D{{Key: "userDetails.email", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "carId", Value: 1}}},
	}

	// UnhealedBookingCountFilter matches cars whose bookingCount is missing,
	// negative, or not stored as a BSON integer.
	UnhealedBookingCountFilter = bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "bookingCount", Value: bson.D{
			{Key: "$not", Value: bson.D{{Key: "$type", Value: bson.A{"int", "long"}}}},
		}}},
		bson.D{{Key: "bookingCount", Value: bson.D{{Key: "$lt", Value: 0}}}},
	}}}
)

// Report summarizes a migration run.
type Report struct {
	CarsScanned int64
	CarsHealed  int64
}

func RunMigration(ctx context.Context, cfg *config.Config) (Report, error) {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	cfg.Log.Info("Running Mongo migrations", "database", cfg.MongoDatabaseName)

	collections := map[string][]mongo.IndexModel{
		cfg.CarsCollection:     CarsIndexes,
		cfg.BookingsCollection: BookingsIndexes,
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, indexes := range collections {
		name, indexes := name, indexes
		g.Go(func() error {
			if err := ensureCollection(gctx, db, name); err != nil {
				return fmt.Errorf("failed to ensure collection %s: %w", name, err)
			}
			if err := ensureIndexes(gctx, db, name, indexes); err != nil {
				return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
			}
			cfg.Log.Info("Ensured collection and indexes", "collection", name, "indexes", len(indexes))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report, err := NormalizeBookingCounts(ctx, cfg, db.Collection(cfg.CarsCollection))
	if err != nil {
		return report, fmt.Errorf("failed to normalize booking counts: %w", err)
	}

	cfg.Log.Info("All migrations applied successfully",
		"cars_scanned", report.CarsScanned,
		"cars_healed", report.CarsHealed,
	)
	return report, nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return db.CreateCollection(ctx, name)
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	_, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	return err
}

// NormalizeBookingCounts rewrites every non-integer bookingCount to its healed
// value. Each write is conditional on the value that was read, so a car
// incremented meanwhile is left alone.
func NormalizeBookingCounts(ctx context.Context, cfg *config.Config, cars *mongo.Collection) (Report, error) {
	repo := repository.NewMongoCarRepositoryWithCollection(cfg, cars)

	cursor, err := cars.Find(ctx, UnhealedBookingCountFilter)
	if err != nil {
		return Report{}, err
	}
	defer cursor.Close(ctx)

	var (
		report Report
		healed atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(healWorkers)

	var decodeErr error
	for cursor.Next(gctx) {
		var doc struct {
			ID           primitive.ObjectID `bson:"_id"`
			BookingCount model.BookingCount `bson:"bookingCount"`
		}
		if decodeErr = cursor.Decode(&doc); decodeErr != nil {
			break
		}
		report.CarsScanned++

		g.Go(func() error {
			result, err := repo.HealBookingCount(gctx, doc.ID.Hex(), doc.BookingCount)
			if err != nil {
				return err
			}
			healed.Add(result.ModifiedCount)
			return nil
		})
	}

	err = g.Wait()
	report.CarsHealed = healed.Load()
	if err != nil {
		return report, err
	}
	if decodeErr != nil {
		return report, decodeErr
	}
	return report, cursor.Err()
}
