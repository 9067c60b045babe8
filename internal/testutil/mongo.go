package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"carhub/pkg/client"
	"carhub/pkg/config"
	"carhub/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	EnvMongoURI       = "MONGO_URI"
	ConnectionTimeout = 10 * time.Second
)

// MongoHelper owns a throwaway database for a single test.
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

// NewMongoHelper connects to MONGO_URI and creates a uniquely named database
// that is dropped when the test ends. The test is skipped when MONGO_URI is unset.
func NewMongoHelper(t *testing.T) *MongoHelper {
	t.Helper()

	mongoURI := os.Getenv(EnvMongoURI)
	if mongoURI == "" {
		t.Skipf("%s not set, skipping Mongo-backed test", EnvMongoURI)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(mongoURI).
		SetBSONOptions(&options.BSONOptions{
			DefaultDocumentM: true,
			NilSliceAsEmpty:  true,
		})
	mc, err := mongo.Connect(ctx, opts)
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := mc.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	dbName := "carhub_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	h := &MongoHelper{
		Client:   mc,
		Database: mc.Database(dbName),
		DBName:   dbName,
	}
	t.Cleanup(func() { h.close(t) })
	return h
}

func (m *MongoHelper) close(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Database.Drop(ctx); err != nil {
		t.Logf("warning: failed to drop database %s: %v", m.DBName, err)
	}
	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// Config returns a configuration pointing repositories at the test database.
func (m *MongoHelper) Config() *config.Config {
	return &config.Config{
		MongoDatabaseName:  m.DBName,
		CarsCollection:     config.DefaultCarsCollection,
		BookingsCollection: config.DefaultBookingsCollection,
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		Log:                logger.Discard(),
		Client:             &client.Client{Mongo: m.Client},
	}
}

// Collection returns a collection of the test database.
func (m *MongoHelper) Collection(name string) *mongo.Collection {
	return m.Database.Collection(name)
}

// InsertRaw stores doc as given, bypassing the model types.
func (m *MongoHelper) InsertRaw(t *testing.T, collection string, doc any) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := m.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		t.Fatalf("failed to insert into %s: %v", collection, err)
	}
	return res.InsertedID
}
