package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	carserrors "carhub/internal/cars/errors"
	"carhub/pkg/config"
	"carhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoCarRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type CarRepository interface {
	Create(ctx context.Context, car *model.Car) (*mongo.InsertOneResult, error)
	FindByID(ctx context.Context, id string) (*model.Car, error)
	FindAll(ctx context.Context) ([]*model.Car, error)
	FindByOwnerEmail(ctx context.Context, email string) ([]*model.Car, error)
	FindByRegistrationNumber(ctx context.Context, registrationNumber string) (*model.Car, error)
	Update(ctx context.Context, id string, patch model.CarPatch) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id string) (*mongo.DeleteResult, error)
	HealBookingCount(ctx context.Context, id string, stored model.BookingCount) (*mongo.UpdateResult, error)
	IncrementBookingCount(ctx context.Context, id string) (*mongo.UpdateResult, error)
}

func NewMongoCarRepository(cfg *config.Config) CarRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return NewMongoCarRepositoryWithCollection(cfg, db.Collection(cfg.CarsCollection))
}

func NewMongoCarRepositoryWithCollection(cfg *config.Config, collection *mongo.Collection) CarRepository {
	return &mongoCarRepository{
		cfg:        cfg,
		collection: collection,
	}
}

// withTimeout bounds ctx by timeout unless the caller's deadline is sooner.
func (r *mongoCarRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func parseID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", carserrors.ErrInvalidID, id)
	}
	return objectID, nil
}

func (r *mongoCarRepository) Create(ctx context.Context, car *model.Car) (*mongo.InsertOneResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, car)
	if err != nil {
		return nil, fmt.Errorf("failed to create car: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		car.ID = oid
	}
	return result, nil
}

func (r *mongoCarRepository) FindByID(ctx context.Context, id string) (*model.Car, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoCarRepository) FindByRegistrationNumber(ctx context.Context, registrationNumber string) (*model.Car, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"registrationNumber": registrationNumber})
}

func (r *mongoCarRepository) findOne(ctx context.Context, filter bson.M) (*model.Car, error) {
	var car model.Car
	err := r.collection.FindOne(ctx, filter).Decode(&car)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, carserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find car: %w", err)
	}

	return &car, nil
}

func (r *mongoCarRepository) FindAll(ctx context.Context) ([]*model.Car, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.find(ctx, bson.M{})
}

func (r *mongoCarRepository) FindByOwnerEmail(ctx context.Context, email string) ([]*model.Car, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.find(ctx, bson.M{"userDetails.email": email})
}

func (r *mongoCarRepository) find(ctx context.Context, filter bson.M) ([]*model.Car, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find cars: %w", err)
	}
	defer cursor.Close(ctx)

	cars := make([]*model.Car, 0)
	if err = cursor.All(ctx, &cars); err != nil {
		return nil, fmt.Errorf("failed to decode cars: %w", err)
	}

	return cars, nil
}

func (r *mongoCarRepository) Update(ctx context.Context, id string, patch model.CarPatch) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := patch.SetDocument()
	if len(set) == 0 {
		return &mongo.UpdateResult{}, nil
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return nil, fmt.Errorf("failed to update car: %w", err)
	}

	return result, nil
}

func (r *mongoCarRepository) Delete(ctx context.Context, id string) (*mongo.DeleteResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return nil, fmt.Errorf("failed to delete car: %w", err)
	}

	return result, nil
}

// HealBookingCount writes the healed bookingCount only while the stored value
// is still the one that was read, so it never overwrites a concurrent increment.
func (r *mongoCarRepository) HealBookingCount(ctx context.Context, id string, stored model.BookingCount) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.D{{Key: "_id", Value: objectID}}
	if raw, present := stored.Raw(); present {
		filter = append(filter, bson.E{Key: "bookingCount", Value: raw})
	} else {
		// Matches both a missing field and an explicit null.
		filter = append(filter, bson.E{Key: "bookingCount", Value: nil})
	}

	update := bson.D{{Key: "$set", Value: bson.D{{Key: "bookingCount", Value: stored.Value}}}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to heal booking count: %w", err)
	}

	return result, nil
}

func (r *mongoCarRepository) IncrementBookingCount(ctx context.Context, id string) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "bookingCount", Value: 1}}}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to increment booking count: %w", err)
	}

	return result, nil
}
