package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "carhub/internal/bookings/errors"
	"carhub/pkg/config"
	"carhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) (*mongo.InsertOneResult, error)
	FindByEmail(ctx context.Context, email string) ([]*model.Booking, error)
	UpdateSchedule(ctx context.Context, id string, schedule model.BookingSchedule) (*mongo.UpdateResult, error)
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return NewMongoBookingRepositoryWithCollection(cfg, db.Collection(cfg.BookingsCollection))
}

func NewMongoBookingRepositoryWithCollection(cfg *config.Config, collection *mongo.Collection) BookingRepository {
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: collection,
	}
}

func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) (*mongo.InsertOneResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid
	}
	return result, nil
}

func (r *mongoBookingRepository) FindByEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

// UpdateSchedule overwrites the three schedule fields. A missing booking is
// reported through MatchedCount, not an error.
func (r *mongoBookingRepository) UpdateSchedule(ctx context.Context, id string, schedule model.BookingSchedule) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "bookingStatus", Value: schedule.BookingStatus},
		{Key: "pickUpDate", Value: schedule.PickUpDate},
		{Key: "dropOffDate", Value: schedule.DropOffDate},
	}}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	return result, nil
}
