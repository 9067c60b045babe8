package service

import (
	"context"
	"errors"

	carserrors "carhub/internal/cars/errors"
	"carhub/internal/cars/repository"
	"carhub/internal/cars/validator"
	"carhub/internal/events"
	"carhub/pkg/config"
	apperrors "carhub/pkg/errors"
	"carhub/pkg/model"
)

const (
	msgCarNotFound   = "Car not found"
	msgCarNoChanges  = "Car not found or no changes made"
	msgCarNotCounted = "Car Not Found"
)

type CarService interface {
	Create(ctx context.Context, form model.CarForm, images []model.Image) (model.InsertAck, error)
	GetByID(ctx context.Context, id string) (*model.Car, error)
	ListAll(ctx context.Context) ([]*model.Car, error)
	ListByOwnerEmail(ctx context.Context, email string) ([]*model.Car, error)
	PartialUpdate(ctx context.Context, id string, patch model.CarPatch) error
	IncrementBookingCount(ctx context.Context, id string) (*model.Car, error)
	Delete(ctx context.Context, id string) (model.DeleteAck, error)
}

type carService struct {
	repo      repository.CarRepository
	validator *validator.CarValidator
	events    *events.Emitter
	cfg       *config.Config
}

func NewCarService(
	repo repository.CarRepository,
	validator *validator.CarValidator,
	emitter *events.Emitter,
	cfg *config.Config,
) CarService {
	return &carService{
		repo:      repo,
		validator: validator,
		events:    emitter,
		cfg:       cfg,
	}
}

func (s *carService) Create(ctx context.Context, form model.CarForm, images []model.Image) (model.InsertAck, error) {
	car := model.NewCar(form, images)

	result, err := s.repo.Create(ctx, car)
	if err != nil {
		s.cfg.Log.Error("Failed to create car", "error", err)
		return model.InsertAck{}, apperrors.StoreFailure("Failed to create car", err)
	}

	s.cfg.Log.Info("Car created successfully",
		"id", car.ID.Hex(),
		"registration_number", car.RegistrationNumber,
		"images", len(car.Images),
	)
	s.events.Emit(ctx, events.CarCreated, car.ID.Hex(), carEventPayload(car))

	return model.NewInsertAck(result), nil
}

func (s *carService) GetByID(ctx context.Context, id string) (*model.Car, error) {
	if err := s.validateID(id); err != nil {
		return nil, err
	}

	car, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, msgCarNotFound, "Failed to retrieve car")
	}

	return car, nil
}

func (s *carService) ListAll(ctx context.Context) ([]*model.Car, error) {
	cars, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list cars", "error", err)
		return nil, apperrors.StoreFailure("Failed to fetch cars.", err)
	}

	return cars, nil
}

func (s *carService) ListByOwnerEmail(ctx context.Context, email string) ([]*model.Car, error) {
	cars, err := s.repo.FindByOwnerEmail(ctx, email)
	if err != nil {
		s.cfg.Log.Error("Failed to list cars by owner", "error", err)
		return nil, apperrors.StoreFailure("Failed to fetch cars.", err)
	}

	return cars, nil
}

// PartialUpdate applies only the fields present in patch. An empty patch is
// reported as NotFound without touching the store, as is an update that
// matched nothing or changed nothing.
func (s *carService) PartialUpdate(ctx context.Context, id string, patch model.CarPatch) error {
	if err := s.validateID(id); err != nil {
		return err
	}

	if patch.IsEmpty() {
		return apperrors.NotFound(msgCarNoChanges)
	}

	result, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return s.mapRepoError(err, id, msgCarNoChanges, "Failed to update car")
	}

	if result.ModifiedCount == 0 {
		return apperrors.NotFound(msgCarNoChanges)
	}

	s.cfg.Log.Info("Car updated successfully", "id", id, "fields", len(patch.SetDocument()))
	s.events.Emit(ctx, events.CarUpdated, id, patchEventPayload(patch))
	return nil
}

// IncrementBookingCount heals a bookingCount that is not stored as a
// non-negative integer, then increments it atomically. The heal and the
// increment are separate writes; a failed increment leaves the healed value.
func (s *carService) IncrementBookingCount(ctx context.Context, id string) (*model.Car, error) {
	if err := s.validateID(id); err != nil {
		return nil, err
	}

	car, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, msgCarNotCounted, "Failed to retrieve car")
	}

	if !car.BookingCount.Normalized() {
		healed, err := s.repo.HealBookingCount(ctx, id, car.BookingCount)
		if err != nil {
			return nil, s.mapRepoError(err, id, msgCarNotCounted, "Failed to normalize booking count")
		}
		s.cfg.Log.Info("Booking count normalized",
			"id", id,
			"value", car.BookingCount.Value,
			"applied", healed.ModifiedCount > 0,
		)
	}

	result, err := s.repo.IncrementBookingCount(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, msgCarNotFound, "Failed to increment booking count")
	}

	if result.ModifiedCount == 0 {
		return nil, apperrors.NotFound(msgCarNotFound)
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, msgCarNotFound, "Failed to retrieve car")
	}

	s.cfg.Log.Info("Booking count incremented", "id", id, "booking_count", updated.BookingCount.Value)
	s.events.Emit(ctx, events.CarBookingCountIncreased, id, map[string]any{
		"bookingCount": updated.BookingCount.Value,
	})

	return updated, nil
}

func (s *carService) Delete(ctx context.Context, id string) (model.DeleteAck, error) {
	if err := s.validateID(id); err != nil {
		return model.DeleteAck{}, err
	}

	result, err := s.repo.Delete(ctx, id)
	if err != nil {
		return model.DeleteAck{}, s.mapRepoError(err, id, msgCarNotFound, "Failed to delete car")
	}

	ack := model.NewDeleteAck(result)
	if ack.DeletedCount > 0 {
		s.cfg.Log.Info("Car deleted successfully", "id", id)
		s.events.Emit(ctx, events.CarDeleted, id, nil)
	}

	return ack, nil
}

func (s *carService) validateID(id string) error {
	if err := s.validator.ValidateID(id); err != nil {
		s.cfg.Log.Warn("Invalid car id", "id", id)
		return apperrors.InvalidIdentifier("car", id)
	}
	return nil
}

func (s *carService) mapRepoError(err error, id, notFoundMsg, failureMsg string) error {
	switch {
	case errors.Is(err, carserrors.ErrNotFound):
		return apperrors.NotFound(notFoundMsg)
	case errors.Is(err, carserrors.ErrInvalidID):
		return apperrors.InvalidIdentifier("car", id)
	default:
		s.cfg.Log.Error(failureMsg, "id", id, "error", err)
		return apperrors.StoreFailure(failureMsg, err)
	}
}

func carEventPayload(car *model.Car) map[string]any {
	return map[string]any{
		"model":              car.Model,
		"registrationNumber": car.RegistrationNumber,
		"price":              car.Price,
		"bookingStatus":      car.BookingStatus,
		"ownerEmail":         car.Owner.Email,
	}
}

func patchEventPayload(patch model.CarPatch) map[string]any {
	fields := make([]string, 0)
	for _, e := range patch.SetDocument() {
		fields = append(fields, e.Key)
	}
	return map[string]any{"fields": fields}
}
