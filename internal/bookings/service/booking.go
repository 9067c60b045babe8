package service

import (
	"context"
	"errors"

	bookingserrors "carhub/internal/bookings/errors"
	"carhub/internal/bookings/repository"
	"carhub/internal/bookings/validator"
	carserrors "carhub/internal/cars/errors"
	"carhub/internal/events"
	"carhub/pkg/config"
	apperrors "carhub/pkg/errors"
	"carhub/pkg/model"
)

const msgCarNotFound = "Car not found"

// CarLookup is the part of the car repository bookings depend on.
type CarLookup interface {
	FindByRegistrationNumber(ctx context.Context, registrationNumber string) (*model.Car, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, req model.BookingRequest) (model.InsertAck, error)
	ListByRequesterEmail(ctx context.Context, email string) ([]*model.Booking, error)
	UpdateBookingSchedule(ctx context.Context, id string, schedule model.BookingSchedule) (model.UpdateAck, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	cars      CarLookup
	validator *validator.BookingValidator
	events    *events.Emitter
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	cars CarLookup,
	validator *validator.BookingValidator,
	emitter *events.Emitter,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		cars:      cars,
		validator: validator,
		events:    emitter,
		cfg:       cfg,
	}
}

// CreateBooking stores the request together with a snapshot of the car it
// names. The car read and the insert are separate operations.
func (s *bookingService) CreateBooking(ctx context.Context, req model.BookingRequest) (model.InsertAck, error) {
	if err := s.validator.ValidateRequest(&req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return model.InsertAck{}, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	car, err := s.cars.FindByRegistrationNumber(ctx, req.RegistrationNumber)
	if err != nil {
		if errors.Is(err, carserrors.ErrNotFound) {
			s.cfg.Log.Info("Booking rejected, no car with registration number",
				"registration_number", req.RegistrationNumber,
			)
			return model.InsertAck{}, apperrors.NotFound(msgCarNotFound)
		}
		s.cfg.Log.Error("Failed to look up car for booking", "error", err)
		return model.InsertAck{}, apperrors.StoreFailure("Failed to create booking", err)
	}

	booking := model.NewBooking(req, car)
	result, err := s.repo.Create(ctx, booking)
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return model.InsertAck{}, apperrors.StoreFailure("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID.Hex(),
		"car_id", car.ID.Hex(),
		"registration_number", booking.RegistrationNumber,
	)
	s.events.Emit(ctx, events.BookingCreated, booking.ID.Hex(), map[string]any{
		"carId":              car.ID.Hex(),
		"registrationNumber": booking.RegistrationNumber,
		"email":              booking.Email,
		"pickUpDate":         booking.PickUpDate,
		"dropOffDate":        booking.DropOffDate,
	})

	return model.NewInsertAck(result), nil
}

func (s *bookingService) ListByRequesterEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	bookings, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "error", err)
		return nil, apperrors.StoreFailure("Failed to fetch bookings.", err)
	}

	return bookings, nil
}

// UpdateBookingSchedule writes the schedule as given and returns the store's
// acknowledgment, including when no booking matched.
func (s *bookingService) UpdateBookingSchedule(ctx context.Context, id string, schedule model.BookingSchedule) (model.UpdateAck, error) {
	if err := s.validator.ValidateID(id); err != nil {
		s.cfg.Log.Warn("Invalid booking id", "id", id)
		return model.UpdateAck{}, apperrors.InvalidIdentifier("booking", id)
	}

	result, err := s.repo.UpdateSchedule(ctx, id, schedule)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return model.UpdateAck{}, apperrors.InvalidIdentifier("booking", id)
		}
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return model.UpdateAck{}, apperrors.StoreFailure("Failed to update booking", err)
	}

	ack := model.NewUpdateAck(result)
	if ack.ModifiedCount > 0 {
		s.cfg.Log.Info("Booking schedule updated", "id", id, "booking_status", schedule.BookingStatus)
		s.events.Emit(ctx, events.BookingScheduleUpdated, id, schedule)
	} else {
		s.cfg.Log.Debug("Booking schedule update changed nothing", "id", id, "matched", ack.MatchedCount)
	}

	return ack, nil
}
