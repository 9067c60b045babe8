package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CarSnapshot is the copy of car fields embedded in a booking. It is never
// updated after the booking is created.
type CarSnapshot struct {
	Images             []Image `json:"images" bson:"images"`
	RegistrationNumber string  `json:"registrationNumber" bson:"registrationNumber"`
	BookingStatus      string  `json:"bookingStatus" bson:"bookingStatus"`
	Price              any     `json:"price" bson:"price"`
	Model              string  `json:"model" bson:"model"`
}

// BookingRequest is the body of a booking submission. Unknown fields are kept
// in Extra and stored alongside the known ones.
type BookingRequest struct {
	Email              string         `json:"email,omitempty" validate:"omitempty,email"`
	RegistrationNumber string         `json:"registrationNumber" validate:"required"`
	PickUpDate         string         `json:"pickUpDate,omitempty"`
	DropOffDate        string         `json:"dropOffDate,omitempty"`
	BookingStatus      string         `json:"bookingStatus,omitempty"`
	Extra              map[string]any `json:"-"`
}

// Keys a client cannot set through the extra fields of a request, compared
// case-insensitively.
var reservedBookingKeys = []string{
	"_id",
	"carId",
	"carInfo",
	"email",
	"registrationNumber",
	"pickUpDate",
	"dropOffDate",
	"bookingStatus",
}

func isReservedBookingKey(key string) bool {
	for _, reserved := range reservedBookingKeys {
		if strings.EqualFold(key, reserved) {
			return true
		}
	}
	return false
}

func (r *BookingRequest) UnmarshalJSON(data []byte) error {
	type known BookingRequest
	var k known
	if err := json.Unmarshal(data, &k); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var all map[string]any
	if err := dec.Decode(&all); err != nil {
		return err
	}

	k.Extra = nil
	for key, value := range all {
		if isReservedBookingKey(key) {
			continue
		}
		if k.Extra == nil {
			k.Extra = make(map[string]any)
		}
		k.Extra[key] = normalizeJSONNumbers(value)
	}

	*r = BookingRequest(k)
	return nil
}

// normalizeJSONNumbers turns json.Number values into int64 or float64 so they
// are stored as numbers rather than strings.
func normalizeJSONNumbers(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any:
		for key, inner := range v {
			v[key] = normalizeJSONNumbers(inner)
		}
		return v
	case []any:
		for i, inner := range v {
			v[i] = normalizeJSONNumbers(inner)
		}
		return v
	default:
		return v
	}
}

// Booking is a stored booking. CarInfo is a snapshot of the car taken when the
// booking was created.
type Booking struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Email              string             `bson:"email,omitempty"`
	RegistrationNumber string             `bson:"registrationNumber"`
	PickUpDate         string             `bson:"pickUpDate,omitempty"`
	DropOffDate        string             `bson:"dropOffDate,omitempty"`
	BookingStatus      string             `bson:"bookingStatus,omitempty"`
	CarID              primitive.ObjectID `bson:"carId"`
	CarInfo            CarSnapshot        `bson:"carInfo"`
	Extra              map[string]any     `bson:",inline"`
}

// NewBooking composes the stored booking from the request and the car it refers to.
func NewBooking(req BookingRequest, car *Car) *Booking {
	var extra map[string]any
	if len(req.Extra) > 0 {
		extra = make(map[string]any, len(req.Extra))
		for key, value := range req.Extra {
			extra[key] = value
		}
	}

	return &Booking{
		Email:              req.Email,
		RegistrationNumber: req.RegistrationNumber,
		PickUpDate:         req.PickUpDate,
		DropOffDate:        req.DropOffDate,
		BookingStatus:      req.BookingStatus,
		CarID:              car.ID,
		CarInfo:            car.Snapshot(),
		Extra:              extra,
	}
}

// MarshalJSON flattens Extra into the top-level object, matching the stored shape.
func (b Booking) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.Extra)+8)
	for key, value := range b.Extra {
		out[key] = value
	}

	if !b.ID.IsZero() {
		out["_id"] = b.ID
	}
	if b.Email != "" {
		out["email"] = b.Email
	}
	out["registrationNumber"] = b.RegistrationNumber
	out["pickUpDate"] = b.PickUpDate
	out["dropOffDate"] = b.DropOffDate
	out["bookingStatus"] = b.BookingStatus
	out["carId"] = b.CarID
	out["carInfo"] = b.CarInfo

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode booking: %w", err)
	}
	return data, nil
}

// BookingSchedule is the body of a booking update. All three fields are
// written as given, so an empty value clears the stored one.
type BookingSchedule struct {
	BookingStatus string `json:"bookingStatus" bson:"bookingStatus"`
	PickUpDate    string `json:"pickUpDate" bson:"pickUpDate"`
	DropOffDate   string `json:"dropOffDate" bson:"dropOffDate"`
}
