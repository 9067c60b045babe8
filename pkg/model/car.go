package model

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Owner struct {
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
}

// Image is an uploaded file kept inline as base64.
type Image struct {
	Filename string `json:"filename" bson:"filename"`
	MimeType string `json:"mimetype" bson:"mimetype"`
	Size     int64  `json:"size" bson:"size"`
	Path     string `json:"path,omitempty" bson:"path,omitempty"`
	Data     string `json:"data" bson:"data"`
}

// Car is a listing in the cars collection. Price, Features and Seats are kept as
// submitted, so they may hold strings, numbers or lists.
type Car struct {
	ID                 primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Model              string             `json:"model" bson:"model"`
	Price              any                `json:"price" bson:"price"`
	Availability       string             `json:"availability" bson:"availability"`
	RegistrationNumber string             `json:"registrationNumber" bson:"registrationNumber"`
	Features           any                `json:"features" bson:"features"`
	Seats              any                `json:"seats" bson:"seats"`
	Description        string             `json:"description" bson:"description"`
	Location           string             `json:"location" bson:"location"`
	Date               string             `json:"date" bson:"date"`
	BookingCount       BookingCount       `json:"bookingCount" bson:"bookingCount"`
	BookingStatus      string             `json:"bookingStatus" bson:"bookingStatus"`
	Owner              Owner              `json:"userDetails" bson:"userDetails"`
	Images             []Image            `json:"images" bson:"images"`
}

// Snapshot copies the fields a booking keeps about the car at booking time.
func (c *Car) Snapshot() CarSnapshot {
	images := make([]Image, len(c.Images))
	copy(images, c.Images)

	return CarSnapshot{
		Images:             images,
		RegistrationNumber: c.RegistrationNumber,
		BookingStatus:      c.BookingStatus,
		Price:              c.Price,
		Model:              c.Model,
	}
}

// CarForm holds the multipart form values of a car submission or edit.
type CarForm struct {
	Model              string
	Price              string
	Availability       string
	RegistrationNumber string
	Features           string
	Seats              string
	Description        string
	Location           string
	Date               string
	BookingCount       string
	BookingStatus      string
	UserName           string
	UserEmail          string
}

// NewCar builds the document stored on submission. Fields are copied verbatim
// except bookingCount, which is normalized to a non-negative integer.
func NewCar(form CarForm, images []Image) *Car {
	if images == nil {
		images = []Image{}
	}

	return &Car{
		Model:              form.Model,
		Price:              form.Price,
		Availability:       form.Availability,
		RegistrationNumber: form.RegistrationNumber,
		Features:           form.Features,
		Seats:              form.Seats,
		Description:        form.Description,
		Location:           form.Location,
		Date:               form.Date,
		BookingCount:       NewBookingCount(HealBookingCountString(form.BookingCount)),
		BookingStatus:      form.BookingStatus,
		Owner:              Owner{Name: form.UserName, Email: form.UserEmail},
		Images:             images,
	}
}

// CarPatch is a partial car update. A nil field is absent and leaves the stored
// value untouched.
type CarPatch struct {
	Model              *string
	Price              *string
	Availability       *string
	RegistrationNumber *string
	Features           *string
	Seats              *string
	Description        *string
	Location           *string
	Date               *string
	BookingStatus      *string
	Owner              *Owner
	Images             []Image
}

// NewCarPatch keeps only truthy form values. The owner sub-document is replaced
// as a whole when either name or email is truthy, and images are replaced when
// at least one was uploaded.
func NewCarPatch(form CarForm, images []Image) CarPatch {
	patch := CarPatch{
		Model:              truthyPtr(form.Model),
		Price:              truthyPtr(form.Price),
		Availability:       truthyPtr(form.Availability),
		RegistrationNumber: truthyPtr(form.RegistrationNumber),
		Features:           truthyPtr(form.Features),
		Seats:              truthyPtr(form.Seats),
		Description:        truthyPtr(form.Description),
		Location:           truthyPtr(form.Location),
		Date:               truthyPtr(form.Date),
		BookingStatus:      truthyPtr(form.BookingStatus),
	}

	if Truthy(form.UserName) || Truthy(form.UserEmail) {
		owner := Owner{}
		if Truthy(form.UserName) {
			owner.Name = form.UserName
		}
		if Truthy(form.UserEmail) {
			owner.Email = form.UserEmail
		}
		patch.Owner = &owner
	}

	if len(images) > 0 {
		patch.Images = images
	}

	return patch
}

func (p CarPatch) IsEmpty() bool {
	return len(p.SetDocument()) == 0
}

// SetDocument renders the patch as the body of a $set.
func (p CarPatch) SetDocument() bson.D {
	doc := bson.D{}
	fields := []struct {
		key   string
		value *string
	}{
		{"model", p.Model},
		{"price", p.Price},
		{"availability", p.Availability},
		{"registrationNumber", p.RegistrationNumber},
		{"features", p.Features},
		{"seats", p.Seats},
		{"description", p.Description},
		{"location", p.Location},
		{"date", p.Date},
		{"bookingStatus", p.BookingStatus},
	}
	for _, f := range fields {
		if f.value != nil {
			doc = append(doc, bson.E{Key: f.key, Value: *f.value})
		}
	}

	if p.Owner != nil {
		doc = append(doc, bson.E{Key: "userDetails", Value: *p.Owner})
	}
	if len(p.Images) > 0 {
		doc = append(doc, bson.E{Key: "images", Value: p.Images})
	}

	return doc
}

// Truthy reports whether a submitted value counts as supplied: it must be
// non-empty and must not be a numeric zero such as "0" or "0.00".
func Truthy(value string) bool {
	if value == "" {
		return false
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil && f == 0 {
		return false
	}
	return true
}

func truthyPtr(value string) *string {
	if !Truthy(value) {
		return nil
	}
	return &value
}
