package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	carserrors "carhub/internal/cars/errors"
	"carhub/internal/cars/validator"
	"carhub/pkg/config"
	apperrors "carhub/pkg/errors"
	"carhub/pkg/logger"
	"carhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ────────────────────────────────────────────────
// In-memory repository keeping raw documents, so stored types survive
// ────────────────────────────────────────────────

type fakeCarRepository struct {
	docs     map[string]bson.M
	calls    int
	incErr   error
	storeErr error
}

func newFakeCarRepository() *fakeCarRepository {
	return &fakeCarRepository{docs: make(map[string]bson.M)}
}

func (f *fakeCarRepository) put(doc bson.M) string {
	id := primitive.NewObjectID()
	doc["_id"] = id
	f.docs[id.Hex()] = doc
	return id.Hex()
}

func (f *fakeCarRepository) decode(doc bson.M) (*model.Car, error) {
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var car model.Car
	if err := bson.Unmarshal(data, &car); err != nil {
		return nil, err
	}
	return &car, nil
}

func (f *fakeCarRepository) Create(_ context.Context, car *model.Car) (*mongo.InsertOneResult, error) {
	f.calls++
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	data, err := bson.Marshal(car)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	id := f.put(doc)
	car.ID, _ = primitive.ObjectIDFromHex(id)
	return &mongo.InsertOneResult{InsertedID: car.ID}, nil
}

func (f *fakeCarRepository) FindByID(_ context.Context, id string) (*model.Car, error) {
	f.calls++
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, carserrors.ErrNotFound
	}
	return f.decode(doc)
}

func (f *fakeCarRepository) FindAll(context.Context) ([]*model.Car, error) {
	f.calls++
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	cars := make([]*model.Car, 0, len(f.docs))
	for _, doc := range f.docs {
		car, err := f.decode(doc)
		if err != nil {
			return nil, err
		}
		cars = append(cars, car)
	}
	return cars, nil
}

func (f *fakeCarRepository) FindByOwnerEmail(_ context.Context, email string) ([]*model.Car, error) {
	f.calls++
	cars := make([]*model.Car, 0)
	for _, doc := range f.docs {
		car, err := f.decode(doc)
		if err != nil {
			return nil, err
		}
		if car.Owner.Email == email {
			cars = append(cars, car)
		}
	}
	return cars, nil
}

func (f *fakeCarRepository) FindByRegistrationNumber(context.Context, string) (*model.Car, error) {
	f.calls++
	return nil, carserrors.ErrNotFound
}

func (f *fakeCarRepository) Update(_ context.Context, id string, patch model.CarPatch) (*mongo.UpdateResult, error) {
	f.calls++
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return &mongo.UpdateResult{}, nil
	}
	modified := int64(0)
	for _, e := range patch.SetDocument() {
		if fmt.Sprint(doc[e.Key]) != fmt.Sprint(e.Value) {
			modified = 1
		}
		doc[e.Key] = e.Value
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: modified}, nil
}

func (f *fakeCarRepository) Delete(_ context.Context, id string) (*mongo.DeleteResult, error) {
	f.calls++
	if _, ok := f.docs[id]; !ok {
		return &mongo.DeleteResult{}, nil
	}
	delete(f.docs, id)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func rawOf(value any) bson.RawValue {
	data, _ := bson.Marshal(bson.M{"v": value})
	return bson.Raw(data).Lookup("v")
}

func (f *fakeCarRepository) HealBookingCount(_ context.Context, id string, stored model.BookingCount) (*mongo.UpdateResult, error) {
	f.calls++
	doc, ok := f.docs[id]
	if !ok {
		return &mongo.UpdateResult{}, nil
	}

	current, exists := doc["bookingCount"]
	raw, present := stored.Raw()
	matches := (!present && (!exists || current == nil)) || (present && exists && rawOf(current).Equal(raw))
	if !matches {
		return &mongo.UpdateResult{}, nil
	}

	doc["bookingCount"] = stored.Value
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeCarRepository) IncrementBookingCount(_ context.Context, id string) (*mongo.UpdateResult, error) {
	f.calls++
	if f.incErr != nil {
		return nil, f.incErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return &mongo.UpdateResult{}, nil
	}
	switch v := doc["bookingCount"].(type) {
	case int32:
		doc["bookingCount"] = int64(v) + 1
	case int64:
		doc["bookingCount"] = v + 1
	case float64:
		doc["bookingCount"] = v + 1
	case nil:
		doc["bookingCount"] = int64(1)
	default:
		return nil, errors.New("cannot apply $inc to a value of non-numeric type")
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func newTestService(repo *fakeCarRepository) CarService {
	log := logger.Discard()
	cfg := &config.Config{Log: log}
	return NewCarService(repo, validator.NewCarValidator(log), nil, cfg)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperrors.HasCode(err, code) {
		t.Fatalf("error = %v, want code %s", err, code)
	}
}

// ────────────────────────────────────────────────
// Tests for PartialUpdate()
// ────────────────────────────────────────────────

func TestPartialUpdate_InvalidIDMakesNoStoreCall(t *testing.T) {
	repo := newFakeCarRepository()
	svc := newTestService(repo)

	err := svc.PartialUpdate(context.Background(), "not-an-id", model.NewCarPatch(model.CarForm{Model: "Civic"}, nil))

	assertCode(t, err, apperrors.CodeInvalidIdentifier)
	if repo.calls != 0 {
		t.Errorf("store calls = %d, want 0", repo.calls)
	}
}

func TestPartialUpdate_EmptyPatchReportsNoChanges(t *testing.T) {
	repo := newFakeCarRepository()
	id := repo.put(bson.M{"model": "Corolla", "price": "45"})
	svc := newTestService(repo)

	err := svc.PartialUpdate(context.Background(), id, model.NewCarPatch(model.CarForm{}, nil))

	assertCode(t, err, apperrors.CodeNotFound)
	if repo.calls != 0 {
		t.Errorf("store calls = %d, want 0", repo.calls)
	}
	if repo.docs[id]["model"] != "Corolla" {
		t.Error("document changed on empty patch")
	}
}

func TestPartialUpdate_FalsyValuesNeverOverwrite(t *testing.T) {
	repo := newFakeCarRepository()
	id := repo.put(bson.M{"model": "Corolla", "price": "45", "description": "Clean"})
	svc := newTestService(repo)

	patch := model.NewCarPatch(model.CarForm{Model: "Camry", Price: "0", Description: ""}, nil)
	if err := svc.PartialUpdate(context.Background(), id, patch); err != nil {
		t.Fatalf("PartialUpdate() error = %v", err)
	}

	doc := repo.docs[id]
	if doc["model"] != "Camry" {
		t.Errorf("model = %v, want Camry", doc["model"])
	}
	if doc["price"] != "45" || doc["description"] != "Clean" {
		t.Errorf("falsy values overwrote stored ones: %v", doc)
	}
}

func TestPartialUpdate_ImagesReplaceWholeSequence(t *testing.T) {
	repo := newFakeCarRepository()
	id := repo.put(bson.M{"images": bson.A{bson.M{"filename": "old-1.png"}, bson.M{"filename": "old-2.png"}}})
	svc := newTestService(repo)

	images := []model.Image{{Filename: "new.png", MimeType: "image/png", Size: 1, Data: "AA=="}}
	if err := svc.PartialUpdate(context.Background(), id, model.NewCarPatch(model.CarForm{}, images)); err != nil {
		t.Fatalf("PartialUpdate() error = %v", err)
	}

	car, err := svc.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(car.Images) != 1 || car.Images[0].Filename != "new.png" {
		t.Errorf("images = %+v, want only new.png", car.Images)
	}
}

func TestPartialUpdate_UnknownOrUnchangedIsNotFound(t *testing.T) {
	repo := newFakeCarRepository()
	id := repo.put(bson.M{"model": "Corolla"})
	svc := newTestService(repo)

	err := svc.PartialUpdate(context.Background(), primitive.NewObjectID().Hex(), model.NewCarPatch(model.CarForm{Model: "Civic"}, nil))
	assertCode(t, err, apperrors.CodeNotFound)

	err = svc.PartialUpdate(context.Background(), id, model.NewCarPatch(model.CarForm{Model: "Corolla"}, nil))
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestPartialUpdate_StoreFailureExposesMessage(t *testing.T) {
	repo := newFakeCarRepository()
	repo.storeErr = errors.New("connection reset")
	svc := newTestService(repo)

	err := svc.PartialUpdate(context.Background(), primitive.NewObjectID().Hex(), model.NewCarPatch(model.CarForm{Model: "Civic"}, nil))

	assertCode(t, err, apperrors.CodeStoreFailure)
	if appErr := apperrors.AsAppError(err); appErr.Details["error"] != "connection reset" {
		t.Errorf("details = %v", appErr.Details)
	}
}

// ────────────────────────────────────────────────
// Tests for IncrementBookingCount()
// ────────────────────────────────────────────────

func TestIncrementBookingCount_HealsLegacyValues(t *testing.T) {
	tests := []struct {
		name   string
		stored any
		absent bool
		want   int64
	}{
		{name: "numeric string", stored: "5", want: 6},
		{name: "garbage string", stored: "abc", want: 1},
		{name: "integer", stored: int32(2), want: 3},
		{name: "double", stored: 4.0, want: 5},
		{name: "negative", stored: int64(-4), want: 1},
		{name: "absent", absent: true, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeCarRepository()
			doc := bson.M{"model": "Corolla"}
			if !tt.absent {
				doc["bookingCount"] = tt.stored
			}
			id := repo.put(doc)
			svc := newTestService(repo)

			car, err := svc.IncrementBookingCount(context.Background(), id)
			if err != nil {
				t.Fatalf("IncrementBookingCount() error = %v", err)
			}
			if car.BookingCount.Value != tt.want {
				t.Errorf("bookingCount = %d, want %d", car.BookingCount.Value, tt.want)
			}
			if !car.BookingCount.Normalized() {
				t.Error("bookingCount must be stored as an integer after increment")
			}
		})
	}
}

func TestIncrementBookingCount_IntegerSkipsHeal(t *testing.T) {
	repo := newFakeCarRepository()
	id := repo.put(bson.M{"bookingCount": int64(7)})
	svc := newTestService(repo)

	if _, err := svc.IncrementBookingCount(context.Background(), id); err != nil {
		t.Fatalf("IncrementBookingCount() error = %v", err)
	}

	// FindByID, IncrementBookingCount, FindByID
	if repo.calls != 3 {
		t.Errorf("store calls = %d, want 3", repo.calls)
	}
}

func TestIncrementBookingCount_MissingCar(t *testing.T) {
	svc := newTestService(newFakeCarRepository())

	_, err := svc.IncrementBookingCount(context.Background(), primitive.NewObjectID().Hex())
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestIncrementBookingCount_FailedIncrementKeepsHealedValue(t *testing.T) {
	repo := newFakeCarRepository()
	id := repo.put(bson.M{"bookingCount": "5"})
	repo.incErr = errors.New("write conflict")
	svc := newTestService(repo)

	_, err := svc.IncrementBookingCount(context.Background(), id)

	assertCode(t, err, apperrors.CodeStoreFailure)
	if got := repo.docs[id]["bookingCount"]; got != int64(5) {
		t.Errorf("bookingCount = %#v, want healed int64(5)", got)
	}
}

func TestIncrementBookingCount_InvalidID(t *testing.T) {
	repo := newFakeCarRepository()
	svc := newTestService(repo)

	_, err := svc.IncrementBookingCount(context.Background(), "123")
	assertCode(t, err, apperrors.CodeInvalidIdentifier)
	if repo.calls != 0 {
		t.Errorf("store calls = %d, want 0", repo.calls)
	}
}

// ────────────────────────────────────────────────
// Tests for the pass-through operations
// ────────────────────────────────────────────────

func TestCreate_NormalizesBookingCount(t *testing.T) {
	repo := newFakeCarRepository()
	svc := newTestService(repo)

	ack, err := svc.Create(context.Background(), model.CarForm{Model: "Corolla", BookingCount: "3"}, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !ack.Acknowledged || ack.InsertedID == nil {
		t.Errorf("ack = %+v", ack)
	}

	id := ack.InsertedID.(primitive.ObjectID).Hex()
	if got := repo.docs[id]["bookingCount"]; got != int64(3) {
		t.Errorf("stored bookingCount = %#v, want int64(3)", got)
	}
}

func TestGetByIDAndDelete_InvalidIDMakesNoStoreCall(t *testing.T) {
	repo := newFakeCarRepository()
	svc := newTestService(repo)

	_, err := svc.GetByID(context.Background(), "xyz")
	assertCode(t, err, apperrors.CodeInvalidIdentifier)

	_, err = svc.Delete(context.Background(), "xyz")
	assertCode(t, err, apperrors.CodeInvalidIdentifier)

	if repo.calls != 0 {
		t.Errorf("store calls = %d, want 0", repo.calls)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestService(newFakeCarRepository())

	_, err := svc.GetByID(context.Background(), primitive.NewObjectID().Hex())
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestDelete_ReturnsAck(t *testing.T) {
	repo := newFakeCarRepository()
	id := repo.put(bson.M{"model": "Corolla"})
	svc := newTestService(repo)

	ack, err := svc.Delete(context.Background(), id)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ack.DeletedCount != 1 {
		t.Errorf("DeletedCount = %d, want 1", ack.DeletedCount)
	}

	ack, err = svc.Delete(context.Background(), id)
	if err != nil || ack.DeletedCount != 0 {
		t.Errorf("second Delete() = %+v, %v; want zero count and no error", ack, err)
	}
}

func TestListByOwnerEmail(t *testing.T) {
	repo := newFakeCarRepository()
	repo.put(bson.M{"model": "A", "userDetails": bson.M{"email": "a@example.com"}})
	repo.put(bson.M{"model": "B", "userDetails": bson.M{"email": "b@example.com"}})
	svc := newTestService(repo)

	cars, err := svc.ListByOwnerEmail(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("ListByOwnerEmail() error = %v", err)
	}
	if len(cars) != 1 || cars[0].Model != "A" {
		t.Errorf("cars = %+v", cars)
	}
}
