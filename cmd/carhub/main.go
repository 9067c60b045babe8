package main

import (
	bookingshandler "carhub/internal/bookings/handler"
	bookingsrepository "carhub/internal/bookings/repository"
	bookingsservice "carhub/internal/bookings/service"
	bookingsvalidator "carhub/internal/bookings/validator"
	carshandler "carhub/internal/cars/handler"
	carsrepository "carhub/internal/cars/repository"
	carsservice "carhub/internal/cars/service"
	carsvalidator "carhub/internal/cars/validator"
	"carhub/internal/events"
	"carhub/internal/health"
	"carhub/internal/sessions"
	"carhub/pkg/app"
	"carhub/pkg/config"
)

const ServiceName = "carhub"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting CarHub service")

	publisher, err := events.NewPublisher(cfg.Kafka, ServiceName, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}
	emitter := events.NewEmitter(publisher, cfg.Log)

	manager, cookie := initSessions(cfg)
	requireSession := sessions.NewGuard(manager, cookie.Name, cfg.Log)

	carRepo := carsrepository.NewMongoCarRepository(cfg)
	carService := carsservice.NewCarService(carRepo, carsvalidator.NewCarValidator(cfg.Log), emitter, cfg)
	cfg.Log.Info("Car service initialized", "collection", cfg.CarsCollection)

	bookingService := bookingsservice.NewBookingService(
		bookingsrepository.NewMongoBookingRepository(cfg),
		carRepo,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		emitter,
		cfg,
	)
	cfg.Log.Info("Booking service initialized", "collection", cfg.BookingsCollection)

	serverApp := app.NewApplication(cfg)
	serverApp.AddCloser(publisher)
	serverApp.SetApp(
		health.NewHealthHandler(cfg.Client, cfg.Log),
		health.NewBannerHandler(cfg.Log),
		sessions.NewSessionHandler(manager, cookie, cfg.Log),
		carshandler.NewCarHandler(carService, requireSession, cfg.MaxUpdateImages, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, requireSession, cfg.Log),
	)
	serverApp.Run()
}

func initSessions(cfg *config.Config) (*sessions.Manager, sessions.CookieConfig) {
	var revoker sessions.TokenRevoker
	if cfg.Client.Redis != nil {
		revoker = sessions.NewRedisTokenRevoker(cfg.Client.Redis)
		cfg.Log.Info("Session revocations stored in Redis")
	} else {
		revoker = sessions.NewMemoryTokenRevoker()
		cfg.Log.Info("Session revocations kept in memory")
	}

	manager := sessions.NewManager(cfg.SessionSecret, cfg.SessionTTL, revoker)
	cookie := sessions.CookieConfig{
		Name:       cfg.SessionCookieName,
		TTL:        cfg.SessionTTL,
		Production: cfg.IsProduction(),
	}
	return manager, cookie
}
