package config

import "time"

const (
	DefaultMongoURI           = "mongodb://localhost:27017"
	DefaultMongoDatabaseName  = "CarHub"
	DefaultMongoConnTimeout   = 10 * time.Second
	DefaultCarsCollection     = "cars"
	DefaultBookingsCollection = "bookingCar"

	DefaultPort        = "3000"
	DefaultEnvironment = "development"
	DefaultLogLevel    = "info"

	DefaultSessionTTL        = 15 * time.Hour
	DefaultSessionCookieName = "token"

	DefaultCORSAllowedOrigins = "http://localhost:5173"

	DefaultRedisDB = 0

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout  = 15 * time.Second
	DefaultIdempotencyTTL  = 24 * time.Hour
	DefaultMaxRequestSize  = 16 * 1024 * 1024 // 16MB, images travel inline
	DefaultMaxUpdateImages = 5

	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

const Production = "production"
