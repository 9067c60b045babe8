package config

const (
	EnvMongoURI           = "MONGO_URI"
	EnvMongoDatabaseName  = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout   = "MONGO_CONN_TIMEOUT"
	EnvCarsCollection     = "MONGO_CARS_COLLECTION"
	EnvBookingsCollection = "MONGO_BOOKINGS_COLLECTION"

	EnvPort        = "PORT"
	EnvEnvironment = "APP_ENV"
	EnvLogLevel    = "LOG_LEVEL"

	EnvSessionSecret     = "ACCESS_TOKEN_SECRET"
	EnvSessionTTL        = "SESSION_TTL"
	EnvSessionCookieName = "SESSION_COOKIE_NAME"

	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL  = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize  = "MAX_REQUEST_SIZE"
	EnvMaxUpdateImages = "MAX_UPDATE_IMAGES"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
