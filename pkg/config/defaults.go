package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "innkeep"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 20
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// A room lock outliving this is considered abandoned and reclaimed by the
	// TTL index on Room_locks.
	DefaultRoomLockTTL = 10 * time.Second

	DefaultEventsEnabled        = false
	DefaultEventsTopic          = "reservations.events"
	DefaultEventsDLQTopic       = "reservations.events.dlq"
	DefaultHistoryConsumerGroup = "booking-history"

	DefaultPaginationLimit = 100

	DefaultLogLevel = "info"
)
