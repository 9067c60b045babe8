package events

import (
	"context"
	"time"
)

const (
	CarCreated               = "car.created"
	CarUpdated               = "car.updated"
	CarDeleted               = "car.deleted"
	CarBookingCountIncreased = "car.booking_count_incremented"
	BookingCreated           = "booking.created"
	BookingScheduleUpdated   = "booking.schedule_updated"

	SchemaVersion = "1"
)

// Event is a domain change announced after the store write succeeded.
type Event struct {
	Type          string
	Key           string // aggregate id, used as the partition key
	Payload       any
	CorrelationID string
	OccurredAt    time.Time
}

// Publisher announces domain events. Implementations never block a request on
// a broker outage for longer than the caller's context allows.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every event.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error { return nil }

func (noopPublisher) Close() error { return nil }
