package events

import (
	"context"

	"carhub/pkg/logger"
	"carhub/pkg/middleware"
)

// Emitter publishes events on behalf of services. A publish failure is logged
// and never returned, so the request that caused the event still succeeds.
type Emitter struct {
	publisher Publisher
	log       *logger.Logger
}

func NewEmitter(publisher Publisher, log *logger.Logger) *Emitter {
	if publisher == nil {
		publisher = NewNoopPublisher()
	}
	return &Emitter{publisher: publisher, log: log}
}

func (e *Emitter) Emit(ctx context.Context, eventType, key string, payload any) {
	if e == nil {
		return
	}

	requestID := middleware.RequestIDFromContext(ctx)
	err := e.publisher.Publish(ctx, Event{
		Type:          eventType,
		Key:           key,
		Payload:       payload,
		CorrelationID: requestID,
	})
	if err != nil {
		e.log.Warn("Failed to publish domain event",
			"event_type", eventType,
			"key", key,
			"request_id", requestID,
			"error", err,
		)
	}
}
