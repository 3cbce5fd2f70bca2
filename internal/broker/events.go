package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"returns-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing return lifecycle events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishReturnCompleted publishes ReturnCompleted event
func (ep *EventPublisher) PublishReturnCompleted(ctx context.Context, event *models.ReturnCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishReturnRejected publishes ReturnRejected event
func (ep *EventPublisher) PublishReturnRejected(ctx context.Context, event *models.ReturnRejectedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishReturnFailed publishes ReturnFailed event
func (ep *EventPublisher) PublishReturnFailed(ctx context.Context, event *models.ReturnFailedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishAuditEntry publishes an audit entry to the topic. Keyed by request
// id so one request's entries stay in one partition, preserving their order.
func (ep *EventPublisher) PublishAuditEntry(ctx context.Context, event *models.AuditEntryEvent) error {
	key := fmt.Sprintf("audit-%s", event.Entry.RequestID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPickupScheduled publishes PickupScheduled event
func (ep *EventPublisher) PublishPickupScheduled(ctx context.Context, event *models.PickupScheduledEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order-%s", orderID)
}

// EventHandler handles incoming events
type EventHandler struct {
	onReturnCompleted func(context.Context, *models.ReturnCompletedEvent) error
	onReturnRejected  func(context.Context, *models.ReturnRejectedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnReturnCompleted registers a handler for ReturnCompleted events
func (eh *EventHandler) OnReturnCompleted(handler func(context.Context, *models.ReturnCompletedEvent) error) {
	eh.onReturnCompleted = handler
}

// OnReturnRejected registers a handler for ReturnRejected events
func (eh *EventHandler) OnReturnRejected(handler func(context.Context, *models.ReturnRejectedEvent) error) {
	eh.onReturnRejected = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeReturnCompleted:
		if eh.onReturnCompleted != nil {
			var event models.ReturnCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ReturnCompleted event: %w", err)
			}
			return eh.onReturnCompleted(ctx, &event)
		}

	case models.EventTypeReturnRejected:
		if eh.onReturnRejected != nil {
			var event models.ReturnRejectedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ReturnRejected event: %w", err)
			}
			return eh.onReturnRejected(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
