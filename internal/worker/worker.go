package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"returns-service/internal/broker"
	"returns-service/internal/models"
	"returns-service/internal/store"
	"returns-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CarrierWorker consumes ReturnCompleted events and books the carrier
// pickup for the issued label. Consumption is idempotent via the
// processed-events table, so a replayed event never books twice.
type CarrierWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	publisher    *broker.EventPublisher
	logger       *zap.Logger
}

// NewCarrierWorker creates a new carrier worker
func NewCarrierWorker(
	consumer *broker.Consumer,
	store *store.Store,
	publisher *broker.EventPublisher,
) *CarrierWorker {
	w := &CarrierWorker{
		consumer:  consumer,
		store:     store,
		publisher: publisher,
		logger:    util.NamedLogger("carrier-worker"),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnReturnCompleted(w.handleReturnCompleted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *CarrierWorker) Start(ctx context.Context) error {
	log.Println("Starting carrier worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CarrierWorker) Stop() error {
	log.Println("Stopping carrier worker...")
	return w.consumer.Close()
}

func (w *CarrierWorker) handleReturnCompleted(ctx context.Context, event *models.ReturnCompletedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	w.logger.Info("Scheduling carrier pickup",
		zap.String("rma_id", event.RMAID),
		zap.String("order_id", event.OrderID),
		zap.String("carrier", event.Carrier),
		zap.String("window", event.PickupWindow))

	util.PickupsScheduledTotal.Inc()

	scheduled := &models.PickupScheduledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePickupScheduled,
			Timestamp: time.Now(),
		},
		RMAID:   event.RMAID,
		OrderID: event.OrderID,
		Carrier: event.Carrier,
		Window:  event.PickupWindow,
	}
	if err := w.publisher.PublishPickupScheduled(ctx, scheduled); err != nil {
		w.logger.Error("Failed to publish PickupScheduled event", zap.Error(err))
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	return nil
}
