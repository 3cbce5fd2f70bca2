package audit

import (
	"context"
	"time"

	"returns-service/internal/models"
	"returns-service/internal/util"

	"github.com/google/uuid"
)

// AuditPublisher is the publishing surface the Kafka sink needs.
type AuditPublisher interface {
	PublishAuditEntry(ctx context.Context, event *models.AuditEntryEvent) error
}

// KafkaSink ships entries to the audit topic so observability collaborators
// can consume them.
type KafkaSink struct {
	publisher AuditPublisher
}

// NewKafkaSink creates a Kafka-backed sink
func NewKafkaSink(publisher AuditPublisher) *KafkaSink {
	return &KafkaSink{publisher: publisher}
}

func (k *KafkaSink) Record(ctx context.Context, entry *models.AuditEntry) error {
	event := &models.AuditEntryEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeAuditEntry,
			Timestamp: time.Now(),
		},
		Entry: *entry,
	}

	if err := k.publisher.PublishAuditEntry(ctx, event); err != nil {
		util.AuditSinkErrorsTotal.Inc()
		return err
	}
	return nil
}
