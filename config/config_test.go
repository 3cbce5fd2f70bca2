package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"RETURN_WINDOW_DAYS",
		"EXCLUDED_CATEGORIES",
		"KAFKA_TOPIC_RETURN_EVENTS",
		"KAFKA_TOPIC_AUDIT_ENTRIES",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 30, cfg.Policy.ReturnWindowDays)
	assert.Equal(t, []string{"PERISHABLE_FOOD", "HYGIENE", "MEDICATION"}, cfg.Policy.ExcludedCategories)

	assert.Equal(t, "return-events", cfg.Kafka.TopicReturns)
	assert.Equal(t, "audit-entries", cfg.Kafka.TopicAudit)
	assert.NotEqual(t, cfg.Kafka.TopicReturns, cfg.Kafka.TopicAudit,
		"audit entries must not share the lifecycle topic")
}
