package audit

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"returns-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(requestID string, seq int) *models.AuditEntry {
	return &models.AuditEntry{
		RequestID: requestID,
		Seq:       seq,
		Subject:   "session-1",
		Stage:     models.StateValidating,
		Outcome:   models.AuditOutcomeSuccess,
	}
}

func TestMemorySinkKeepsPerRequestOrder(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	for seq := 1; seq <= 5; seq++ {
		require.NoError(t, sink.Record(ctx, entry("req-1", seq)))
	}

	entries := sink.ByRequest("req-1")
	require.Len(t, entries, 5)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Seq)
	}
}

func TestMemorySinkConcurrentWriters(t *testing.T) {
	sink := NewMemorySink()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			requestID := fmt.Sprintf("req-%d", i)
			for seq := 1; seq <= 3; seq++ {
				_ = sink.Record(context.Background(), entry(requestID, seq))
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, sink.Entries(), 60)
	// Ordering between requests is not guaranteed, but within one it is.
	for i := 0; i < 20; i++ {
		entries := sink.ByRequest(fmt.Sprintf("req-%d", i))
		require.Len(t, entries, 3)
		for j, e := range entries {
			assert.Equal(t, j+1, e.Seq)
		}
	}
}

type failingSink struct{ err error }

func (f *failingSink) Record(ctx context.Context, e *models.AuditEntry) error {
	return f.err
}

func TestMultiSinkRecordsEverywhereDespiteFailure(t *testing.T) {
	memory := NewMemorySink()
	failing := &failingSink{err: fmt.Errorf("kafka down")}
	multi := NewMultiSink(failing, memory)

	err := multi.Record(context.Background(), entry("req-1", 1))

	require.Error(t, err, "a refused entry must not be silent")
	assert.Len(t, memory.Entries(), 1, "the healthy sink still receives the entry")
}
