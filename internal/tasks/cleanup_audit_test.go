package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	mu        sync.Mutex
	retention time.Duration
	calls     int
	err       error
	done      chan struct{}
}

func (f *fakeCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retention = retention
	f.calls++
	if f.done != nil {
		close(f.done)
		f.done = nil
	}
	return 3, f.err
}

func TestCleanupAuditEventsTaskConfig(t *testing.T) {
	cfg := CleanupAuditEventsTask{}.Config()

	assert.Equal(t, "cleanup_audit_events", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestCleanupAuditEventsTask_Retention(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, CleanupAuditEventsTask{RetentionDays: 7}.Retention())
	assert.Equal(t, DefaultAuditRetentionDays*24*time.Hour, CleanupAuditEventsTask{}.Retention())
	assert.Equal(t, DefaultAuditRetentionDays*24*time.Hour, CleanupAuditEventsTask{RetentionDays: -1}.Retention())
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	t.Run("deletes with task retention", func(t *testing.T) {
		cleaner := &fakeCleaner{}
		err := CleanupAuditEventsProcessor(cleaner)(context.Background(), CleanupAuditEventsTask{RetentionDays: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, cleaner.calls)
		assert.Equal(t, 240*time.Hour, cleaner.retention)
	})

	t.Run("propagates errors", func(t *testing.T) {
		cleaner := &fakeCleaner{err: errors.New("locked")}
		err := CleanupAuditEventsProcessor(cleaner)(context.Background(), CleanupAuditEventsTask{})
		assert.ErrorContains(t, err, "locked")
	})

	t.Run("nil cleaner", func(t *testing.T) {
		err := CleanupAuditEventsProcessor(nil)(context.Background(), CleanupAuditEventsTask{})
		assert.Error(t, err)
	})
}

func TestEnqueueAuditCleanup(t *testing.T) {
	client, _ := newTestClient(t)

	done := make(chan struct{})
	cleaner := &fakeCleaner{done: done}
	client.Register(NewCleanupAuditEventsQueue(cleaner))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.EnqueueAuditCleanup(2)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cleanup task was not executed within timeout")
	}

	cleaner.mu.Lock()
	defer cleaner.mu.Unlock()
	assert.Equal(t, 48*time.Hour, cleaner.retention)
}
