package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookstore/internal/tasks"
)

// DefaultAuditCleanupSchedule runs the cleanup daily at 03:00.
const DefaultAuditCleanupSchedule = "0 3 * * *"

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// AuditCleanupEnqueuer hands a cleanup run to whatever executes it.
// *tasks.Client implements it; InlineCleanup runs it in place.
type AuditCleanupEnqueuer interface {
	EnqueueAuditCleanup(retentionDays int) (string, error)
}

// InlineCleanup runs the cleanup synchronously when the task queue is disabled.
type InlineCleanup struct {
	Cleaner tasks.AuditEventCleaner
}

func (c InlineCleanup) EnqueueAuditCleanup(retentionDays int) (string, error) {
	process := tasks.CleanupAuditEventsProcessor(c.Cleaner)
	if err := process(context.Background(), tasks.CleanupAuditEventsTask{RetentionDays: retentionDays}); err != nil {
		return "", err
	}
	return "inline", nil
}

// ValidateCronSchedule checks a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// AuditCleanupScheduler periodically enqueues audit retention cleanup.
type AuditCleanupScheduler struct {
	enqueuer      AuditCleanupEnqueuer
	schedule      string
	retentionDays int

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewAuditCleanupScheduler creates a scheduler. An empty schedule uses
// DefaultAuditCleanupSchedule.
func NewAuditCleanupScheduler(enqueuer AuditCleanupEnqueuer, schedule string, retentionDays int) *AuditCleanupScheduler {
	if schedule == "" {
		schedule = DefaultAuditCleanupSchedule
	}
	return &AuditCleanupScheduler{
		enqueuer:      enqueuer,
		schedule:      schedule,
		retentionDays: retentionDays,
		cron:          cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the job and starts the cron runner. Cancelling ctx stops it.
func (s *AuditCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.run)
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Audit cleanup scheduler: started with schedule '%s', retention %d days", s.schedule, s.retentionDays)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job to finish and stops the scheduler.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Audit cleanup scheduler: stopped")
}

// IsRunning reports whether cleanups are being scheduled.
func (s *AuditCleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next cleanup will be enqueued, or nil when stopped.
func (s *AuditCleanupScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	t := entry.Next
	return &t
}

func (s *AuditCleanupScheduler) run() {
	id, err := s.enqueuer.EnqueueAuditCleanup(s.retentionDays)
	if err != nil {
		log.Printf("Audit cleanup: failed to enqueue: %v", err)
		return
	}
	log.Printf("Audit cleanup: enqueued task %s", id)
}
