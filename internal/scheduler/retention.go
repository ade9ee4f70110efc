package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/example/syncbridge/internal/config"
	"github.com/example/syncbridge/internal/database/syncconfig"
	"github.com/example/syncbridge/internal/tasks"
)

// TaskEnqueuer enqueues background tasks for asynchronous processing.
type TaskEnqueuer interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// RetentionScheduler periodically enqueues pruning tasks: expired
// induced writes and idempotency records past the retention window.
type RetentionScheduler struct {
	enqueuer TaskEnqueuer
	configs  *syncconfig.Repository
	cfg      config.Retention

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewRetentionScheduler creates a new scheduler instance. The retention
// window is re-read from the runtime configuration on every prune pass,
// with cfg supplying the fallback.
func NewRetentionScheduler(enqueuer TaskEnqueuer, configs *syncconfig.Repository, cfg config.Retention) *RetentionScheduler {
	return &RetentionScheduler{
		enqueuer: enqueuer,
		configs:  configs,
		cfg:      cfg,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler with the configured prune schedule.
func (s *RetentionScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.cfg.PruneSchedule, func() {
		s.runPrune()
	})
	if err != nil {
		return fmt.Errorf("invalid prune schedule '%s': %w", s.cfg.PruneSchedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Retention scheduler: started with schedule '%s'", s.cfg.PruneSchedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *RetentionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Retention scheduler: stopped")
}

// RunNow triggers an immediate prune pass.
func (s *RetentionScheduler) RunNow() {
	go s.runPrune()
}

// IsRunning returns whether the scheduler is active.
func (s *RetentionScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next prune pass will occur.
func (s *RetentionScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *RetentionScheduler) runPrune() {
	days := s.retentionDays()
	log.Printf("Retention scheduler: enqueueing prune tasks (retention %d days)", days)

	if _, err := s.enqueuer.Add(tasks.PruneProcessedEventsTask{RetentionDays: days}).Save(); err != nil {
		log.Printf("Retention scheduler: failed to enqueue processed event prune: %v", err)
	}
	if _, err := s.enqueuer.Add(tasks.PruneInducedWritesTask{}).Save(); err != nil {
		log.Printf("Retention scheduler: failed to enqueue induced write prune: %v", err)
	}
}

func (s *RetentionScheduler) retentionDays() int {
	if s.configs != nil {
		return s.configs.ProcessedRetentionDays(s.cfg)
	}
	return s.cfg.ProcessedEventDays
}
