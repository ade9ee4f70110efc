package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// ProcessedEventPruner deletes idempotency witness rows older than a cutoff.
type ProcessedEventPruner interface {
	PruneOlderThan(cutoff time.Time) (int64, error)
}

// InducedWritePruner deletes expired echo suppression records.
type InducedWritePruner interface {
	PruneExpiredInducedWrites() (int64, error)
}

// PruneProcessedEventsTask removes idempotency records past the retention
// window. Pruned hashes can be re-admitted, which is acceptable because
// upstream webhook redelivery happens within minutes, not weeks.
type PruneProcessedEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for processed event pruning.
func (t PruneProcessedEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_processed_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PruneProcessedEventsProcessor creates a processor function for PruneProcessedEventsTask.
func PruneProcessedEventsProcessor(pruner ProcessedEventPruner) backlite.QueueProcessor[PruneProcessedEventsTask] {
	return func(ctx context.Context, task PruneProcessedEventsTask) error {
		if pruner == nil {
			return fmt.Errorf("processed event pruner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 30
		}
		cutoff := time.Now().AddDate(0, 0, -retentionDays)

		deleted, err := pruner.PruneOlderThan(cutoff)
		if err != nil {
			return fmt.Errorf("prune processed events: %w", err)
		}

		log.Printf("[TASK] Pruned %d processed events older than %d days", deleted, retentionDays)
		return nil
	}
}

// NewPruneProcessedEventsQueue creates a backlite queue for processed event pruning.
func NewPruneProcessedEventsQueue(pruner ProcessedEventPruner) backlite.Queue {
	return backlite.NewQueue(PruneProcessedEventsProcessor(pruner))
}

// PruneInducedWritesTask removes expired induced write records. Expired
// rows no longer match echoes, pruning just keeps the table small.
type PruneInducedWritesTask struct{}

// Config returns the queue configuration for induced write pruning.
func (t PruneInducedWritesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_induced_writes",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PruneInducedWritesProcessor creates a processor function for PruneInducedWritesTask.
func PruneInducedWritesProcessor(pruner InducedWritePruner) backlite.QueueProcessor[PruneInducedWritesTask] {
	return func(ctx context.Context, task PruneInducedWritesTask) error {
		if pruner == nil {
			return fmt.Errorf("induced write pruner not configured")
		}

		deleted, err := pruner.PruneExpiredInducedWrites()
		if err != nil {
			return fmt.Errorf("prune induced writes: %w", err)
		}

		log.Printf("[TASK] Pruned %d expired induced writes", deleted)
		return nil
	}
}

// NewPruneInducedWritesQueue creates a backlite queue for induced write pruning.
func NewPruneInducedWritesQueue(pruner InducedWritePruner) backlite.Queue {
	return backlite.NewQueue(PruneInducedWritesProcessor(pruner))
}
