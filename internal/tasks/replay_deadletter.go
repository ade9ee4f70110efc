package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/example/syncbridge/internal/orchestrator"
)

// DeadLetterReplayer re-submits a stored dead letter through the sync engine.
type DeadLetterReplayer interface {
	Replay(ctx context.Context, deadLetterID uint) (*orchestrator.ReplayResult, error)
}

// ReplayDeadLetterTask replays a single dead letter in the background.
// Bulk replay enqueues one task per letter so a bad payload cannot
// stall the rest of the batch.
type ReplayDeadLetterTask struct {
	DeadLetterID uint `json:"dead_letter_id"`
}

// Config returns the queue configuration for dead letter replay tasks.
func (t ReplayDeadLetterTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "replay_dead_letter",
		MaxAttempts: 1,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ReplayDeadLetterProcessor creates a processor function for ReplayDeadLetterTask.
// A renewed relay failure is recorded on the letter itself, so the task only
// fails on persistence errors.
func ReplayDeadLetterProcessor(replayer DeadLetterReplayer) backlite.QueueProcessor[ReplayDeadLetterTask] {
	return func(ctx context.Context, task ReplayDeadLetterTask) error {
		if replayer == nil {
			return fmt.Errorf("dead letter replayer not configured")
		}

		result, err := replayer.Replay(ctx, task.DeadLetterID)
		if err != nil {
			if errors.Is(err, orchestrator.ErrAlreadyReplayed) {
				log.Printf("[TASK] Dead letter %d already replayed, skipping", task.DeadLetterID)
				return nil
			}
			return fmt.Errorf("replay dead letter %d: %w", task.DeadLetterID, err)
		}

		if result.Replayed {
			log.Printf("[TASK] Replayed dead letter %d: %s", task.DeadLetterID, result.Outcome)
		} else {
			log.Printf("[TASK] Dead letter %d failed again: %s", task.DeadLetterID, result.Error)
		}
		return nil
	}
}

// NewReplayDeadLetterQueue creates a backlite queue for dead letter replay tasks.
func NewReplayDeadLetterQueue(replayer DeadLetterReplayer) backlite.Queue {
	return backlite.NewQueue(ReplayDeadLetterProcessor(replayer))
}
