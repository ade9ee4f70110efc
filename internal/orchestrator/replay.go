package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/syncbridge/internal/entities"
)

// ReplayResult reports the outcome of re-submitting a dead letter.
type ReplayResult struct {
	DeadLetterID uint                      `json:"dead_letter_id"`
	Replayed     bool                      `json:"replayed"`
	Outcome      entities.SyncEventOutcome `json:"outcome,omitempty"`
	Error        string                    `json:"error,omitempty"`
}

// Replay re-submits a dead letter's original payload through the full
// orchestration path as a brand-new event: fresh event id, fresh
// idempotency admission. On success the letter becomes replayed; a
// renewed failure leaves it failed with its retry count incremented by
// exactly one. Replay is only ever triggered by an explicit external
// call, never automatically.
func (o *Orchestrator) Replay(ctx context.Context, deadLetterID uint) (*ReplayResult, error) {
	letter, err := o.deadLetters.GetByID(deadLetterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dead letter %d: %w", deadLetterID, err)
	}
	if letter.Status == entities.DeadLetterReplayed {
		return nil, ErrAlreadyReplayed
	}

	var evt InboundEvent
	if err := json.Unmarshal([]byte(letter.Payload), &evt); err != nil {
		return nil, fmt.Errorf("dead letter %d payload is not replayable: %w", deadLetterID, err)
	}

	nonce := uuid.NewString()
	evt.EventID = fmt.Sprintf("replay-%d-%s", deadLetterID, nonce)
	evt.ReplayNonce = nonce
	evt.ReplayOf = deadLetterID
	// The replayed event starts a fresh relay chain; any loop it causes
	// is caught on its own ancestry.
	evt.ParentEventID = ""

	result, err := o.ProcessEvent(ctx, &evt)
	if err != nil {
		if recordErr := o.deadLetters.RecordReplayFailure(deadLetterID, err.Error()); recordErr != nil {
			return nil, persistence("dead letter update", recordErr)
		}
		return &ReplayResult{DeadLetterID: deadLetterID, Error: err.Error()}, nil
	}

	if result.DeadLetterID != 0 {
		// ProcessEvent already recorded the renewed failure on this
		// letter through the replay routing.
		return &ReplayResult{DeadLetterID: deadLetterID, Outcome: result.Outcome, Error: "replay failed again"}, nil
	}

	if err := o.deadLetters.MarkReplayed(deadLetterID); err != nil {
		return nil, persistence("dead letter finalize", err)
	}
	return &ReplayResult{DeadLetterID: deadLetterID, Replayed: true, Outcome: result.Outcome}, nil
}
