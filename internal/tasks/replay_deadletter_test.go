package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/syncbridge/internal/entities"
	"github.com/example/syncbridge/internal/orchestrator"
)

type fakeReplayer struct {
	gotID  uint
	result *orchestrator.ReplayResult
	err    error
}

func (f *fakeReplayer) Replay(_ context.Context, id uint) (*orchestrator.ReplayResult, error) {
	f.gotID = id
	return f.result, f.err
}

func TestReplayDeadLetterProcessor(t *testing.T) {
	replayer := &fakeReplayer{result: &orchestrator.ReplayResult{
		DeadLetterID: 7,
		Replayed:     true,
		Outcome:      entities.OutcomeRelayed,
	}}
	processor := ReplayDeadLetterProcessor(replayer)

	err := processor(context.Background(), ReplayDeadLetterTask{DeadLetterID: 7})
	require.NoError(t, err)
	assert.Equal(t, uint(7), replayer.gotID)
}

func TestReplayDeadLetterProcessorAlreadyReplayed(t *testing.T) {
	replayer := &fakeReplayer{err: orchestrator.ErrAlreadyReplayed}
	processor := ReplayDeadLetterProcessor(replayer)

	// An already-replayed letter is not a task failure
	err := processor(context.Background(), ReplayDeadLetterTask{DeadLetterID: 3})
	assert.NoError(t, err)
}

func TestReplayDeadLetterProcessorRenewedFailure(t *testing.T) {
	replayer := &fakeReplayer{result: &orchestrator.ReplayResult{
		DeadLetterID: 9,
		Error:        "replay failed again",
	}}
	processor := ReplayDeadLetterProcessor(replayer)

	// The failure is recorded on the letter; the task itself succeeds
	err := processor(context.Background(), ReplayDeadLetterTask{DeadLetterID: 9})
	assert.NoError(t, err)
}
