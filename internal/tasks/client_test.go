package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	// Verify tasks database was created alongside the main one
	tasksDBPath := filepath.Join(tmpDir, "test-tasks.db")
	_, err = os.Stat(tasksDBPath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestQueueDBPath(t *testing.T) {
	assert.Equal(t, "/var/lib/sync-tasks.db", queueDBPath("/var/lib/sync.db"))
	assert.Equal(t, "./sync-tasks.db", queueDBPath("./sync.db"))
	assert.Equal(t, "sync-tasks", queueDBPath("sync"))
}

func TestClientStartStop(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

type fakeProcessedPruner struct {
	gotCutoff time.Time
	deleted   int64
	err       error
}

func (f *fakeProcessedPruner) PruneOlderThan(cutoff time.Time) (int64, error) {
	f.gotCutoff = cutoff
	return f.deleted, f.err
}

func TestPruneProcessedEventsProcessor(t *testing.T) {
	pruner := &fakeProcessedPruner{deleted: 5}
	processor := PruneProcessedEventsProcessor(pruner)

	err := processor(context.Background(), PruneProcessedEventsTask{RetentionDays: 10})
	require.NoError(t, err)

	expected := time.Now().AddDate(0, 0, -10)
	assert.WithinDuration(t, expected, pruner.gotCutoff, time.Minute)
}

func TestPruneProcessedEventsProcessorDefaultsRetention(t *testing.T) {
	pruner := &fakeProcessedPruner{}
	processor := PruneProcessedEventsProcessor(pruner)

	err := processor(context.Background(), PruneProcessedEventsTask{})
	require.NoError(t, err)

	expected := time.Now().AddDate(0, 0, -30)
	assert.WithinDuration(t, expected, pruner.gotCutoff, time.Minute)
}

func TestPruneProcessedEventsProcessorPropagatesError(t *testing.T) {
	pruner := &fakeProcessedPruner{err: errors.New("disk full")}
	processor := PruneProcessedEventsProcessor(pruner)

	err := processor(context.Background(), PruneProcessedEventsTask{RetentionDays: 7})
	assert.ErrorContains(t, err, "disk full")
}

type fakeInducedPruner struct {
	called  bool
	deleted int64
}

func (f *fakeInducedPruner) PruneExpiredInducedWrites() (int64, error) {
	f.called = true
	return f.deleted, nil
}

func TestPruneInducedWritesProcessor(t *testing.T) {
	pruner := &fakeInducedPruner{deleted: 2}
	processor := PruneInducedWritesProcessor(pruner)

	err := processor(context.Background(), PruneInducedWritesTask{})
	require.NoError(t, err)
	assert.True(t, pruner.called)
}
