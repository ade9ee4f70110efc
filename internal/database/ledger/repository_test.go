package ledger

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/syncbridge/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_ledger_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath+"?_journal=WAL&_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.SyncEvent{}, &entities.InducedWrite{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func pendingEvent(eventID, parentID string) *entities.SyncEvent {
	return &entities.SyncEvent{
		EventID:        eventID,
		SourcePlatform: entities.PlatformGitHub,
		TargetPlatform: entities.PlatformNotion,
		EntityType:     "issue",
		EntityID:       "42",
		Action:         entities.ActionUpdate,
		Direction:      entities.DirectionTrackerToKnowledge,
		IsSyncInduced:  parentID != "",
		ParentEventID:  parentID,
	}
}

func TestRecordPendingAndMarkProcessed(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	event := pendingEvent("ev-1", "")
	require.NoError(t, repo.RecordPending(event))

	row, err := repo.GetByEventID("ev-1")
	require.NoError(t, err)
	assert.Equal(t, entities.SyncEventPending, row.Status)
	assert.Nil(t, row.ProcessedAt)

	require.NoError(t, repo.MarkProcessed("ev-1", entities.OutcomeRelayed))

	row, err = repo.GetByEventID("ev-1")
	require.NoError(t, err)
	assert.Equal(t, entities.SyncEventProcessed, row.Status)
	assert.Equal(t, entities.OutcomeRelayed, row.Outcome)
	require.NotNil(t, row.ProcessedAt)
}

func TestStatusTransitionsExactlyOnce(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.RecordPending(pendingEvent("ev-1", "")))
	require.NoError(t, repo.MarkProcessed("ev-1", entities.OutcomeRelayed))

	// A second transition must not overwrite the first.
	err := repo.MarkFailed("ev-1", entities.OutcomeRelayFailed, "late failure")
	assert.Error(t, err)

	row, err := repo.GetByEventID("ev-1")
	require.NoError(t, err)
	assert.Equal(t, entities.SyncEventProcessed, row.Status)
}

func TestMarkFailedRecordsError(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.RecordPending(pendingEvent("ev-1", "")))
	require.NoError(t, repo.MarkFailed("ev-1", entities.OutcomeRelayFailed, "connector timeout"))

	row, err := repo.GetByEventID("ev-1")
	require.NoError(t, err)
	assert.Equal(t, entities.SyncEventFailed, row.Status)
	assert.Equal(t, "connector timeout", row.Error)
}

func TestDuplicateEventIDRejected(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.RecordPending(pendingEvent("ev-1", "")))
	err := repo.RecordPending(pendingEvent("ev-1", ""))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestAncestryDepth(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	// ev-1 <- ev-2 <- ev-3
	require.NoError(t, repo.RecordPending(pendingEvent("ev-1", "")))
	require.NoError(t, repo.RecordPending(pendingEvent("ev-2", "ev-1")))
	require.NoError(t, repo.RecordPending(pendingEvent("ev-3", "ev-2")))

	depth, err := repo.AncestryDepth("ev-3", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, depth)

	depth, err = repo.AncestryDepth("ev-1", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}

func TestAncestryDepth_StopsAtLimit(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	parent := ""
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, repo.RecordPending(pendingEvent(id, parent)))
		parent = id
	}

	depth, err := repo.AncestryDepth("e", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, depth)
}

func TestAncestryDepth_UnknownParentEndsChain(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	depth, err := repo.AncestryDepth("never-recorded", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}

func TestInducedWriteEchoMatching(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.RecordInducedWrite(entities.PlatformNotion, "P1", "fp-1", "ev-1", time.Minute)
	require.NoError(t, err)

	matched, sourceEvent, err := repo.MatchEcho(entities.PlatformNotion, "P1", "fp-1")
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, "ev-1", sourceEvent)

	// Different fingerprint is a genuine edit, not an echo.
	matched, _, err = repo.MatchEcho(entities.PlatformNotion, "P1", "fp-2")
	require.NoError(t, err)
	assert.False(t, matched)

	// Same fingerprint on another entity is unrelated.
	matched, _, err = repo.MatchEcho(entities.PlatformNotion, "P2", "fp-1")
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestInducedWriteExpiry(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.RecordInducedWrite(entities.PlatformNotion, "P1", "fp-1", "ev-1", -time.Second)
	require.NoError(t, err)

	matched, _, err := repo.MatchEcho(entities.PlatformNotion, "P1", "fp-1")
	require.NoError(t, err)
	assert.False(t, matched)

	deleted, err := repo.PruneExpiredInducedWrites()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestHasAuthoritativeChangeSince(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	event := pendingEvent("ev-1", "")
	event.Fingerprint = "fp-new"
	require.NoError(t, repo.RecordPending(event))
	require.NoError(t, repo.MarkProcessed("ev-1", entities.OutcomeRelayed))

	since := time.Now().Add(-time.Minute)

	// A relayed change with a different fingerprint counts as divergence.
	diverged, err := repo.HasAuthoritativeChangeSince(entities.PlatformGitHub, "42", &since, "fp-old")
	require.NoError(t, err)
	assert.True(t, diverged)

	// The fingerprint the mapping already reflects does not.
	diverged, err = repo.HasAuthoritativeChangeSince(entities.PlatformGitHub, "42", &since, "fp-new")
	require.NoError(t, err)
	assert.False(t, diverged)

	// Changes before the last sync are already accounted for.
	future := time.Now().Add(time.Minute)
	diverged, err = repo.HasAuthoritativeChangeSince(entities.PlatformGitHub, "42", &future, "fp-old")
	require.NoError(t, err)
	assert.False(t, diverged)
}

func TestStats(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.RecordPending(pendingEvent("ev-1", "")))
	require.NoError(t, repo.RecordPending(pendingEvent("ev-2", "")))
	require.NoError(t, repo.RecordPending(pendingEvent("ev-3", "")))
	require.NoError(t, repo.MarkProcessed("ev-1", entities.OutcomeRelayed))
	require.NoError(t, repo.MarkFailed("ev-2", entities.OutcomeRelayFailed, "boom"))

	pending, processed, failed, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
	assert.Equal(t, int64(1), processed)
	assert.Equal(t, int64(1), failed)
}
