package processed

import (
	"os"
	"sync"
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
	dbPath := "./test_processed_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath+"?_journal=WAL&_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.ProcessedEvent{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestCheckAndRecord_FreshThenDuplicate(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	result, err := repo.CheckAndRecord("ev-1", "hash-a", entities.PlatformGitHub)
	require.NoError(t, err)
	assert.Equal(t, Fresh, result)

	// Same content redelivered under a different delivery id is still
	// a duplicate.
	result, err = repo.CheckAndRecord("ev-2", "hash-a", entities.PlatformGitHub)
	require.NoError(t, err)
	assert.Equal(t, Duplicate, result)
}

func TestCheckAndRecord_DifferentHashesAdmitted(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	result, err := repo.CheckAndRecord("ev-1", "hash-a", entities.PlatformGitHub)
	require.NoError(t, err)
	assert.Equal(t, Fresh, result)

	result, err = repo.CheckAndRecord("ev-1", "hash-b", entities.PlatformNotion)
	require.NoError(t, err)
	assert.Equal(t, Fresh, result)
}

func TestCheckAndRecord_ConcurrentDeliveriesAdmitOne(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	const deliveries = 8
	results := make([]GateResult, deliveries)
	errs := make([]error, deliveries)

	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.CheckAndRecord("ev-1", "hash-a", entities.PlatformGitHub)
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i := 0; i < deliveries; i++ {
		require.NoError(t, errs[i])
		if results[i] == Fresh {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
}

func TestSeen(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	seen, err := repo.Seen("hash-a")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = repo.CheckAndRecord("ev-1", "hash-a", entities.PlatformGitHub)
	require.NoError(t, err)

	seen, err = repo.Seen("hash-a")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestPruneOlderThan(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.CheckAndRecord("ev-1", "hash-a", entities.PlatformGitHub)
	require.NoError(t, err)
	_, err = repo.CheckAndRecord("ev-2", "hash-b", entities.PlatformGitHub)
	require.NoError(t, err)

	deleted, err := repo.PruneOlderThan(time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	seen, err := repo.Seen("hash-a")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestGateResultString(t *testing.T) {
	assert.Equal(t, "fresh", Fresh.String())
	assert.Equal(t, "duplicate", Duplicate.String())
}
