package syncconfig

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/syncbridge/internal/config"
	"github.com/example/syncbridge/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_syncconfig_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath+"?_journal=WAL&_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.SyncConfig{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func fallbackEngine() config.Engine {
	return config.Engine{
		SourceOfTruth:   "github",
		MaxRelayRetries: 3,
		RetryBackoff:    time.Second,
		DispatchTimeout: 30 * time.Second,
		EchoWindow:      5 * time.Minute,
		LoopDepthLimit:  5,
	}
}

func seed(t *testing.T, repo *Repository) {
	entries := DefaultEntries(fallbackEngine(), config.Retention{ProcessedEventDays: 30})
	for _, entry := range entries {
		require.NoError(t, repo.db.Create(&entry).Error)
	}
}

func TestTypedAccessors_FallBackWhenUnseeded(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	engine := fallbackEngine()
	assert.Equal(t, entities.PlatformGitHub, repo.SourceOfTruth(engine))
	assert.Equal(t, 3, repo.MaxRelayRetries(engine))
	assert.Equal(t, 5, repo.LoopDepthLimit(engine))
	assert.Equal(t, 5*time.Minute, repo.EchoWindow(engine))
}

func TestTypedAccessors_ReadSeededValues(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seed(t, repo)

	require.NoError(t, repo.Set(entities.ConfigKeySourceOfTruth, "notion"))
	require.NoError(t, repo.Set(entities.ConfigKeyMaxRelayRetries, "7"))
	require.NoError(t, repo.Set(entities.ConfigKeyEchoWindow, "90s"))

	engine := fallbackEngine()
	assert.Equal(t, entities.PlatformNotion, repo.SourceOfTruth(engine))
	assert.Equal(t, 7, repo.MaxRelayRetries(engine))
	assert.Equal(t, 90*time.Second, repo.EchoWindow(engine))
}

func TestProcessedRetentionDays(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seed(t, repo)

	retention := config.Retention{ProcessedEventDays: 30}
	assert.Equal(t, 30, repo.ProcessedRetentionDays(retention))

	require.NoError(t, repo.Set(entities.ConfigKeyProcessedRetention, "7"))
	assert.Equal(t, 7, repo.ProcessedRetentionDays(retention))
}

func TestSet_RejectsUnknownKey(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seed(t, repo)

	err := repo.Set("not_a_tunable", "value")
	assert.Error(t, err)
}

func TestList_OrderedByCategory(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seed(t, repo)

	rows, err := repo.List()
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, entities.ConfigCategoryPolicy, rows[0].Category)
}

func TestMalformedValueFallsBack(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seed(t, repo)

	require.NoError(t, repo.Set(entities.ConfigKeyMaxRelayRetries, "not-a-number"))
	assert.Equal(t, 3, repo.MaxRelayRetries(fallbackEngine()))
}
