package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/syncbridge/internal/entities"
)

func setupTestDB(t *testing.T) (*Database, func()) {
	dbPath := "./test_database_" + t.Name() + ".db"

	db, err := NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestNewDatabase_MigratesAllTables(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for _, table := range []string{
		"entity_mappings", "processed_events", "sync_events",
		"dead_letters", "induced_writes", "sync_configs",
	} {
		assert.True(t, db.DB.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestSeedSyncConfigs_IdempotentAndPreservesEdits(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	seed := []entities.SyncConfig{
		{Key: "source_of_truth", Value: "github", Category: "policy"},
		{Key: "max_relay_retries", Value: "3", Category: "retry"},
	}
	require.NoError(t, db.SeedSyncConfigs(seed))

	// Operator changes a value; reseeding must not clobber it.
	require.NoError(t, db.DB.Model(&entities.SyncConfig{}).
		Where("key = ?", "source_of_truth").
		Update("value", "notion").Error)

	require.NoError(t, db.SeedSyncConfigs(seed))

	var cfg entities.SyncConfig
	require.NoError(t, db.DB.Where("key = ?", "source_of_truth").First(&cfg).Error)
	assert.Equal(t, "notion", cfg.Value)

	var count int64
	require.NoError(t, db.DB.Model(&entities.SyncConfig{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
