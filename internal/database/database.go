// Package database owns the engine's SQLite store: schema migration,
// connection setup and seeding of runtime configuration defaults.
// All mutation of the shared tables goes through the repository
// subpackages; nothing in the engine caches rows authoritatively.
package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/syncbridge/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the SQLite store and migrates all engine tables.
// TranslateError is on so that unique-constraint races surface as
// gorm.ErrDuplicatedKey, which the idempotency gate and the mapping
// registry rely on to detect concurrent inserts.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath+"?_journal=WAL&_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.EntityMapping{},
		&entities.ProcessedEvent{},
		&entities.SyncEvent{},
		&entities.DeadLetter{},
		&entities.InducedWrite{},
		&entities.SyncConfig{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SeedSyncConfigs inserts the given configuration rows where no row with
// the same key exists yet. Existing values are left untouched so that
// operator changes survive restarts.
func (d *Database) SeedSyncConfigs(configs []entities.SyncConfig) error {
	for _, cfg := range configs {
		var existing entities.SyncConfig
		result := d.DB.Where("key = ?", cfg.Key).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&cfg).Error; err != nil {
				return fmt.Errorf("failed to seed sync config %s: %w", cfg.Key, err)
			}
			log.Printf("Seeded sync config: %s = %s", cfg.Key, cfg.Value)
		} else if result.Error != nil {
			return result.Error
		}
	}
	return nil
}
