// Package mappings provides database operations for the cross-platform
// entity mapping registry.
//
// FindOrCreate is the single place where the unique
// (source platform, source entity id) invariant is enforced: a creation
// that loses a race re-reads the winning row instead of surfacing an
// error or duplicating the pair.
//
// # Usage
//
//	repo := mappings.NewRepository(db)
//	mapping, err := repo.FindOrCreate(entities.PlatformGitHub, "42", url)
package mappings

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/example/syncbridge/internal/entities"
)

// Repository handles all entity mapping database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new mapping repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindBySource retrieves the mapping for a source pair.
func (r *Repository) FindBySource(platform entities.Platform, entityID string) (*entities.EntityMapping, error) {
	var mapping entities.EntityMapping
	err := r.db.Where("source_platform = ? AND source_entity_id = ?", platform, entityID).First(&mapping).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// FindByTarget retrieves the mapping bound to a knowledge-base page.
// Used for relays originating on the knowledge-base side.
func (r *Repository) FindByTarget(targetPageID string) (*entities.EntityMapping, error) {
	var mapping entities.EntityMapping
	err := r.db.Where("target_page_id = ?", targetPageID).First(&mapping).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// FindOrCreate returns the mapping for a source pair, creating it when
// the entity has never been seen. Concurrent creations for the same pair
// resolve to the same row: the loser of the insert race re-reads the
// winner instead of failing.
func (r *Repository) FindOrCreate(platform entities.Platform, entityID, entityURL string) (*entities.EntityMapping, error) {
	mapping, err := r.FindBySource(platform, entityID)
	if err == nil {
		return mapping, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := entities.EntityMapping{
		SourcePlatform:  platform,
		SourceEntityID:  entityID,
		SourceEntityURL: entityURL,
		SyncEnabled:     true,
	}
	createErr := r.db.Create(&created).Error
	if createErr == nil {
		return &created, nil
	}
	if errors.Is(createErr, gorm.ErrDuplicatedKey) {
		// Lost the race; the winning row is authoritative.
		return r.FindBySource(platform, entityID)
	}
	return nil, createErr
}

// BindTarget records the knowledge-base page created for a mapping.
func (r *Repository) BindTarget(mapping *entities.EntityMapping, targetPageID, targetDatabaseID string) error {
	mapping.TargetPageID = &targetPageID
	mapping.TargetDatabaseID = targetDatabaseID
	return r.db.Model(&entities.EntityMapping{}).
		Where("id = ?", mapping.ID).
		Updates(map[string]any{
			"target_page_id":     targetPageID,
			"target_database_id": targetDatabaseID,
			"updated_at":         time.Now(),
		}).Error
}

// RecordSync updates the mapping after a successful relay.
func (r *Repository) RecordSync(mapping *entities.EntityMapping, fingerprint string) error {
	now := time.Now()
	mapping.LastFingerprint = fingerprint
	mapping.LastSyncedAt = &now
	return r.db.Model(&entities.EntityMapping{}).
		Where("id = ?", mapping.ID).
		Updates(map[string]any{
			"last_fingerprint": fingerprint,
			"last_synced_at":   now,
			"updated_at":       now,
		}).Error
}

// Disable turns sync off for a mapping without deleting its history.
func (r *Repository) Disable(mapping *entities.EntityMapping) error {
	mapping.SyncEnabled = false
	return r.setEnabled(mapping.ID, false)
}

// Enable turns sync back on for a mapping.
func (r *Repository) Enable(mapping *entities.EntityMapping) error {
	mapping.SyncEnabled = true
	return r.setEnabled(mapping.ID, true)
}

func (r *Repository) setEnabled(id uint, enabled bool) error {
	return r.db.Model(&entities.EntityMapping{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sync_enabled": enabled,
			"updated_at":   time.Now(),
		}).Error
}

// GetByID retrieves a mapping by primary key.
func (r *Repository) GetByID(id uint) (*entities.EntityMapping, error) {
	var mapping entities.EntityMapping
	err := r.db.First(&mapping, id).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// List returns paginated mappings ordered by most recently updated.
func (r *Repository) List(limit, offset int) ([]entities.EntityMapping, int64, error) {
	var rows []entities.EntityMapping
	var total int64

	if err := r.db.Model(&entities.EntityMapping{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := r.db.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}
