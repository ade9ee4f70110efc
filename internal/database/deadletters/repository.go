// Package deadletters provides database operations for the dead-letter
// store of terminally failed relays.
//
// Replay is an explicit operator action, never automatic. A replay that
// fails again leaves the row failed with its retry count incremented; it
// does not reopen a replayed row.
package deadletters

import (
	"time"

	"gorm.io/gorm"

	"github.com/example/syncbridge/internal/entities"
)

// Repository handles all dead-letter database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new dead-letter repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Store preserves a terminally failed relay for later replay.
func (r *Repository) Store(payload string, platform entities.Platform, entityID string, reason entities.FailureReason, lastError string) (*entities.DeadLetter, error) {
	letter := entities.DeadLetter{
		Payload:        payload,
		SourcePlatform: platform,
		EntityID:       entityID,
		Reason:         reason,
		LastError:      lastError,
		Status:         entities.DeadLetterFailed,
	}
	if err := r.db.Create(&letter).Error; err != nil {
		return nil, err
	}
	return &letter, nil
}

// GetByID retrieves a dead letter by primary key.
func (r *Repository) GetByID(id uint) (*entities.DeadLetter, error) {
	var letter entities.DeadLetter
	err := r.db.First(&letter, id).Error
	if err != nil {
		return nil, err
	}
	return &letter, nil
}

// List returns paginated dead letters, optionally filtered by status,
// newest first.
func (r *Repository) List(status entities.DeadLetterStatus, limit, offset int) ([]entities.DeadLetter, int64, error) {
	var letters []entities.DeadLetter
	var total int64

	query := r.db.Model(&entities.DeadLetter{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&letters).Error
	return letters, total, err
}

// ListFailedIDs returns the ids of every letter still awaiting replay.
func (r *Repository) ListFailedIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.DeadLetter{}).
		Where("status = ?", entities.DeadLetterFailed).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// MarkReplayed records a successful replay. The transition is one-way.
func (r *Repository) MarkReplayed(id uint) error {
	return r.db.Model(&entities.DeadLetter{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     entities.DeadLetterReplayed,
			"updated_at": time.Now(),
		}).Error
}

// RecordReplayFailure increments the retry count and stores the latest
// error, leaving the letter failed.
func (r *Repository) RecordReplayFailure(id uint, lastError string) error {
	return r.db.Model(&entities.DeadLetter{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"retries":    gorm.Expr("retries + 1"),
			"last_error": lastError,
			"status":     entities.DeadLetterFailed,
			"updated_at": time.Now(),
		}).Error
}

// CountByStatus returns dead-letter counts for the stats endpoint.
func (r *Repository) CountByStatus() (failed, replayed int64, err error) {
	err = r.db.Model(&entities.DeadLetter{}).Where("status = ?", entities.DeadLetterFailed).Count(&failed).Error
	if err != nil {
		return
	}
	err = r.db.Model(&entities.DeadLetter{}).Where("status = ?", entities.DeadLetterReplayed).Count(&replayed).Error
	return
}
