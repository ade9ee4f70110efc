// Package processed implements the idempotency gate over the
// processed_events table.
//
// The gate is atomic against concurrent deliveries of the same content:
// admission is a single insert guarded by the unique content-hash index,
// and a duplicate-key failure is the Duplicate outcome, not an error.
package processed

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/example/syncbridge/internal/entities"
)

// GateResult is the outcome of an idempotency check.
type GateResult int

const (
	Fresh GateResult = iota
	Duplicate
)

func (g GateResult) String() string {
	if g == Duplicate {
		return "duplicate"
	}
	return "fresh"
}

// Repository handles all processed-event database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new processed-event repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CheckAndRecord admits an event exactly once per content hash. Two
// simultaneous deliveries of the same content cannot both see Fresh:
// the losing insert observes the winner's row through the unique index.
// Any other storage failure is returned as an error; the caller must
// not advance past the gate on such failure.
func (r *Repository) CheckAndRecord(eventID, contentHash string, platform entities.Platform) (GateResult, error) {
	record := entities.ProcessedEvent{
		EventID:        eventID,
		ContentHash:    contentHash,
		SourcePlatform: platform,
	}

	err := r.db.Create(&record).Error
	if err == nil {
		return Fresh, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Duplicate, nil
	}
	return Duplicate, fmt.Errorf("failed to record processed event: %w", err)
}

// Seen reports whether a content hash has already been admitted.
func (r *Repository) Seen(contentHash string) (bool, error) {
	var record entities.ProcessedEvent
	err := r.db.Where("content_hash = ?", contentHash).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PruneOlderThan removes witness rows past the retention horizon.
// Returns the number of deleted rows.
func (r *Repository) PruneOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&entities.ProcessedEvent{})
	return result.RowsAffected, result.Error
}
