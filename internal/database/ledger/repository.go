// Package ledger provides database operations for the sync-event ledger
// and the loop-prevention metadata attached to it.
//
// Every relay attempt becomes a sync_events row created in pending state
// and transitioned to processed or failed exactly once. Induced writes
// (relay writes made by this engine) are additionally recorded in a
// short-lived induced_writes table so that the webhook a target platform
// emits in response can be recognised as an echo and dropped.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/example/syncbridge/internal/entities"
)

// Repository handles all sync-event and induced-write database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new ledger repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// RecordPending inserts a new ledger row in pending state. The row
// bridges the window between dispatch and outcome: a crash mid-dispatch
// leaves a recoverable pending record rather than a stuck lock.
func (r *Repository) RecordPending(event *entities.SyncEvent) error {
	event.Status = entities.SyncEventPending
	return r.db.Create(event).Error
}

// MarkProcessed finalizes a ledger row with the given outcome.
func (r *Repository) MarkProcessed(eventID string, outcome entities.SyncEventOutcome) error {
	return r.finalize(eventID, entities.SyncEventProcessed, outcome, "")
}

// MarkFailed finalizes a ledger row as failed with the last error seen.
func (r *Repository) MarkFailed(eventID string, outcome entities.SyncEventOutcome, errMsg string) error {
	return r.finalize(eventID, entities.SyncEventFailed, outcome, errMsg)
}

func (r *Repository) finalize(eventID string, status entities.SyncEventStatus, outcome entities.SyncEventOutcome, errMsg string) error {
	now := time.Now()
	updates := map[string]any{
		"status":       status,
		"outcome":      outcome,
		"processed_at": now,
	}
	if errMsg != "" {
		updates["error"] = errMsg
	}
	result := r.db.Model(&entities.SyncEvent{}).
		Where("event_id = ? AND status = ?", eventID, entities.SyncEventPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("sync event %s is not pending", eventID)
	}
	return nil
}

// GetByEventID retrieves a ledger row by its event id.
func (r *Repository) GetByEventID(eventID string) (*entities.SyncEvent, error) {
	var event entities.SyncEvent
	err := r.db.Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// AncestryDepth walks the parent_event_id chain of an induced event and
// returns the number of ancestors found, stopping at limit. A chain that
// reaches the limit is reported as limit; callers treat that as a loop.
func (r *Repository) AncestryDepth(parentEventID string, limit int) (int, error) {
	depth := 0
	current := parentEventID
	for current != "" && depth < limit {
		depth++
		var parent entities.SyncEvent
		err := r.db.Select("parent_event_id").Where("event_id = ?", current).First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Chain ends at an event this engine never recorded.
			return depth, nil
		}
		if err != nil {
			return depth, err
		}
		current = parent.ParentEventID
	}
	return depth, nil
}

// RecordInducedWrite remembers a relay write so the webhook it induces
// on the target platform can be matched as an echo until expiry.
func (r *Repository) RecordInducedWrite(target entities.Platform, entityID, fingerprint, sourceEventID string, window time.Duration) error {
	write := entities.InducedWrite{
		TargetPlatform: target,
		EntityID:       entityID,
		Fingerprint:    fingerprint,
		SourceEventID:  sourceEventID,
		ExpiresAt:      time.Now().Add(window),
	}
	return r.db.Create(&write).Error
}

// MatchEcho reports whether an inbound event from the given platform is
// an unexpired echo of a write this engine made. On a match it returns
// the event id of the relay that caused the write.
func (r *Repository) MatchEcho(platform entities.Platform, entityID, fingerprint string) (bool, string, error) {
	var write entities.InducedWrite
	err := r.db.Where(
		"target_platform = ? AND entity_id = ? AND fingerprint = ? AND expires_at > ?",
		platform, entityID, fingerprint, time.Now(),
	).Order("created_at DESC").First(&write).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}
	return true, write.SourceEventID, nil
}

// PruneExpiredInducedWrites deletes induced-write rows past their expiry.
// Returns the number of deleted rows.
func (r *Repository) PruneExpiredInducedWrites() (int64, error) {
	result := r.db.Where("expires_at < ?", time.Now()).Delete(&entities.InducedWrite{})
	return result.RowsAffected, result.Error
}

// HasAuthoritativeChangeSince reports whether a processed relay from the
// given platform touched the entity after the mapping's last sync and
// left a different fingerprint. The resolver uses this to detect that
// the authoritative side has diverged.
func (r *Repository) HasAuthoritativeChangeSince(platform entities.Platform, entityID string, since *time.Time, fingerprint string) (bool, error) {
	query := r.db.Model(&entities.SyncEvent{}).
		Where("source_platform = ? AND entity_id = ? AND status = ? AND outcome = ? AND fingerprint <> ?",
			platform, entityID, entities.SyncEventProcessed, entities.OutcomeRelayed, fingerprint)
	if since != nil {
		query = query.Where("processed_at > ?", *since)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Stats returns ledger counts by status for the operator stats endpoint.
func (r *Repository) Stats() (pending, processed, failed int64, err error) {
	if err = r.count(entities.SyncEventPending, &pending); err != nil {
		return
	}
	if err = r.count(entities.SyncEventProcessed, &processed); err != nil {
		return
	}
	err = r.count(entities.SyncEventFailed, &failed)
	return
}

func (r *Repository) count(status entities.SyncEventStatus, out *int64) error {
	return r.db.Model(&entities.SyncEvent{}).Where("status = ?", status).Count(out).Error
}

// ListRecent returns the most recent ledger rows, newest first.
func (r *Repository) ListRecent(limit int) ([]entities.SyncEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []entities.SyncEvent
	err := r.db.Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
