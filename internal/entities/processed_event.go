package entities

import (
	"time"
)

// ProcessedEvent is the idempotency witness for an admitted inbound event.
// The unique ContentHash index is what makes the gate atomic: a second
// insert with the same hash fails with a duplicate-key error regardless
// of the platform-assigned delivery id.
//
// Rows are never updated. Retention pruning is handled by a scheduled
// task, not by the gate itself.
type ProcessedEvent struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	EventID        string    `gorm:"size:256;index" json:"event_id"`
	ContentHash    string    `gorm:"size:64;uniqueIndex" json:"content_hash"`
	SourcePlatform Platform  `gorm:"size:50;index" json:"source_platform"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (ProcessedEvent) TableName() string {
	return "processed_events"
}
