package entities

import (
	"time"
)

// EntityMapping links a source entity on one platform to its counterpart
// page on the knowledge-base side. One row per synchronized pair.
//
// TargetPageID is a pointer so that unbound mappings (created before the
// first successful relay returns a page id) do not collide on the unique
// index: NULLs are distinct, empty strings are not.
//
// Rows are never hard-deleted: disabling sync via SyncEnabled preserves
// the relay history for the pair.
type EntityMapping struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	SourcePlatform   Platform   `gorm:"size:50;uniqueIndex:idx_source_pair" json:"source_platform"`
	SourceEntityID   string     `gorm:"size:256;uniqueIndex:idx_source_pair" json:"source_entity_id"`
	SourceEntityURL  string     `gorm:"size:2048" json:"source_entity_url,omitempty"`
	TargetPageID     *string    `gorm:"size:256;uniqueIndex" json:"target_page_id,omitempty"`
	TargetDatabaseID string     `gorm:"size:256" json:"target_database_id,omitempty"`
	SyncEnabled      bool       `gorm:"default:true" json:"sync_enabled"`
	LastFingerprint  string     `gorm:"size:64" json:"last_fingerprint,omitempty"`
	LastSyncedAt     *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (EntityMapping) TableName() string {
	return "entity_mappings"
}

// Bound reports whether the mapping has been bound to a target page yet.
func (m *EntityMapping) Bound() bool {
	return m.TargetPageID != nil && *m.TargetPageID != ""
}

// TargetPage returns the bound target page id, or "" when unbound.
func (m *EntityMapping) TargetPage() string {
	if m.TargetPageID == nil {
		return ""
	}
	return *m.TargetPageID
}
