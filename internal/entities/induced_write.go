package entities

import (
	"time"
)

// InducedWrite is a short-lived record of a relay write this engine made
// against a target platform. When a webhook comes back from that platform
// for the same entity with the same fingerprint before ExpiresAt, the
// orchestrator classifies it as an echo of its own write and drops it.
//
// Rows are pruned after expiry by a scheduled task; the table stays
// bounded by the echo window, not by total traffic.
type InducedWrite struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TargetPlatform Platform  `gorm:"size:50;index:idx_induced_lookup" json:"target_platform"`
	EntityID       string    `gorm:"size:256;index:idx_induced_lookup" json:"entity_id"`
	Fingerprint    string    `gorm:"size:64;index:idx_induced_lookup" json:"fingerprint"`
	SourceEventID  string    `gorm:"size:256" json:"source_event_id"`
	ExpiresAt      time.Time `gorm:"index" json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

func (InducedWrite) TableName() string {
	return "induced_writes"
}
