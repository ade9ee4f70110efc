package entities

import (
	"time"
)

// SyncEventStatus is the lifecycle state of a relay attempt.
type SyncEventStatus string

const (
	SyncEventPending   SyncEventStatus = "pending"
	SyncEventProcessed SyncEventStatus = "processed"
	SyncEventFailed    SyncEventStatus = "failed"
)

// SyncEventOutcome records what actually happened to a processed event.
// A processed row with a skip outcome never reached a connector.
type SyncEventOutcome string

const (
	OutcomeRelayed           SyncEventOutcome = "relayed"
	OutcomeEchoSuppressed    SyncEventOutcome = "echo_suppressed"
	OutcomeSkippedUnchanged  SyncEventOutcome = "skipped_unchanged"
	OutcomeSkippedSuperseded SyncEventOutcome = "skipped_superseded"
	OutcomeSkippedDisabled   SyncEventOutcome = "skipped_disabled"
	OutcomeSkippedUnmapped   SyncEventOutcome = "skipped_unmapped"
	OutcomeLoopDetected      SyncEventOutcome = "loop_detected"
	OutcomeRelayFailed       SyncEventOutcome = "relay_failed"
)

// SyncEvent is one row per relay attempt in the ledger.
//
// The IsSyncInduced/ParentEventID pair is the loop-prevention chain: an
// event caused by one of this engine's own relay writes references the
// triggering event, and the orchestrator refuses to relay any event whose
// ancestry exceeds the configured depth.
type SyncEvent struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	EventID        string           `gorm:"size:256;uniqueIndex" json:"event_id"`
	ContentHash    string           `gorm:"size:64;index" json:"content_hash"`
	Fingerprint    string           `gorm:"size:64" json:"fingerprint,omitempty"`
	SourcePlatform Platform         `gorm:"size:50;index" json:"source_platform"`
	TargetPlatform Platform         `gorm:"size:50" json:"target_platform"`
	EntityType     string           `gorm:"size:50" json:"entity_type"`
	EntityID       string           `gorm:"size:256;index" json:"entity_id"`
	Action         ActionType       `gorm:"size:30" json:"action"`
	Direction      Direction        `gorm:"size:30" json:"direction"`
	Status         SyncEventStatus  `gorm:"size:20;index" json:"status"`
	Outcome        SyncEventOutcome `gorm:"size:30" json:"outcome,omitempty"`
	IsSyncInduced  bool             `gorm:"default:false" json:"is_sync_induced"`
	ParentEventID  string           `gorm:"size:256;index" json:"parent_event_id,omitempty"`
	Error          string           `gorm:"type:text" json:"error,omitempty"`
	CreatedAt      time.Time        `gorm:"index" json:"created_at"`
	ProcessedAt    *time.Time       `json:"processed_at,omitempty"`
}

func (SyncEvent) TableName() string {
	return "sync_events"
}
