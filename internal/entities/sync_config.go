package entities

import (
	"time"
)

// SyncConfig is a keyed runtime tunable read by the resolver and the
// orchestrator. Values are seeded from environment defaults at startup
// and mutated only through the administrative API, never by the engine.
type SyncConfig struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	Category    string    `gorm:"size:50" json:"category"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (SyncConfig) TableName() string {
	return "sync_configs"
}

// Known sync config keys
const (
	ConfigKeySourceOfTruth      = "source_of_truth"
	ConfigKeyMaxRelayRetries    = "max_relay_retries"
	ConfigKeyRetryBackoff       = "retry_backoff"
	ConfigKeyDispatchTimeout    = "dispatch_timeout"
	ConfigKeyEchoWindow         = "echo_window"
	ConfigKeyLoopDepthLimit     = "loop_depth_limit"
	ConfigKeyProcessedRetention = "processed_event_retention"
)

// Config categories
const (
	ConfigCategoryPolicy    = "policy"
	ConfigCategoryRetry     = "retry"
	ConfigCategoryRetention = "retention"
)
