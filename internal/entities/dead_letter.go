package entities

import (
	"time"
)

// DeadLetterStatus tracks the replay lifecycle of a terminally failed relay.
type DeadLetterStatus string

const (
	DeadLetterFailed   DeadLetterStatus = "failed"
	DeadLetterReplayed DeadLetterStatus = "replayed"
)

// FailureReason classifies why a relay was dead-lettered.
type FailureReason string

const (
	ReasonRetriesExhausted FailureReason = "retries_exhausted"
	ReasonTerminalFailure  FailureReason = "terminal_failure"
	ReasonLoopDetected     FailureReason = "loop_detected"
)

// DeadLetter preserves a relay that failed terminally, together with
// enough of the original payload to re-submit it through the full
// orchestration path. Rows are never auto-deleted; replay is an explicit
// operator action.
type DeadLetter struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	Payload        string           `gorm:"type:text" json:"payload"`
	SourcePlatform Platform         `gorm:"size:50;index" json:"source_platform"`
	EntityID       string           `gorm:"size:256;index" json:"entity_id"`
	Reason         FailureReason    `gorm:"size:50" json:"reason"`
	LastError      string           `gorm:"type:text" json:"last_error,omitempty"`
	Retries        int              `gorm:"default:0" json:"retries"`
	Status         DeadLetterStatus `gorm:"size:20;index" json:"status"`
	CreatedAt      time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (DeadLetter) TableName() string {
	return "dead_letters"
}
