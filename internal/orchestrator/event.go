package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/example/syncbridge/internal/entities"
	"github.com/example/syncbridge/internal/fingerprint"
)

// InboundEvent is a parsed, already-authenticated change event handed to
// the engine by the webhook intake. The engine never sees raw wire
// payloads from either platform.
type InboundEvent struct {
	// EventID is the platform-assigned delivery id.
	EventID string `json:"event_id"`

	SourcePlatform entities.Platform   `json:"source_platform"`
	EntityType     string              `json:"entity_type"`
	EntityID       string              `json:"entity_id"`
	Action         entities.ActionType `json:"action"`

	// Snapshot is the meaningful-field view of the entity at event time.
	Snapshot fingerprint.Snapshot `json:"entity_snapshot"`

	// RawPayload is the delivered body, kept verbatim for the content
	// hash and for dead-letter replay.
	RawPayload []byte `json:"raw_payload,omitempty"`

	// ParentEventID is set when the source platform echoed back the
	// synthetic marker this engine embeds in its relay writes. A
	// non-empty value marks the event as sync-induced.
	ParentEventID string `json:"parent_event_id,omitempty"`

	// ReplayNonce and ReplayOf are set only by the replay path: the
	// nonce gives the re-submission a fresh identity at the idempotency
	// gate, and ReplayOf routes a renewed terminal failure back to the
	// originating dead letter instead of minting a second one.
	ReplayNonce string `json:"replay_nonce,omitempty"`
	ReplayOf    uint   `json:"replay_of,omitempty"`
}

// Validate rejects events naming platforms or actions outside the
// closed enumerations.
func (e *InboundEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event id is required")
	}
	if !e.SourcePlatform.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownPlatform, e.SourcePlatform)
	}
	if !e.Action.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownAction, e.Action)
	}
	if e.EntityID == "" {
		return fmt.Errorf("entity id is required")
	}
	return nil
}

// ContentHash derives the identity of the event's content for the
// idempotency gate. Two deliveries of the same content collide here
// regardless of delivery id; a replay's nonce deliberately breaks the
// collision so the re-submission is admitted as a brand-new event.
func (e *InboundEvent) ContentHash() string {
	body := e.RawPayload
	if len(body) == 0 {
		body, _ = json.Marshal(e.Snapshot)
	}
	if e.ReplayNonce != "" {
		return fingerprint.ComputeRaw(append([]byte(e.ReplayNonce+":"), body...))
	}
	return fingerprint.ComputeRaw(body)
}

// Direction returns the relay direction implied by the event's origin.
func (e *InboundEvent) Direction() entities.Direction {
	return entities.DirectionFor(e.SourcePlatform)
}
