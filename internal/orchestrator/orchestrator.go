// Package orchestrator composes the sync engine: idempotency gate,
// mapping registry, conflict resolver, connector dispatch with bounded
// retries, the sync-event ledger and the dead-letter store.
//
// ProcessEvent is invoked concurrently by independent inbound-event
// handlers; unrelated entities proceed fully in parallel. No lock is
// held across a connector call: the pending ledger row bridges the
// dispatch window, so a crash mid-dispatch leaves a recoverable record
// rather than a stuck lock.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/example/syncbridge/internal/config"
	"github.com/example/syncbridge/internal/connectors"
	"github.com/example/syncbridge/internal/database/deadletters"
	"github.com/example/syncbridge/internal/database/ledger"
	"github.com/example/syncbridge/internal/database/mappings"
	"github.com/example/syncbridge/internal/database/processed"
	"github.com/example/syncbridge/internal/database/syncconfig"
	"github.com/example/syncbridge/internal/entities"
	"github.com/example/syncbridge/internal/fingerprint"
	"github.com/example/syncbridge/internal/resolver"
)

// Result reports what happened to an inbound event.
type Result struct {
	EventID      string                    `json:"event_id"`
	Duplicate    bool                      `json:"duplicate"`
	Outcome      entities.SyncEventOutcome `json:"outcome,omitempty"`
	Relayed      bool                      `json:"relayed"`
	DeadLetterID uint                      `json:"dead_letter_id,omitempty"`
}

// Orchestrator wires the engine's components together.
type Orchestrator struct {
	gate        *processed.Repository
	mappings    *mappings.Repository
	ledger      *ledger.Repository
	deadLetters *deadletters.Repository
	configs     *syncconfig.Repository
	resolver    *resolver.Resolver
	connectors  *connectors.Registry
	fallback    config.Engine
}

// New creates an orchestrator over the given repositories and connector
// registry. fallback supplies engine tunables when the sync_configs
// table has no value for a key.
func New(
	gate *processed.Repository,
	mappingRepo *mappings.Repository,
	ledgerRepo *ledger.Repository,
	deadLetterRepo *deadletters.Repository,
	configRepo *syncconfig.Repository,
	registry *connectors.Registry,
	fallback config.Engine,
) *Orchestrator {
	o := &Orchestrator{
		gate:        gate,
		mappings:    mappingRepo,
		ledger:      ledgerRepo,
		deadLetters: deadLetterRepo,
		configs:     configRepo,
		connectors:  registry,
		fallback:    fallback,
	}
	o.resolver = resolver.New(func() entities.Platform {
		return configRepo.SourceOfTruth(fallback)
	})
	return o
}

// ProcessEvent runs an inbound event through the full orchestration
// path. The returned error is non-nil only for validation failures and
// persistence failures; relay failures are absorbed into the dead-letter
// store and reported through the Result.
func (o *Orchestrator) ProcessEvent(ctx context.Context, evt *InboundEvent) (*Result, error) {
	if err := evt.Validate(); err != nil {
		return nil, err
	}

	contentHash := evt.ContentHash()
	gateResult, err := o.gate.CheckAndRecord(evt.EventID, contentHash, evt.SourcePlatform)
	if err != nil {
		// Never advance past the gate on a storage failure: the event
		// was not admitted, so the caller retries delivery and nothing
		// is dead-lettered for it.
		return nil, persistence("idempotency check", err)
	}
	if gateResult == processed.Duplicate {
		log.Printf("Event %s from %s is a duplicate, dropping", evt.EventID, evt.SourcePlatform)
		return &Result{EventID: evt.EventID, Duplicate: true}, nil
	}

	fp, err := fingerprint.Compute(evt.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint event %s: %w", evt.EventID, err)
	}

	row := &entities.SyncEvent{
		EventID:        evt.EventID,
		ContentHash:    contentHash,
		Fingerprint:    fp,
		SourcePlatform: evt.SourcePlatform,
		TargetPlatform: o.targetPlatformGuess(evt),
		EntityType:     evt.EntityType,
		EntityID:       evt.EntityID,
		Action:         evt.Action,
		Direction:      evt.Direction(),
		IsSyncInduced:  evt.ParentEventID != "",
		ParentEventID:  evt.ParentEventID,
	}
	if err := o.ledger.RecordPending(row); err != nil {
		return nil, persistence("ledger write", err)
	}

	// Echo suppression: a webhook whose fingerprint matches a write this
	// engine just made is our own relay coming back, not new information.
	echoed, inducedBy, err := o.ledger.MatchEcho(evt.SourcePlatform, evt.EntityID, fp)
	if err != nil {
		return nil, persistence("echo lookup", err)
	}
	if echoed {
		log.Printf("Event %s is an echo of relay %s, suppressing", evt.EventID, inducedBy)
		return o.finishProcessed(evt, row, entities.OutcomeEchoSuppressed)
	}

	// Hard ceiling against residual loops the echo check fails to catch.
	if evt.ParentEventID != "" {
		limit := o.configs.LoopDepthLimit(o.fallback)
		depth, depthErr := o.ledger.AncestryDepth(evt.ParentEventID, limit)
		if depthErr != nil {
			return nil, persistence("ancestry walk", depthErr)
		}
		if depth+1 > limit {
			return o.finishLoopDetected(evt, row, depth+1)
		}
	}

	mapping, outcome, err := o.resolveMapping(evt)
	if err != nil {
		return nil, err
	}
	if outcome != "" {
		return o.finishProcessed(evt, row, outcome)
	}

	if !mapping.SyncEnabled {
		return o.finishProcessed(evt, row, entities.OutcomeSkippedDisabled)
	}

	diverged, err := o.authoritativeDiverged(evt, mapping)
	if err != nil {
		return nil, persistence("divergence lookup", err)
	}

	switch o.resolver.Decide(mapping, fp, evt.SourcePlatform, diverged) {
	case resolver.SkipUnchanged:
		return o.finishProcessed(evt, row, entities.OutcomeSkippedUnchanged)
	case resolver.SkipNotAuthoritative:
		log.Printf("Event %s from %s superseded by source of truth", evt.EventID, evt.SourcePlatform)
		return o.finishProcessed(evt, row, entities.OutcomeSkippedSuperseded)
	}

	return o.dispatch(ctx, evt, row, mapping, fp)
}

// targetPlatformGuess picks the relay target recorded on the ledger row.
// For knowledge-base events the true target tracker is only known once
// the mapping is resolved, so the row carries the primary tracker;
// dispatch itself uses targetFor, which consults the mapping.
func (o *Orchestrator) targetPlatformGuess(evt *InboundEvent) entities.Platform {
	if evt.SourcePlatform.IsKnowledgeBase() {
		return entities.PlatformGitHub
	}
	return entities.PlatformNotion
}

// resolveMapping finds or creates the mapping for the event. A non-empty
// outcome means the event cannot be relayed and should be finalized with
// that outcome instead.
func (o *Orchestrator) resolveMapping(evt *InboundEvent) (*entities.EntityMapping, entities.SyncEventOutcome, error) {
	if evt.SourcePlatform.IsKnowledgeBase() {
		mapping, err := o.mappings.FindByTarget(evt.EntityID)
		if err != nil {
			if isNotFound(err) {
				// A knowledge-base page nobody ever relayed to is not
				// part of any synchronized pair.
				return nil, entities.OutcomeSkippedUnmapped, nil
			}
			return nil, "", persistence("mapping lookup", err)
		}
		return mapping, "", nil
	}

	mapping, err := o.mappings.FindOrCreate(evt.SourcePlatform, evt.EntityID, sourceURL(evt))
	if err != nil {
		return nil, "", persistence("mapping find-or-create", err)
	}
	return mapping, "", nil
}

// authoritativeDiverged checks whether the source-of-truth side has
// relayed a different fingerprint for this entity since the mapping's
// last sync. Only meaningful for events from the non-authoritative side.
func (o *Orchestrator) authoritativeDiverged(evt *InboundEvent, mapping *entities.EntityMapping) (bool, error) {
	authority := o.configs.SourceOfTruth(o.fallback)
	if evt.SourcePlatform == authority {
		return false, nil
	}

	var authorityEntityID string
	switch {
	case mapping.SourcePlatform == authority:
		authorityEntityID = mapping.SourceEntityID
	case authority.IsKnowledgeBase() && mapping.Bound():
		authorityEntityID = mapping.TargetPage()
	default:
		// The authoritative platform is not part of this pair.
		return false, nil
	}

	return o.ledger.HasAuthoritativeChangeSince(authority, authorityEntityID, mapping.LastSyncedAt, mapping.LastFingerprint)
}

// dispatch performs the connector call with bounded retries and
// exponential backoff, then records the outcome.
func (o *Orchestrator) dispatch(ctx context.Context, evt *InboundEvent, row *entities.SyncEvent, mapping *entities.EntityMapping, fp string) (*Result, error) {
	target := o.targetFor(evt, mapping)
	connector, err := o.connectors.For(target)
	if err != nil {
		return o.finishDeadLettered(evt, row, entities.ReasonTerminalFailure, err)
	}

	attempts := o.configs.MaxRelayRetries(o.fallback)
	if attempts < 1 {
		attempts = 1
	}
	backoff := o.configs.RetryBackoff(o.fallback)
	timeout := o.configs.DispatchTimeout(o.fallback)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return o.finishDeadLettered(evt, row, entities.ReasonRetriesExhausted, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		applied, applyErr := connector.ApplyChange(attemptCtx, evt.EventID, mapping, evt.Action, evt.Snapshot)
		cancel()

		if applyErr == nil {
			return o.finishRelayed(evt, row, mapping, target, fp, applied)
		}

		lastErr = applyErr
		if connectors.IsTerminal(applyErr) {
			return o.finishDeadLettered(evt, row, entities.ReasonTerminalFailure, applyErr)
		}
		log.Printf("Relay of event %s to %s failed (attempt %d/%d): %v",
			evt.EventID, target, attempt+1, attempts, applyErr)
	}

	return o.finishDeadLettered(evt, row, entities.ReasonRetriesExhausted, lastErr)
}

// finishRelayed records the successful relay: bind an unbound mapping to
// the page the connector created, advance the mapping's fingerprint,
// remember the induced write for echo detection and finalize the ledger.
func (o *Orchestrator) finishRelayed(evt *InboundEvent, row *entities.SyncEvent, mapping *entities.EntityMapping, target entities.Platform, fp string, applied *connectors.ApplyResult) (*Result, error) {
	if !mapping.Bound() && applied.TargetEntityID != "" && target.IsKnowledgeBase() {
		if err := o.mappings.BindTarget(mapping, applied.TargetEntityID, applied.TargetDatabaseID); err != nil {
			return nil, persistence("mapping bind", err)
		}
	}

	appliedFP := applied.AppliedFingerprint
	if appliedFP == "" {
		appliedFP = fp
	}
	if err := o.mappings.RecordSync(mapping, appliedFP); err != nil {
		return nil, persistence("mapping sync record", err)
	}

	window := o.configs.EchoWindow(o.fallback)
	targetEntityID := applied.TargetEntityID
	if targetEntityID == "" {
		targetEntityID = o.targetEntityID(evt, mapping, target)
	}
	if err := o.ledger.RecordInducedWrite(target, targetEntityID, appliedFP, evt.EventID, window); err != nil {
		return nil, persistence("induced write record", err)
	}

	if err := o.ledger.MarkProcessed(row.EventID, entities.OutcomeRelayed); err != nil {
		return nil, persistence("ledger finalize", err)
	}

	log.Printf("Relayed event %s: %s/%s -> %s/%s", evt.EventID,
		evt.SourcePlatform, evt.EntityID, target, targetEntityID)

	return &Result{EventID: evt.EventID, Outcome: entities.OutcomeRelayed, Relayed: true}, nil
}

func (o *Orchestrator) finishProcessed(evt *InboundEvent, row *entities.SyncEvent, outcome entities.SyncEventOutcome) (*Result, error) {
	if err := o.ledger.MarkProcessed(row.EventID, outcome); err != nil {
		return nil, persistence("ledger finalize", err)
	}
	return &Result{EventID: evt.EventID, Outcome: outcome}, nil
}

func (o *Orchestrator) finishLoopDetected(evt *InboundEvent, row *entities.SyncEvent, depth int) (*Result, error) {
	errMsg := fmt.Sprintf("induced-event ancestry depth %d exceeds limit", depth)
	if err := o.ledger.MarkFailed(row.EventID, entities.OutcomeLoopDetected, errMsg); err != nil {
		return nil, persistence("ledger finalize", err)
	}

	letterID, err := o.deadLetter(evt, entities.ReasonLoopDetected, errMsg)
	if err != nil {
		return nil, err
	}

	log.Printf("Event %s dead-lettered: %s", evt.EventID, errMsg)
	return &Result{EventID: evt.EventID, Outcome: entities.OutcomeLoopDetected, DeadLetterID: letterID}, nil
}

func (o *Orchestrator) finishDeadLettered(evt *InboundEvent, row *entities.SyncEvent, reason entities.FailureReason, cause error) (*Result, error) {
	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
	}
	if err := o.ledger.MarkFailed(row.EventID, entities.OutcomeRelayFailed, errMsg); err != nil {
		return nil, persistence("ledger finalize", err)
	}

	letterID, err := o.deadLetter(evt, reason, errMsg)
	if err != nil {
		return nil, err
	}

	log.Printf("Event %s dead-lettered (%s): %s", evt.EventID, reason, errMsg)
	return &Result{EventID: evt.EventID, Outcome: entities.OutcomeRelayFailed, DeadLetterID: letterID}, nil
}

// deadLetter preserves the failure. A failed replay is routed back to
// its originating letter (retries +1) instead of minting a second row.
func (o *Orchestrator) deadLetter(evt *InboundEvent, reason entities.FailureReason, errMsg string) (uint, error) {
	if evt.ReplayOf != 0 {
		if err := o.deadLetters.RecordReplayFailure(evt.ReplayOf, errMsg); err != nil {
			return 0, persistence("dead letter update", err)
		}
		return evt.ReplayOf, nil
	}

	payload, marshalErr := json.Marshal(evt)
	if marshalErr != nil {
		return 0, fmt.Errorf("failed to serialize event %s for dead letter: %w", evt.EventID, marshalErr)
	}
	letter, err := o.deadLetters.Store(string(payload), evt.SourcePlatform, evt.EntityID, reason, errMsg)
	if err != nil {
		return 0, persistence("dead letter store", err)
	}
	return letter.ID, nil
}

// targetFor resolves the true relay target once the mapping is known.
func (o *Orchestrator) targetFor(evt *InboundEvent, mapping *entities.EntityMapping) entities.Platform {
	if evt.SourcePlatform.IsKnowledgeBase() {
		return mapping.SourcePlatform
	}
	return entities.PlatformNotion
}

// targetEntityID is the entity id on the target side, used to match a
// returning echo webhook.
func (o *Orchestrator) targetEntityID(evt *InboundEvent, mapping *entities.EntityMapping, target entities.Platform) string {
	if target.IsKnowledgeBase() {
		return mapping.TargetPage()
	}
	return mapping.SourceEntityID
}

func sourceURL(evt *InboundEvent) string {
	if url, ok := evt.Snapshot["url"].(string); ok {
		return url
	}
	return ""
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
