// Package connectors defines the contract between the sync engine and
// the platform-specific clients that execute relay writes.
//
// The engine never speaks a platform's wire protocol itself: it hands a
// connector an action plus an entity snapshot and receives the target
// entity id and the fingerprint that was applied. Connectors classify
// their failures as transient (retried with backoff) or terminal
// (dead-lettered immediately).
package connectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/syncbridge/internal/entities"
	"github.com/example/syncbridge/internal/fingerprint"
)

// ApplyResult is what a connector reports after a successful write.
type ApplyResult struct {
	// TargetEntityID is the id of the entity written on the target
	// platform. For a create this is the newly created page/issue id.
	TargetEntityID string

	// TargetDatabaseID is the containing collection on platforms that
	// have one (knowledge-base databases); empty elsewhere.
	TargetDatabaseID string

	// AppliedFingerprint is the fingerprint of the content as written.
	AppliedFingerprint string
}

// Connector applies a change observed on one platform to its mapped
// counterpart on another. Implementations must be safe for concurrent
// use and idempotent per applied fingerprint: the engine guarantees
// at-least-once dispatch, not exactly-once.
type Connector interface {
	// Platform is the target platform this connector writes to.
	Platform() entities.Platform

	// ApplyChange executes the relay write. The context carries the
	// engine's per-attempt dispatch timeout. sourceEventID names the
	// triggering change event; platforms with write metadata should
	// embed it so the resulting induced event can be traced back.
	ApplyChange(ctx context.Context, sourceEventID string, mapping *entities.EntityMapping, action entities.ActionType, snapshot fingerprint.Snapshot) (*ApplyResult, error)
}

// Registry holds one connector per target platform.
type Registry struct {
	mu         sync.RWMutex
	connectors map[entities.Platform]Connector
}

// NewRegistry creates an empty connector registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[entities.Platform]Connector)}
}

// Register adds a connector for its platform, replacing any previous one.
func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[c.Platform()] = c
}

// For returns the connector for a target platform.
func (r *Registry) For(platform entities.Platform) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[platform]
	if !ok {
		return nil, fmt.Errorf("no connector registered for platform %s", platform)
	}
	return c, nil
}
