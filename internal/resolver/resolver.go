// Package resolver decides whether an inbound change should be relayed,
// using the configured source-of-truth policy and fingerprint comparison.
//
// The fingerprint comparison, not arrival order, is the source of truth
// for "is this event new information": events for the same entity are
// last-fingerprint-wins, never sequence-numbered.
package resolver

import (
	"github.com/example/syncbridge/internal/entities"
)

// Decision is the resolver's verdict on an inbound change.
type Decision int

const (
	// Relay propagates the change to the mapped counterpart.
	Relay Decision = iota
	// SkipUnchanged drops a no-op: the fingerprint matches what was
	// last relayed, so a connector call would write nothing new.
	SkipUnchanged
	// SkipNotAuthoritative drops a non-authoritative change that has
	// been superseded by a diverging change on the source-of-truth
	// side. The superseded version is recorded, not merged.
	SkipNotAuthoritative
)

func (d Decision) String() string {
	switch d {
	case SkipUnchanged:
		return "skip_unchanged"
	case SkipNotAuthoritative:
		return "skip_not_authoritative"
	default:
		return "relay"
	}
}

// Resolver applies the single source-of-truth policy.
type Resolver struct {
	// SourceOfTruth returns the platform whose version wins when both
	// sides have diverged. A func so runtime config changes take effect
	// without rebuilding the resolver.
	SourceOfTruth func() entities.Platform
}

// New creates a resolver bound to a source-of-truth provider.
func New(sourceOfTruth func() entities.Platform) *Resolver {
	return &Resolver{SourceOfTruth: sourceOfTruth}
}

// Decide evaluates an inbound change against the mapping's last known
// state.
//
// origin is the platform the change was observed on. Changes from the
// non-authoritative side are still relayed (so the authoritative side
// learns of them) unless the authoritative side has itself diverged
// since the last recorded sync, in which case the non-authoritative
// change is superseded.
func (r *Resolver) Decide(mapping *entities.EntityMapping, newFingerprint string, origin entities.Platform, authoritativeDiverged bool) Decision {
	if mapping.LastFingerprint != "" && newFingerprint == mapping.LastFingerprint {
		return SkipUnchanged
	}

	if origin != r.SourceOfTruth() && authoritativeDiverged {
		return SkipNotAuthoritative
	}

	return Relay
}
