// Package fingerprint derives content digests from entity snapshots.
//
// Two snapshots with identical meaningful content produce the same digest
// regardless of field ordering; any change to a meaningful field changes
// the digest. Volatile fields (view counters, "last seen" timestamps and
// the like) are stripped before hashing so they can never trigger a relay.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// volatileFields are snapshot keys that carry no meaningful content and
// change on every read. They are excluded from the digest.
var volatileFields = map[string]struct{}{
	"last_viewed_at":  {},
	"last_edited_by":  {},
	"view_count":      {},
	"delivery_id":     {},
	"received_at":     {},
	"webhook_attempt": {},
}

// Snapshot is the parsed field set of an entity at a point in time.
type Snapshot map[string]any

// Compute returns the hex SHA-256 digest of the snapshot's meaningful
// fields. The canonical form is JSON with lexicographically sorted keys
// (encoding/json sorts map keys at every nesting level), so field order
// in the source payload never affects the result.
func Compute(snapshot Snapshot) (string, error) {
	meaningful := make(map[string]any, len(snapshot))
	for key, value := range snapshot {
		if _, volatile := volatileFields[key]; volatile {
			continue
		}
		meaningful[key] = value
	}

	canonical, err := json.Marshal(meaningful)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize snapshot: %w", err)
	}

	digest := sha256.Sum256(canonical)
	return hex.EncodeToString(digest[:]), nil
}

// ComputeRaw hashes an opaque payload. Used for the idempotency gate's
// content hash, where the whole delivered body is the identity.
func ComputeRaw(payload []byte) string {
	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:])
}
