// Package interfaces contains compile-time interface implementation
// checks. These ensure that concrete types satisfy their interfaces at
// compile time, catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...
package interfaces

import (
	"github.com/example/syncbridge/internal/database/ledger"
	"github.com/example/syncbridge/internal/database/processed"
	"github.com/example/syncbridge/internal/orchestrator"
	"github.com/example/syncbridge/internal/scheduler"
	"github.com/example/syncbridge/internal/tasks"
)

// =============================================================================
// Background Tasks
// =============================================================================

// The orchestrator backs dead letter replay tasks
var _ tasks.DeadLetterReplayer = (*orchestrator.Orchestrator)(nil)

// Repositories back the retention prune tasks
var _ tasks.ProcessedEventPruner = (*processed.Repository)(nil)
var _ tasks.InducedWritePruner = (*ledger.Repository)(nil)

// =============================================================================
// Scheduling
// =============================================================================

// The task client is the scheduler's enqueue target
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
