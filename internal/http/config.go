package http

import (
	"github.com/example/syncbridge/internal/database"
	"github.com/example/syncbridge/internal/database/deadletters"
	"github.com/example/syncbridge/internal/database/ledger"
	"github.com/example/syncbridge/internal/database/mappings"
	"github.com/example/syncbridge/internal/database/syncconfig"
	"github.com/example/syncbridge/internal/orchestrator"
	"github.com/example/syncbridge/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces a long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database     *database.Database
	Orchestrator *orchestrator.Orchestrator

	// Repositories backing the admin endpoints
	Mappings    *mappings.Repository
	DeadLetters *deadletters.Repository
	Ledger      *ledger.Repository
	SyncConfigs *syncconfig.Repository

	// Task queue client (optional; bulk replay degrades to synchronous
	// replay when absent)
	TaskClient *tasks.Client

	// Admin bearer token; empty disables the admin surface
	AdminToken string

	// Application info
	Version string
}
