// Package syncconfig provides database operations for runtime engine
// tunables, plus typed accessors with environment-config fallbacks.
//
// # Usage
//
//	repo := syncconfig.NewRepository(db)
//	platform := repo.SourceOfTruth(cfg.Engine)
package syncconfig

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/example/syncbridge/internal/config"
	"github.com/example/syncbridge/internal/entities"
)

// Repository handles all sync-config database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sync-config repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves a config value by key.
func (r *Repository) Get(key string) (*entities.SyncConfig, error) {
	var cfg entities.SyncConfig
	err := r.db.Where("key = ?", key).First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// List returns every config row ordered by category then key.
func (r *Repository) List() ([]entities.SyncConfig, error) {
	var rows []entities.SyncConfig
	err := r.db.Order("category ASC, key ASC").Find(&rows).Error
	return rows, err
}

// Set updates an existing config value. Unknown keys are rejected: the
// set of tunables is fixed by seeding, only values change at runtime.
func (r *Repository) Set(key, value string) error {
	result := r.db.Model(&entities.SyncConfig{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"value":      value,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("unknown sync config key: %s", key)
	}
	return nil
}

// SourceOfTruth returns the configured authoritative platform.
func (r *Repository) SourceOfTruth(fallback config.Engine) entities.Platform {
	if cfg, err := r.Get(entities.ConfigKeySourceOfTruth); err == nil && cfg.Value != "" {
		return entities.Platform(cfg.Value)
	}
	return entities.Platform(fallback.SourceOfTruth)
}

// MaxRelayRetries returns the dispatch attempt budget.
func (r *Repository) MaxRelayRetries(fallback config.Engine) int {
	return r.intValue(entities.ConfigKeyMaxRelayRetries, fallback.MaxRelayRetries)
}

// LoopDepthLimit returns the induced-event ancestry ceiling.
func (r *Repository) LoopDepthLimit(fallback config.Engine) int {
	return r.intValue(entities.ConfigKeyLoopDepthLimit, fallback.LoopDepthLimit)
}

// RetryBackoff returns the initial backoff between dispatch attempts.
func (r *Repository) RetryBackoff(fallback config.Engine) time.Duration {
	return r.durationValue(entities.ConfigKeyRetryBackoff, fallback.RetryBackoff)
}

// DispatchTimeout returns the per-attempt connector call timeout.
func (r *Repository) DispatchTimeout(fallback config.Engine) time.Duration {
	return r.durationValue(entities.ConfigKeyDispatchTimeout, fallback.DispatchTimeout)
}

// EchoWindow returns how long an induced write can match an echo.
func (r *Repository) EchoWindow(fallback config.Engine) time.Duration {
	return r.durationValue(entities.ConfigKeyEchoWindow, fallback.EchoWindow)
}

// ProcessedRetentionDays returns how many days idempotency records are
// kept before pruning.
func (r *Repository) ProcessedRetentionDays(fallback config.Retention) int {
	return r.intValue(entities.ConfigKeyProcessedRetention, fallback.ProcessedEventDays)
}

func (r *Repository) intValue(key string, fallback int) int {
	if cfg, err := r.Get(key); err == nil {
		if parsed, parseErr := strconv.Atoi(cfg.Value); parseErr == nil {
			return parsed
		}
	}
	return fallback
}

func (r *Repository) durationValue(key string, fallback time.Duration) time.Duration {
	if cfg, err := r.Get(key); err == nil {
		if parsed, parseErr := time.ParseDuration(cfg.Value); parseErr == nil {
			return parsed
		}
	}
	return fallback
}

// DefaultEntries builds the seed rows for a fresh database from the
// environment configuration.
func DefaultEntries(engine config.Engine, retention config.Retention) []entities.SyncConfig {
	return []entities.SyncConfig{
		{
			Key:         entities.ConfigKeySourceOfTruth,
			Value:       engine.SourceOfTruth,
			Category:    entities.ConfigCategoryPolicy,
			Description: "Platform whose version wins when both sides diverge",
		},
		{
			Key:         entities.ConfigKeyLoopDepthLimit,
			Value:       strconv.Itoa(engine.LoopDepthLimit),
			Category:    entities.ConfigCategoryPolicy,
			Description: "Max induced-event ancestry depth before an event is dead-lettered as a loop",
		},
		{
			Key:         entities.ConfigKeyEchoWindow,
			Value:       engine.EchoWindow.String(),
			Category:    entities.ConfigCategoryPolicy,
			Description: "How long an outbound write can match a returning webhook as an echo",
		},
		{
			Key:         entities.ConfigKeyMaxRelayRetries,
			Value:       strconv.Itoa(engine.MaxRelayRetries),
			Category:    entities.ConfigCategoryRetry,
			Description: "Connector dispatch attempts before a relay is dead-lettered",
		},
		{
			Key:         entities.ConfigKeyRetryBackoff,
			Value:       engine.RetryBackoff.String(),
			Category:    entities.ConfigCategoryRetry,
			Description: "Initial backoff between dispatch attempts, doubled per attempt",
		},
		{
			Key:         entities.ConfigKeyDispatchTimeout,
			Value:       engine.DispatchTimeout.String(),
			Category:    entities.ConfigCategoryRetry,
			Description: "Per-attempt timeout for a connector call",
		},
		{
			Key:         entities.ConfigKeyProcessedRetention,
			Value:       strconv.Itoa(retention.ProcessedEventDays),
			Category:    entities.ConfigCategoryRetention,
			Description: "Days to keep idempotency witness rows before pruning",
		},
	}
}
