package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Admin
		Engine
		Retention
		Tasks
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Admin struct {
		Token string // Bearer token for admin endpoints; empty disables them
	}
	Engine struct {
		SourceOfTruth   string        // Platform name treated as authoritative on divergence
		MaxRelayRetries int           // Connector dispatch attempts before dead-lettering
		RetryBackoff    time.Duration // Initial backoff between dispatch attempts (doubles per attempt)
		DispatchTimeout time.Duration // Per-attempt connector call timeout
		EchoWindow      time.Duration // How long an induced write can match an inbound echo
		LoopDepthLimit  int           // Max induced-event ancestry depth before loop_detected
	}
	Retention struct {
		ProcessedEventDays int    // Days to keep idempotency witness rows
		PruneSchedule      string // Cron format: "*/15 * * * *" = every 15 minutes
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8199)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("admin_token", "")

	// Engine defaults. These seed the sync_configs table on first start
	// and can be changed at runtime through the admin API.
	v.SetDefault("source_of_truth", "github")
	v.SetDefault("max_relay_retries", 3)
	v.SetDefault("retry_backoff", "1s")
	v.SetDefault("dispatch_timeout", "30s")
	v.SetDefault("echo_window", "5m")
	v.SetDefault("loop_depth_limit", 5)

	// Retention defaults
	v.SetDefault("processed_event_retention_days", 30)
	v.SetDefault("prune_schedule", "*/15 * * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Admin: Admin{
			Token: v.GetString("ADMIN_TOKEN"),
		},
		Engine: Engine{
			SourceOfTruth:   v.GetString("SOURCE_OF_TRUTH"),
			MaxRelayRetries: v.GetInt("MAX_RELAY_RETRIES"),
			RetryBackoff:    v.GetDuration("RETRY_BACKOFF"),
			DispatchTimeout: v.GetDuration("DISPATCH_TIMEOUT"),
			EchoWindow:      v.GetDuration("ECHO_WINDOW"),
			LoopDepthLimit:  v.GetInt("LOOP_DEPTH_LIMIT"),
		},
		Retention: Retention{
			ProcessedEventDays: v.GetInt("PROCESSED_EVENT_RETENTION_DAYS"),
			PruneSchedule:      v.GetString("PRUNE_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
