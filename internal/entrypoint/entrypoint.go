package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/syncbridge/internal/config"
	"github.com/example/syncbridge/internal/connectors"
	"github.com/example/syncbridge/internal/database"
	"github.com/example/syncbridge/internal/database/deadletters"
	"github.com/example/syncbridge/internal/database/ledger"
	"github.com/example/syncbridge/internal/database/mappings"
	"github.com/example/syncbridge/internal/database/processed"
	"github.com/example/syncbridge/internal/database/syncconfig"
	http_controllers "github.com/example/syncbridge/internal/http"
	"github.com/example/syncbridge/internal/orchestrator"
	"github.com/example/syncbridge/internal/scheduler"
	"github.com/example/syncbridge/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background machinery before the listener so in-flight relays
	// finish against a live database.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the engine together and serves until shutdown. The registry
// carries whichever platform connectors the build configured; an empty
// registry still serves intake and dead-letters every relay attempt.
func Run(cfg *config.Config, registry *connectors.Registry, version string) {
	log.Printf("Starting syncbridge v%s", version)

	if cfg.Admin.Token == "" {
		log.Printf("WARNING: Admin token is not set. Mutating admin endpoints are disabled. Set 'ADMIN_TOKEN' environment variable to enable.")
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Seed runtime tunables from environment defaults; existing rows win.
	if err := db.SeedSyncConfigs(syncconfig.DefaultEntries(cfg.Engine, cfg.Retention)); err != nil {
		log.Fatalf("Failed to seed sync configs: %v", err)
	}

	gateRepo := processed.NewRepository(db.DB)
	mappingRepo := mappings.NewRepository(db.DB)
	ledgerRepo := ledger.NewRepository(db.DB)
	deadLetterRepo := deadletters.NewRepository(db.DB)
	configRepo := syncconfig.NewRepository(db.DB)

	if registry == nil {
		registry = connectors.NewRegistry()
	}

	orch := orchestrator.New(
		gateRepo,
		mappingRepo,
		ledgerRepo,
		deadLetterRepo,
		configRepo,
		registry,
		cfg.Engine,
	)

	// Task queue and retention scheduler
	var taskClient *tasks.Client
	var retention *scheduler.RetentionScheduler
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewReplayDeadLetterQueue(orch),
			tasks.NewPruneProcessedEventsQueue(gateRepo),
			tasks.NewPruneInducedWritesQueue(ledgerRepo),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		retention = scheduler.NewRetentionScheduler(taskClient, configRepo, cfg.Retention)
		if err := retention.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start retention scheduler: %v", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Database:     db,
		Orchestrator: orch,
		Mappings:     mappingRepo,
		DeadLetters:  deadLetterRepo,
		Ledger:       ledgerRepo,
		SyncConfigs:  configRepo,
		TaskClient:   taskClient,
		AdminToken:   cfg.Admin.Token,
		Version:      version,
	}
	router := http_controllers.NewRouter(routerCfg)

	Serve(router, cfg, func(ctx context.Context) {
		if retention != nil {
			retention.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		if taskCtxCancel != nil {
			taskCtxCancel()
		}
	})
}
