package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/example/syncbridge/internal/config"
	"github.com/example/syncbridge/internal/database"
	"github.com/example/syncbridge/internal/database/ledger"
	"github.com/example/syncbridge/internal/database/processed"
)

// PruneCommand runs a retention pass directly against the database,
// useful when the server (and its scheduler) is not running.
type PruneCommand struct {
	DatabasePath  string
	RetentionDays int
}

func NewPruneCommand() *PruneCommand {
	return &PruneCommand{}
}

func (cmd *PruneCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.IntVar(&cmd.RetentionDays, "retention-days", 30, "Delete idempotency records older than this many days")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s prune [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete expired induced writes and idempotency records past retention.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.RetentionDays < 1 {
		fs.Usage()
		return fmt.Errorf("retention-days must be positive")
	}

	return nil
}

func (cmd *PruneCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cutoff := time.Now().AddDate(0, 0, -cmd.RetentionDays)
	prunedEvents, err := processed.NewRepository(db.DB).PruneOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune processed events: %w", err)
	}
	fmt.Printf("Pruned %d processed events older than %d days\n", prunedEvents, cmd.RetentionDays)

	prunedWrites, err := ledger.NewRepository(db.DB).PruneExpiredInducedWrites()
	if err != nil {
		return fmt.Errorf("failed to prune induced writes: %w", err)
	}
	fmt.Printf("Pruned %d expired induced writes\n", prunedWrites)

	return nil
}
