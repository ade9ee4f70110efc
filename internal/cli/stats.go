package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/example/syncbridge/internal/config"
	"github.com/example/syncbridge/internal/database"
	"github.com/example/syncbridge/internal/database/deadletters"
	"github.com/example/syncbridge/internal/database/ledger"
	"github.com/example/syncbridge/internal/database/mappings"
)

// StatsCommand prints engine counters straight from the database, for
// checking on a deployment without going through the HTTP API.
type StatsCommand struct {
	DatabasePath string
}

func NewStatsCommand() *StatsCommand {
	return &StatsCommand{}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s stats [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print sync event, mapping and dead letter counts.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *StatsCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pending, processed, failed, err := ledger.NewRepository(db.DB).Stats()
	if err != nil {
		return fmt.Errorf("failed to read ledger stats: %w", err)
	}

	dlFailed, dlReplayed, err := deadletters.NewRepository(db.DB).CountByStatus()
	if err != nil {
		return fmt.Errorf("failed to read dead letter stats: %w", err)
	}

	_, totalMappings, err := mappings.NewRepository(db.DB).List(1, 0)
	if err != nil {
		return fmt.Errorf("failed to count mappings: %w", err)
	}

	fmt.Printf("=== Sync Events ===\n")
	fmt.Printf("Pending:   %d\n", pending)
	fmt.Printf("Processed: %d\n", processed)
	fmt.Printf("Failed:    %d\n", failed)
	fmt.Printf("\n=== Dead Letters ===\n")
	fmt.Printf("Failed:   %d\n", dlFailed)
	fmt.Printf("Replayed: %d\n", dlReplayed)
	fmt.Printf("\n=== Mappings ===\n")
	fmt.Printf("Total: %d\n", totalMappings)

	return nil
}
