// Command consolidate runs one consolidation pass over the four
// department submissions and writes the master dataset CSV. It is the
// batch entry point; the web server triggers the same pipeline on
// demand.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/josephfalocco/finance-consolidation-dashboard/internal/config"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/consolidate"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/infrastructure"
	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "consolidation failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	consolidator := consolidate.New(cfg, consolidate.NewStore(), nil, logger)

	ds, err := consolidator.Run(context.Background())
	if err != nil {
		return err
	}

	logger.Info("consolidation complete",
		slog.String("run_id", ds.RunID),
		slog.String("output", cfg.OutputPath()),
		slog.Int("transactions", len(ds.Transactions)))

	printReport(ds)
	return nil
}

func printReport(ds *domain.Dataset) {
	fmt.Printf("run %s: %d transactions -> master dataset\n", ds.RunID, len(ds.Transactions))
	for _, sub := range ds.Submissions {
		if sub.Failed() {
			fmt.Printf("  %-12s FAILED: %s\n", sub.Department, sub.Error)
			continue
		}
		fmt.Printf("  %-12s read=%d kept=%d dropped=%d tagged=%d skipped=%d\n",
			sub.Department, sub.RowsRead, sub.RowsKept, sub.RowsDropped, sub.RowsTagged, sub.RowsSkipped)
	}
	if len(ds.Dropped) > 0 {
		fmt.Printf("dropped rows:\n")
		for _, issue := range ds.Dropped {
			fmt.Printf("  %s\n", issue)
		}
	}
}
