// Package main scans cover storage for objects no curation references and
// optionally deletes them.
//
// Usage:
//
//	go run ./cmd/orphans -dry-run     # report only
//	go run ./cmd/orphans              # delete the orphans found
//	go run ./cmd/orphans -json        # machine-readable result
//
// Connection settings come from the same flags, environment, and .env file
// as the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/samber/do/v2"

	"github.com/tabsverse/tabsverse-server/internal/di"
	"github.com/tabsverse/tabsverse-server/internal/service"
)

var (
	dryRun = flag.Bool("dry-run", false, "Report orphans without deleting them")
	asJSON = flag.Bool("json", false, "Print the result as JSON")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "orphans: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	injector := di.NewToolContainer()
	defer injector.Shutdown() //nolint:errcheck // Best-effort close on exit

	// Config parses flag.CommandLine, which includes the flags above.
	orphans, err := do.Invoke[*service.OrphanService](injector)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := orphans.Cleanup(ctx, *dryRun)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result)
	return nil
}

func printResult(result *service.CleanupResult) {
	report := result.Report

	fmt.Printf("Stored covers:     %d\n", report.Stored)
	fmt.Printf("Referenced covers: %d\n", report.Referenced)
	if report.Recent > 0 {
		fmt.Printf("Within grace:      %d\n", report.Recent)
	}
	fmt.Printf("Orphans:           %d (%s)\n", len(report.Orphans), humanize.Bytes(uint64(report.OrphanBytes)))

	for _, ref := range report.Unresolved {
		fmt.Printf("  unresolved reference: curation %s -> %s\n", ref.CurationID, ref.URL)
	}
	for _, path := range report.Orphans {
		fmt.Printf("  %s\n", path)
	}

	switch {
	case len(report.Orphans) == 0:
		fmt.Println("Nothing to clean up.")
	case result.DryRun:
		fmt.Println("Dry run, nothing deleted. Re-run without -dry-run to remove them.")
	default:
		fmt.Printf("Deleted %s.\n", humanize.Comma(int64(len(result.Deleted))))
	}
}
