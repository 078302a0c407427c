// deploy-markers creates change-tracking deployment markers in bulk
// from a CSV of entity GUIDs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/support-toolkit/internal/config"
	"github.com/ignite/support-toolkit/internal/markers"
	"github.com/ignite/support-toolkit/internal/nerdgraph"
	"github.com/ignite/support-toolkit/internal/pkg/csvutil"
	"github.com/ignite/support-toolkit/internal/pkg/logger"
	"github.com/ignite/support-toolkit/internal/reconciler"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		csvPath    = flag.String("csv", "", "CSV file of entity GUIDs (required)")
		version    = flag.String("version", "", "deployment version (default from config)")
	)
	flag.Parse()

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: deploy-markers -csv guids.csv [-version 1.2.3]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.NerdGraph.APIKey == "" {
		fmt.Fprintln(os.Stderr, "FATAL: a GraphQL API key is required (NERDGRAPH_API_KEY or config.yaml)")
		os.Exit(1)
	}
	if *version == "" {
		*version = cfg.Markers.DefaultVersion
	}

	guids, err := csvutil.ReadGUIDs(*csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: reading %s: %v\n", *csvPath, err)
		os.Exit(1)
	}
	if len(guids) == 0 {
		fmt.Fprintf(os.Stderr, "FATAL: no entity GUIDs found in %s\n", *csvPath)
		os.Exit(1)
	}

	log := logger.New(logger.ParseLevel(cfg.Log.Level), cfg.Log.Redact())
	svc := markers.NewService(nerdgraph.NewClient(cfg.NerdGraph.APIKey, cfg.NerdGraph.Region, cfg.NerdGraph.Timeout()))
	svc.SetLogger(log)

	fmt.Println("=========================================================")
	fmt.Println(" Bulk Deployment Markers")
	fmt.Println("=========================================================")
	fmt.Printf("Entities: %d   Version: %s\n", len(guids), *version)
	fmt.Println("---------------------------------------------------------")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	results := svc.CreateFromGUIDs(ctx, guids, *version)
	if ctx.Err() != nil {
		fmt.Println("\nInterrupted.")
		os.Exit(reconciler.ExitCancelled)
	}

	failed := 0
	for _, r := range results {
		if r.OK {
			fmt.Printf("  ✓ %s → deployment %s\n", r.EntityGUID, r.DeploymentID)
		} else {
			failed++
			fmt.Printf("  ✗ %s — %s\n", r.EntityGUID, r.Error)
		}
	}

	fmt.Println("---------------------------------------------------------")
	if failed > 0 {
		fmt.Printf(" DONE: %d created, %d failed\n", len(results)-failed, failed)
		os.Exit(1)
	}
	fmt.Printf(" DONE: %d marker(s) created\n", len(results))
}
