// user-cleanup filters a user metadata export by account age and
// mass-deletes the users created before the cutoff.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/support-toolkit/internal/config"
	"github.com/ignite/support-toolkit/internal/nerdgraph"
	"github.com/ignite/support-toolkit/internal/pkg/csvutil"
	"github.com/ignite/support-toolkit/internal/pkg/logger"
	"github.com/ignite/support-toolkit/internal/pkg/prompt"
	"github.com/ignite/support-toolkit/internal/reconciler"
	"github.com/ignite/support-toolkit/internal/users"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		input      = flag.String("input", "", "user metadata JSON export (required)")
		olderThan  = flag.Int("older-than", 30, "delete users created more than this many days ago")
		dryRun     = flag.Bool("dry-run", false, "show who would be deleted without deleting")
		outPath    = flag.String("out", "", "write results to this CSV file")
		yes        = flag.Bool("yes", false, "skip confirmation")
	)
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: user-cleanup -input users.json [-older-than 30] [-dry-run]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: loading config: %v\n", err)
		os.Exit(1)
	}

	all, err := users.LoadMetadata(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -*olderThan)
	targets, stats := users.FilterOlderThan(all, cutoff)

	fmt.Println("=========================================================")
	fmt.Println(" Stale User Cleanup")
	fmt.Println("=========================================================")
	fmt.Printf("Export:                 %s\n", *input)
	fmt.Printf("Cutoff:                 %s (older than %d days)\n", cutoff.Format("2006-01-02"), *olderThan)
	fmt.Printf("Users in export:        %d\n", stats.Total)
	fmt.Printf("With creation date:     %d\n", stats.WithDate)
	fmt.Printf("Missing creation date:  %d (never deleted)\n", stats.MissingDate)
	fmt.Printf("Older than cutoff:      %d\n", stats.OlderThan)
	fmt.Println("---------------------------------------------------------")

	if len(targets) == 0 {
		fmt.Println("Nothing to delete.")
		return
	}

	for _, u := range targets {
		fmt.Printf("  %-40s created %s  id=%s\n", u.Email, u.CreatedAt.Format("2006-01-02"), u.ID)
	}

	if *dryRun {
		fmt.Printf("\nDRY RUN: %d user(s) would be deleted.\n", len(targets))
		return
	}

	if cfg.NerdGraph.APIKey == "" {
		fmt.Fprintln(os.Stderr, "FATAL: a GraphQL API key is required (NERDGRAPH_API_KEY or config.yaml)")
		os.Exit(1)
	}

	if !*yes {
		ok, err := prompt.NewTermPrompter().Confirm(
			fmt.Sprintf("\nPermanently delete %d user(s)? (yes/no): ", len(targets)))
		if err != nil || !ok {
			fmt.Println("Aborted.")
			os.Exit(reconciler.ExitCancelled)
		}
	}

	log := logger.New(logger.ParseLevel(cfg.Log.Level), cfg.Log.Redact())
	deleter := users.NewDeleter(nerdgraph.NewClient(cfg.NerdGraph.APIKey, cfg.NerdGraph.Region, cfg.NerdGraph.Timeout()))
	deleter.SetLogger(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	results := deleter.DeleteBatch(ctx, targets)

	failed := 0
	for _, r := range results {
		if r.OK {
			fmt.Printf("  ✓ %s\n", r.UserID)
		} else {
			failed++
			fmt.Printf("  ✗ %s — %s\n", r.UserID, r.Error)
		}
	}

	if *outPath != "" {
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			status := "deleted"
			if !r.OK {
				status = "failed"
			}
			rows = append(rows, []string{r.UserID, r.Email, status, r.Error})
		}
		if err := csvutil.WriteAll(*outPath, []string{"user_id", "email", "status", "error"}, rows); err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: writing %s: %v\n", *outPath, err)
		} else {
			fmt.Printf("\nResults CSV: %s\n", *outPath)
		}
	}

	fmt.Println("---------------------------------------------------------")
	if failed > 0 {
		fmt.Printf(" DONE: %d deleted, %d failed\n", len(results)-failed, failed)
		os.Exit(1)
	}
	fmt.Printf(" DONE: %d deleted\n", len(results))
}
