// account-prep clears alerting configuration from accounts slated for
// deletion: alert policies, notification channels, and destinations,
// from a CSV of account IDs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/support-toolkit/internal/alerts"
	"github.com/ignite/support-toolkit/internal/config"
	"github.com/ignite/support-toolkit/internal/nerdgraph"
	"github.com/ignite/support-toolkit/internal/pkg/csvutil"
	"github.com/ignite/support-toolkit/internal/pkg/logger"
	"github.com/ignite/support-toolkit/internal/pkg/prompt"
	"github.com/ignite/support-toolkit/internal/reconciler"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		csvPath    = flag.String("csv", "", "CSV file of account IDs (required)")
		accountID  = flag.Int("account", 0, "single account ID instead of a CSV")
		what       = flag.String("what", "all", "what to purge: policies, channels, destinations, or all")
		yes        = flag.Bool("yes", false, "skip confirmation")
	)
	flag.Parse()

	if *csvPath == "" && *accountID == 0 {
		fmt.Fprintln(os.Stderr, "Usage: account-prep (-csv accounts.csv | -account 1234567) [-what policies|channels|destinations|all]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var kinds []alerts.Kind
	switch *what {
	case "policies":
		kinds = []alerts.Kind{alerts.KindPolicies}
	case "channels":
		kinds = []alerts.Kind{alerts.KindChannels}
	case "destinations":
		kinds = []alerts.Kind{alerts.KindDestinations}
	case "all":
		// Channels before destinations: a destination with attached
		// channels cannot be deleted.
		kinds = []alerts.Kind{alerts.KindPolicies, alerts.KindChannels, alerts.KindDestinations}
	default:
		fmt.Fprintf(os.Stderr, "FATAL: unknown -what value %q\n", *what)
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

	accountIDs := []int{*accountID}
	if *csvPath != "" {
		accountIDs, err = csvutil.ReadAccountIDs(*csvPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: reading %s: %v\n", *csvPath, err)
			os.Exit(1)
		}
		if len(accountIDs) == 0 {
			fmt.Fprintf(os.Stderr, "FATAL: no account IDs found in %s\n", *csvPath)
			os.Exit(1)
		}
	}

	log := logger.New(logger.ParseLevel(cfg.Log.Level), cfg.Log.Redact())
	svc := alerts.NewService(nerdgraph.NewClient(cfg.NerdGraph.APIKey, cfg.NerdGraph.Region, cfg.NerdGraph.Timeout()))
	svc.SetLogger(log)

	fmt.Println("=========================================================")
	fmt.Println(" Account Deletion Prep — alerting purge")
	fmt.Println("=========================================================")
	fmt.Printf("Accounts: %d   Purging: %s\n", len(accountIDs), *what)
	fmt.Println("---------------------------------------------------------")

	if !*yes {
		ok, err := prompt.NewTermPrompter().Confirm(
			fmt.Sprintf("Delete %s from %d account(s)? (yes/no): ", *what, len(accountIDs)))
		if err != nil || !ok {
			fmt.Println("Aborted.")
			os.Exit(reconciler.ExitCancelled)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	failures := 0
	for _, id := range accountIDs {
		if ctx.Err() != nil {
			fmt.Println("\nInterrupted.")
			os.Exit(reconciler.ExitCancelled)
		}
		fmt.Printf("\nAccount %d:\n", id)
		for _, kind := range kinds {
			sum := svc.Purge(ctx, id, kind)
			mark := "✓"
			if sum.Failed > 0 || (sum.Found == 0 && len(sum.Errors) > 0) {
				mark = "✗"
				failures++
			}
			fmt.Printf("  %s %-13s found=%d deleted=%d failed=%d\n", mark, string(kind), sum.Found, sum.Deleted, sum.Failed)
			for _, e := range sum.Errors {
				fmt.Printf("      %s\n", e)
			}
		}
	}

	fmt.Println("\n---------------------------------------------------------")
	if failures > 0 {
		fmt.Printf(" DONE with %d failure(s)\n", failures)
		os.Exit(1)
	}
	fmt.Println(" DONE — all purges succeeded")
}
