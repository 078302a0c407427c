// parent-accounts maps an organization's account hierarchy: which
// accounts hang off a parent, exported to CSV for support follow-up.
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
	"github.com/ignite/support-toolkit/internal/orgs"
	"github.com/ignite/support-toolkit/internal/pkg/csvutil"
	"github.com/ignite/support-toolkit/internal/pkg/logger"
	"github.com/ignite/support-toolkit/internal/reconciler"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		orgID      = flag.String("org", "", "organization ID (required)")
		outPath    = flag.String("out", "", "output CSV path (default parent_accounts_<timestamp>.csv)")
		allAccts   = flag.Bool("all", false, "export every account, not just those with a parent")
	)
	flag.Parse()

	if *orgID == "" {
		fmt.Fprintln(os.Stderr, "Usage: parent-accounts -org <organization-id> [-out file.csv] [-all]")
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

	log := logger.New(logger.ParseLevel(cfg.Log.Level), cfg.Log.Redact())
	svc := orgs.NewService(nerdgraph.NewClient(cfg.NerdGraph.APIKey, cfg.NerdGraph.Region, cfg.NerdGraph.Timeout()))
	svc.SetLogger(log)

	fmt.Println("=========================================================")
	fmt.Println(" Organization Account Hierarchy")
	fmt.Println("=========================================================")
	fmt.Printf("Organization: %s\n", *orgID)
	fmt.Println("---------------------------------------------------------")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	accounts, err := svc.ListAccounts(ctx, *orgID)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "\nInterrupted.")
			os.Exit(reconciler.ExitCancelled)
		}
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	selected := accounts
	if !*allAccts {
		selected = orgs.WithParent(accounts)
	}

	fmt.Printf("Accounts in organization: %d\n", len(accounts))
	fmt.Printf("Accounts with a parent:   %d\n", len(orgs.WithParent(accounts)))

	for _, a := range selected {
		parent := "-"
		if a.ParentID != nil {
			parent = fmt.Sprintf("%d", *a.ParentID)
		}
		fmt.Printf("  %-12d %-40s parent=%-12s %s/%s\n", a.ID, a.Name, parent, a.RegionCode, a.Status)
	}

	path := *outPath
	if path == "" {
		path = fmt.Sprintf("parent_accounts_%s.csv", time.Now().Format("20060102_150405"))
	}
	if err := csvutil.WriteAll(path, orgs.CSVHeader(), orgs.CSVRows(selected)); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: writing %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Println("---------------------------------------------------------")
	fmt.Printf(" Exported %d account(s) to %s\n", len(selected), path)
}
