// suppression-check reports where an email address is suppressed
// across every configured SendGrid account and suppression list. It
// never mutates anything.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/ignite/support-toolkit/internal/config"
	"github.com/ignite/support-toolkit/internal/pkg/logger"
	"github.com/ignite/support-toolkit/internal/reconciler"
	"github.com/ignite/support-toolkit/internal/sendgrid"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		email      = flag.String("email", "", "email address to check (required)")
		lists      = flag.String("lists", "all", "comma-separated lists: global,bounces,blocks,spam_reports,invalid_emails")
		logLevel   = flag.String("log-level", "", "override log level (DEBUG, INFO, WARN, ERROR)")
	)
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "Usage: suppression-check -email user@example.com [-lists global,bounces]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: loading config: %v\n", err)
		os.Exit(1)
	}
	if len(cfg.Suppression.Accounts) == 0 {
		fmt.Fprintln(os.Stderr, "FATAL: no SendGrid accounts configured (set SENDGRID_<NAME>_KEY or config.yaml)")
		os.Exit(1)
	}

	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	log := logger.New(logger.ParseLevel(cfg.Log.Level), cfg.Log.Redact())

	kinds, err := sendgrid.ParseKinds(strings.Split(*lists, ","))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	accounts := buildAccounts(cfg)

	fmt.Println("=========================================================")
	fmt.Println(" SendGrid Suppression Check")
	fmt.Println("=========================================================")
	fmt.Printf("Accounts: %d   Lists: %d\n", len(accounts), len(kinds))
	fmt.Println("---------------------------------------------------------")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := uuid.NewString()
	if f, path, err := log.OpenFileSink(cfg.Log.Dir, "suppression_check", runID); err == nil {
		defer f.Close()
		fmt.Printf("Audit log: %s\n", path)
	} else {
		fmt.Fprintf(os.Stderr, "WARNING: audit log unavailable: %v\n", err)
	}

	rec := reconciler.New(accounts,
		reconciler.WithLists(kinds),
		reconciler.WithDelay(cfg.Suppression.Delay()),
		reconciler.WithLogger(log),
		reconciler.WithRunID(runID),
	)

	rep, err := rec.Check(ctx, *email)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "\nInterrupted.")
			os.Exit(reconciler.ExitCancelled)
		}
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	reconciler.WriteConsole(os.Stdout, rep)
	os.Exit(rep.ExitCode())
}

func buildAccounts(cfg *config.Config) []reconciler.Account {
	accounts := make([]reconciler.Account, 0, len(cfg.Suppression.Accounts))
	for _, a := range cfg.Suppression.Accounts {
		client := sendgrid.NewClient(a.APIKey, a.Region, cfg.Suppression.Timeout())
		client.SetPaging(cfg.Suppression.PageLimit, cfg.Suppression.MaxPages)
		accounts = append(accounts, reconciler.Account{Name: a.Name, Role: a.Role, API: client})
	}
	return accounts
}
