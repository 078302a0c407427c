// suppression-remove deletes suppressions across every configured
// SendGrid account. Targets are a single address, a CSV of addresses,
// or a whole domain; removal is gated behind a dry-run flag and an
// interactive confirmation unless explicitly disabled.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/support-toolkit/internal/config"
	"github.com/ignite/support-toolkit/internal/pkg/csvutil"
	"github.com/ignite/support-toolkit/internal/pkg/logger"
	"github.com/ignite/support-toolkit/internal/pkg/prompt"
	"github.com/ignite/support-toolkit/internal/reconciler"
	"github.com/ignite/support-toolkit/internal/sendgrid"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		email      = flag.String("email", "", "single email address to remove")
		csvPath    = flag.String("csv", "", "CSV file of email addresses to remove")
		domain     = flag.String("domain", "", "remove every address of this domain, e.g. @example.com")
		lists      = flag.String("lists", "all", "comma-separated lists: global,bounces,blocks,spam_reports,invalid_emails")
		dryRun     = flag.Bool("dry-run", false, "report what would be removed without deleting anything")
		noConfirm  = flag.Bool("no-confirm", false, "skip the interactive confirmation")
		delayMS    = flag.Int("delay", 0, "override per-call delay in milliseconds")
		outPath    = flag.String("out", "", "write the full report to this CSV file")
		logLevel   = flag.String("log-level", "", "override log level (DEBUG, INFO, WARN, ERROR)")
	)
	flag.Parse()

	targets := 0
	for _, set := range []bool{*email != "", *csvPath != "", *domain != ""} {
		if set {
			targets++
		}
	}
	if targets != 1 {
		fmt.Fprintln(os.Stderr, "Usage: suppression-remove (-email addr | -csv file | -domain @example.com) [flags]")
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
	if *delayMS > 0 {
		cfg.Suppression.DelayMillis = *delayMS
	}
	log := logger.New(logger.ParseLevel(cfg.Log.Level), cfg.Log.Redact())

	kinds, err := sendgrid.ParseKinds(strings.Split(*lists, ","))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	req := reconciler.RemoveRequest{
		Email:   *email,
		Domain:  *domain,
		DryRun:  *dryRun,
		Confirm: !*noConfirm && !*dryRun,
	}
	if *csvPath != "" {
		emails, err := csvutil.ReadEmails(*csvPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: reading %s: %v\n", *csvPath, err)
			os.Exit(1)
		}
		if len(emails) == 0 {
			fmt.Fprintf(os.Stderr, "FATAL: no email addresses found in %s\n", *csvPath)
			os.Exit(1)
		}
		req.Emails = emails
	}

	accounts := buildAccounts(cfg)

	fmt.Println("=========================================================")
	fmt.Println(" SendGrid Suppression Removal")
	fmt.Println("=========================================================")
	fmt.Printf("Accounts: %d   Lists: %d\n", len(accounts), len(kinds))
	if *dryRun {
		fmt.Println("Mode:     DRY RUN (nothing will be deleted)")
	}
	if *domain != "" {
		fmt.Println("Domain scans read every suppression on every account; this can take a while.")
	}
	fmt.Println("---------------------------------------------------------")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := uuid.NewString()
	if f, path, err := log.OpenFileSink(cfg.Log.Dir, "suppression_remove", runID); err == nil {
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
		reconciler.WithConfirmer(reconciler.ConsoleConfirmer(os.Stdout, prompt.NewTermPrompter())),
	)

	rep, err := rec.Remove(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "\nInterrupted.")
			os.Exit(reconciler.ExitCancelled)
		}
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	reconciler.WriteConsole(os.Stdout, rep)

	// Domain runs always leave a CSV behind; they are the runs nobody
	// wants to repeat just to recover the result.
	exportPath := *outPath
	if exportPath == "" && *domain != "" {
		name := strings.TrimPrefix(rep.Target, "@")
		exportPath = fmt.Sprintf("domain_removal_%s_%s.csv", strings.ReplaceAll(name, ".", "_"), time.Now().Format("20060102_150405"))
	}
	if exportPath != "" && len(rep.Results) > 0 {
		if err := csvutil.WriteAll(exportPath, reconciler.CSVHeader(), rep.CSVRows()); err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: writing report CSV: %v\n", err)
		} else {
			fmt.Printf("Report CSV: %s\n", exportPath)
		}
	}

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
