// scim-delete removes users from the authentication domain by email,
// interactively: look the user up, show what was found, ask, delete.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ignite/support-toolkit/internal/config"
	"github.com/ignite/support-toolkit/internal/pkg/logger"
	"github.com/ignite/support-toolkit/internal/pkg/prompt"
	"github.com/ignite/support-toolkit/internal/reconciler"
	"github.com/ignite/support-toolkit/internal/scim"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		email      = flag.String("email", "", "delete one user and exit (otherwise interactive)")
		yes        = flag.Bool("yes", false, "skip confirmation (only with -email)")
	)
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: loading config: %v\n", err)
		os.Exit(1)
	}

	token := cfg.SCIM.Token
	if token == "" {
		token, err = prompt.Secret("SCIM bearer token: ")
		if err != nil || token == "" {
			fmt.Fprintln(os.Stderr, "FATAL: a SCIM token is required (SCIM_TOKEN or config.yaml)")
			os.Exit(1)
		}
	}

	log := logger.New(logger.ParseLevel(cfg.Log.Level), cfg.Log.Redact())
	client := scim.NewClient(token, cfg.SCIM.Timeout())
	if cfg.SCIM.BaseURL != "" {
		client.SetBaseURL(strings.TrimRight(cfg.SCIM.BaseURL, "/") + "/scim/v2")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := prompt.NewTermPrompter()

	if *email != "" {
		ok := deleteOne(ctx, client, log, p, *email, *yes)
		if !ok {
			os.Exit(1)
		}
		return
	}

	fmt.Println("=========================================================")
	fmt.Println(" SCIM User Deletion")
	fmt.Println(" Enter an email per prompt; blank line or 'quit' to exit.")
	fmt.Println("=========================================================")

	for {
		if ctx.Err() != nil {
			fmt.Println("\nInterrupted.")
			os.Exit(reconciler.ExitCancelled)
		}
		answer, err := p.Ask("\nEmail to delete: ")
		if err != nil {
			return
		}
		answer = strings.TrimSpace(answer)
		if answer == "" || strings.EqualFold(answer, "quit") || strings.EqualFold(answer, "exit") {
			return
		}
		deleteOne(ctx, client, log, p, answer, false)
	}
}

func deleteOne(ctx context.Context, client *scim.Client, log *logger.Logger, p prompt.Prompter, email string, skipConfirm bool) bool {
	if err := reconciler.ValidateEmail(email); err != nil {
		fmt.Printf("✗ %v\n", err)
		return false
	}

	user, err := client.FindUserByEmail(ctx, email)
	if err != nil {
		fmt.Printf("✗ Lookup failed: %v\n", err)
		return false
	}
	if user == nil {
		fmt.Printf("- No user found for %s\n", email)
		return false
	}

	fmt.Printf("Found user: id=%s userName=%s active=%v\n", user.ID, user.UserName, user.Active)
	if !skipConfirm {
		ok, err := p.Confirm("Delete this user? (yes/no): ")
		if err != nil || !ok {
			fmt.Println("Skipped.")
			return false
		}
	}

	if err := client.DeleteUser(ctx, user.ID); err != nil {
		fmt.Printf("✗ Delete failed: %v\n", err)
		log.Error("scim delete failed", "email", email, "user_id", user.ID, "error", err.Error())
		return false
	}
	fmt.Printf("✓ Deleted %s\n", email)
	log.Info("scim user deleted", "email", email, "user_id", user.ID)
	return true
}
