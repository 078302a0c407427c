// Package reconciler implements the multi-account suppression
// reconciliation workflow: for a fixed set of accounts and suppression
// lists, determine where one or more addresses are suppressed and
// optionally remove them, producing a per-triple report.
//
// Execution is single-threaded and sequential by design. A domain
// search reads every selected list on every account to exhaustion, so
// against production volumes it can take 15–20 minutes; that cost buys
// predictable rate-limit behavior and an auditable call sequence.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/support-toolkit/internal/config"
	"github.com/ignite/support-toolkit/internal/pkg/logger"
	"github.com/ignite/support-toolkit/internal/sendgrid"
)

// SuppressionAPI is the per-account client surface the reconciler
// drives. *sendgrid.Client satisfies it; tests use in-memory fakes.
type SuppressionAPI interface {
	GetSuppression(ctx context.Context, kind sendgrid.ListKind, email string) (*sendgrid.Entry, error)
	FetchAllSuppressions(ctx context.Context, kind sendgrid.ListKind) ([]sendgrid.Entry, error)
	DeleteSuppression(ctx context.Context, kind sendgrid.ListKind, email string) error
}

// Account pairs an account identity with its API client. The slice
// given to New is walked in order, so the caller puts the parent first.
type Account struct {
	Name string
	Role config.AccountRole
	API  SuppressionAPI
}

// ConfirmFunc presents discovered matches to the operator and yields
// their decision. Any error or false aborts the run.
type ConfirmFunc func(matches []Result) (bool, error)

// Reconciler checks and removes suppressions across every configured
// account × list combination.
type Reconciler struct {
	accounts []Account
	lists    []sendgrid.ListKind
	delay    time.Duration
	sleep    func(time.Duration)
	log      *logger.Logger
	confirm  ConfirmFunc
	runID    string
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithLists restricts operations to a subset of suppression lists.
func WithLists(lists []sendgrid.ListKind) Option {
	return func(r *Reconciler) {
		if len(lists) > 0 {
			r.lists = lists
		}
	}
}

// WithDelay sets the fixed pause between consecutive outbound calls.
func WithDelay(d time.Duration) Option {
	return func(r *Reconciler) { r.delay = d }
}

// WithSleep replaces the sleep function (tests pass a no-op).
func WithSleep(fn func(time.Duration)) Option {
	return func(r *Reconciler) { r.sleep = fn }
}

// WithLogger directs run logging to the given logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Reconciler) { r.log = l }
}

// WithConfirmer installs the confirmation capability.
func WithConfirmer(fn ConfirmFunc) Option {
	return func(r *Reconciler) { r.confirm = fn }
}

// WithRunID pins the run identifier, so callers can open the audit log
// sink before the run starts. Empty means generate one per run.
func WithRunID(id string) Option {
	return func(r *Reconciler) { r.runID = id }
}

// New builds a Reconciler over the given accounts, defaulting to all
// five suppression lists and a 100ms inter-call delay.
func New(accounts []Account, opts ...Option) *Reconciler {
	r := &Reconciler{
		accounts: accounts,
		lists:    sendgrid.AllKinds(),
		delay:    100 * time.Millisecond,
		sleep:    time.Sleep,
		log:      logger.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lists returns the list kinds this reconciler operates on.
func (r *Reconciler) Lists() []sendgrid.ListKind { return r.lists }

func (r *Reconciler) pause() {
	if r.delay > 0 {
		r.sleep(r.delay)
	}
}

func (r *Reconciler) newReport(target string, dryRun bool) *Report {
	runID := r.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Report{
		RunID:      runID,
		StartedAt:  time.Now().UTC(),
		Target:     target,
		DryRun:     dryRun,
		FinalState: StateDiscovering,
	}
}

// Check determines the presence of email in every account × list
// combination. It never mutates anything and always produces exactly
// one result per pair, so coverage is auditable even when the address
// is found nowhere.
func (r *Reconciler) Check(ctx context.Context, email string) (*Report, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	rep := r.newReport(email, false)
	r.log.Info("checking suppression lists", "run_id", rep.RunID, "email", email)

	for _, acct := range r.accounts {
		r.checkAccount(ctx, rep, acct, email)
	}

	rep.FinalState = finalState(ctx)
	rep.FinishedAt = time.Now().UTC()
	return rep, nil
}

// finalState maps an operator interrupt to the cancelled state, so a
// run cut short mid-flight never reports itself as cleanly completed.
func finalState(ctx context.Context) State {
	if ctx.Err() != nil {
		return StateCancelled
	}
	return StateCompleted
}

// checkAccount queries every selected list in one account for email.
// An auth rejection marks the whole account errored without issuing
// the remaining calls; other failures are isolated per list.
func (r *Reconciler) checkAccount(ctx context.Context, rep *Report, acct Account, email string) {
	for i, kind := range r.lists {
		entry, err := acct.API.GetSuppression(ctx, kind, email)
		if err != nil {
			var apiErr *sendgrid.APIError
			if errors.As(err, &apiErr) && apiErr.IsAuth() {
				r.log.Warn("account credential rejected", "account", acct.Name, "status", apiErr.StatusCode)
				for _, remaining := range r.lists[i:] {
					rep.add(Result{
						Account: acct.Name, List: remaining, Email: email,
						Outcome:     OutcomeNotFound,
						ErrorDetail: fmt.Sprintf("credential rejected (status %d)", apiErr.StatusCode),
					})
				}
				return
			}
			r.log.Warn("check failed", "account", acct.Name, "list", string(kind), "error", err.Error())
			rep.add(Result{
				Account: acct.Name, List: kind, Email: email,
				Outcome:     OutcomeNotFound,
				ErrorDetail: err.Error(),
			})
			r.pause()
			continue
		}

		if entry != nil {
			rep.add(Result{
				Account: acct.Name, List: kind, Email: email,
				Outcome: OutcomeFound,
				Reason:  entry.DisplayReason(),
				Created: entry.DisplayCreated(),
			})
		} else {
			rep.add(Result{
				Account: acct.Name, List: kind, Email: email,
				Outcome: OutcomeNotFound,
			})
		}
		r.pause()
	}
}

// RemoveRequest selects the removal targets and safety switches.
// Exactly one of Email, Emails, or Domain must be set.
type RemoveRequest struct {
	Email  string   // single address
	Emails []string // CSV batch, order preserved
	Domain string   // domain pattern, e.g. "@newrelic.com"

	DryRun  bool
	Confirm bool
}

// Remove discovers matching (account, list, email) triples and, unless
// dry-run, deletes each with one idempotent call. Triples fail
// independently: once removal starts the run always completes, and
// partial failure is surfaced per triple, never as a process failure.
func (r *Reconciler) Remove(ctx context.Context, req RemoveRequest) (*Report, error) {
	var rep *Report
	var err error

	switch {
	case req.Domain != "":
		rep, err = r.discoverByDomain(ctx, req)
	case req.Email != "" || len(req.Emails) > 0:
		rep, err = r.discoverByAddress(ctx, req)
	default:
		return nil, &ValidationError{Input: "", Msg: "no removal target given"}
	}
	if err != nil {
		return nil, err
	}

	matches := rep.Matches()
	if len(matches) == 0 {
		// Nothing to do: skip confirmation and removal entirely.
		rep.FinalState = finalState(ctx)
		rep.FinishedAt = time.Now().UTC()
		r.log.Info("no suppressions to remove", "run_id", rep.RunID)
		return rep, nil
	}

	if req.DryRun {
		rep.FinalState = finalState(ctx)
		rep.FinishedAt = time.Now().UTC()
		r.log.Info("dry run complete", "run_id", rep.RunID, "pending_matches", len(matches))
		return rep, nil
	}

	if req.Confirm {
		rep.FinalState = StateConfirming
		if r.confirm == nil {
			return nil, fmt.Errorf("confirmation required but no confirmer configured")
		}
		ok, err := r.confirm(matches)
		if err != nil || !ok {
			rep.FinalState = StateAborted
			rep.FinishedAt = time.Now().UTC()
			r.log.Info("removal aborted by operator", "run_id", rep.RunID)
			return rep, err
		}
	}

	rep.FinalState = StateRemoving
	r.removeMatches(ctx, rep, matches)

	rep.FinalState = finalState(ctx)
	rep.FinishedAt = time.Now().UTC()
	r.log.Info("removal run complete",
		"run_id", rep.RunID,
		"removed", fmt.Sprintf("%d", len(rep.Removed())),
		"failed", fmt.Sprintf("%d", len(rep.Failures())))
	return rep, nil
}

// discoverByAddress runs the membership check for each unique target.
func (r *Reconciler) discoverByAddress(ctx context.Context, req RemoveRequest) (*Report, error) {
	targets := req.Emails
	label := req.Email
	if req.Email != "" {
		if err := ValidateEmail(req.Email); err != nil {
			return nil, err
		}
		targets = []string{req.Email}
	} else {
		label = fmt.Sprintf("batch of %d", len(req.Emails))
	}

	targets = DedupeEmails(targets)
	rep := r.newReport(label, req.DryRun)
	r.log.Info("discovering suppressions", "run_id", rep.RunID, "targets", fmt.Sprintf("%d", len(targets)))

	for _, email := range targets {
		if !ValidEmail(email) {
			// Batch mode tolerates bad rows; they are skipped loudly.
			r.log.Warn("skipping invalid email in batch", "email", email)
			continue
		}
		for _, acct := range r.accounts {
			r.checkAccount(ctx, rep, acct, email)
		}
	}
	return rep, nil
}

// discoverByDomain downloads every selected list on every account and
// filters by domain suffix. The API has no server-side domain query,
// so this is inherently O(total suppressions).
func (r *Reconciler) discoverByDomain(ctx context.Context, req RemoveRequest) (*Report, error) {
	pattern, err := NormalizeDomain(req.Domain)
	if err != nil {
		return nil, err
	}

	rep := r.newReport(pattern, req.DryRun)
	r.log.Info("scanning all suppression lists for domain",
		"run_id", rep.RunID, "domain", pattern)

	seen := make(map[string]bool) // account|list|email

	for _, acct := range r.accounts {
		for _, kind := range r.lists {
			entries, err := acct.API.FetchAllSuppressions(ctx, kind)
			truncated := errors.Is(err, sendgrid.ErrScanTruncated)
			if err != nil && !truncated {
				r.log.Warn("list scan failed", "account", acct.Name, "list", string(kind), "error", err.Error())
				rep.add(Result{
					Account: acct.Name, List: kind, Email: pattern,
					Outcome:     OutcomeNotFound,
					ErrorDetail: err.Error(),
				})
				r.pause()
				continue
			}
			if truncated {
				// Partial entries still yield their matches, but the
				// pair is marked errored: absence cannot be concluded
				// from an incomplete scan.
				r.log.Warn("list scan stopped at page cap, coverage incomplete",
					"account", acct.Name, "list", string(kind),
					"records", fmt.Sprintf("%d", len(entries)))
				rep.add(Result{
					Account: acct.Name, List: kind, Email: pattern,
					Outcome:     OutcomeNotFound,
					ErrorDetail: "scan stopped at page cap; list not fully covered",
				})
			} else {
				r.log.Info("list scanned", "account", acct.Name, "list", string(kind),
					"records", fmt.Sprintf("%d", len(entries)))
			}

			for _, e := range entries {
				addr := e.Addr()
				if addr == "" || !MatchesDomain(addr, pattern) {
					continue
				}
				key := acct.Name + "|" + string(kind) + "|" + addr
				if seen[key] {
					continue
				}
				seen[key] = true
				rep.add(Result{
					Account: acct.Name, List: kind, Email: addr,
					Outcome: OutcomeFound,
					Reason:  e.DisplayReason(),
					Created: e.DisplayCreated(),
				})
			}
			r.pause()
		}
	}
	return rep, nil
}

// removeMatches issues exactly one delete per discovered triple,
// rewriting each match's outcome in place. A delete answered with
// "resource absent" counts as removed: the desired end state holds.
func (r *Reconciler) removeMatches(ctx context.Context, rep *Report, matches []Result) {
	byName := make(map[string]Account, len(r.accounts))
	for _, acct := range r.accounts {
		byName[acct.Name] = acct
	}

	for i := range rep.Results {
		res := &rep.Results[i]
		if res.Outcome != OutcomeFound {
			continue
		}
		acct, ok := byName[res.Account]
		if !ok {
			res.Outcome = OutcomeRemovalFailed
			res.ErrorDetail = "account no longer configured"
			continue
		}

		if err := acct.API.DeleteSuppression(ctx, res.List, res.Email); err != nil {
			r.log.Error("delete failed",
				"account", res.Account, "list", string(res.List),
				"email", res.Email, "error", err.Error())
			res.Outcome = OutcomeRemovalFailed
			res.ErrorDetail = err.Error()
		} else {
			r.log.Info("suppression removed",
				"account", res.Account, "list", string(res.List), "email", res.Email)
			res.Outcome = OutcomeRemoved
			res.ErrorDetail = ""
		}
		r.pause()
	}
}
