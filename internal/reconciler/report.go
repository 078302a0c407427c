package reconciler

import (
	"time"

	"github.com/ignite/support-toolkit/internal/sendgrid"
)

// Outcome is the terminal status of one (account, list, email) triple.
type Outcome string

const (
	OutcomeFound         Outcome = "found"
	OutcomeNotFound      Outcome = "not_found"
	OutcomeRemoved       Outcome = "removed"
	OutcomeRemovalFailed Outcome = "removal_failed"
)

// State is the phase a removal run ended in.
type State string

const (
	StateDiscovering State = "discovering"
	StateConfirming  State = "awaiting_confirmation"
	StateAborted     State = "aborted"
	StateRemoving    State = "removing"
	StateCompleted   State = "completed"
	StateCancelled   State = "cancelled"
)

// Exit codes for the surrounding CLIs.
const (
	ExitOK        = 0
	ExitFailed    = 1
	ExitCancelled = 130
)

// Result records the outcome for exactly one (account, list, email)
// triple. Attribution is never collapsed: the point of multi-account
// checking is knowing which account still holds a suppression.
type Result struct {
	Account     string
	List        sendgrid.ListKind
	Email       string
	Outcome     Outcome
	Reason      string
	Created     string
	ErrorDetail string
}

// Errored reports whether the triple's true state is unknown because
// the call failed (auth rejection, transport error).
func (r Result) Errored() bool { return r.ErrorDetail != "" }

// Report aggregates one logical run: one email, one CSV batch, or one
// domain search. Held in memory only; callers render it to
// console/CSV/log and discard it.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Target     string
	DryRun     bool
	FinalState State
	Results    []Result
}

func (rep *Report) add(r Result) { rep.Results = append(rep.Results, r) }

// Matches returns the triples where the address was present.
func (rep *Report) Matches() []Result {
	return rep.filter(func(r Result) bool { return r.Outcome == OutcomeFound })
}

// Removed returns the triples successfully cleared.
func (rep *Report) Removed() []Result {
	return rep.filter(func(r Result) bool { return r.Outcome == OutcomeRemoved })
}

// Failures returns the triples whose delete call failed.
func (rep *Report) Failures() []Result {
	return rep.filter(func(r Result) bool { return r.Outcome == OutcomeRemovalFailed })
}

// Errored returns the triples whose state is unknown.
func (rep *Report) Errored() []Result {
	return rep.filter(func(r Result) bool { return r.Errored() })
}

func (rep *Report) filter(keep func(Result) bool) []Result {
	var out []Result
	for _, r := range rep.Results {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// ByAccount groups results preserving the configured account order.
func (rep *Report) ByAccount() ([]string, map[string][]Result) {
	var order []string
	grouped := make(map[string][]Result)
	for _, r := range rep.Results {
		if _, ok := grouped[r.Account]; !ok {
			order = append(order, r.Account)
		}
		grouped[r.Account] = append(grouped[r.Account], r)
	}
	return order, grouped
}

// ExitCode maps the run to the exit-status contract: 0 when every
// targeted triple succeeded or none needed action, 1 when at least one
// removal failed, 130 when the operator declined or interrupted.
func (rep *Report) ExitCode() int {
	if rep.FinalState == StateAborted || rep.FinalState == StateCancelled {
		return ExitCancelled
	}
	if len(rep.Failures()) > 0 {
		return ExitFailed
	}
	return ExitOK
}

// CSVHeader is the column set for report exports.
func CSVHeader() []string {
	return []string{"email", "account", "suppression_list", "outcome", "reason", "created", "error"}
}

// CSVRows renders every result for export, one row per triple.
func (rep *Report) CSVRows() [][]string {
	rows := make([][]string, 0, len(rep.Results))
	for _, r := range rep.Results {
		rows = append(rows, []string{
			r.Email,
			r.Account,
			string(r.List),
			string(r.Outcome),
			r.Reason,
			r.Created,
			r.ErrorDetail,
		})
	}
	return rows
}
