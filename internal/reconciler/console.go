package reconciler

import (
	"fmt"
	"io"

	"github.com/ignite/support-toolkit/internal/pkg/prompt"
)

// WriteConsole renders a run report grouped by account, in the
// configured account order.
func WriteConsole(w io.Writer, rep *Report) {
	order, grouped := rep.ByAccount()

	fmt.Fprintln(w, "=========================================================")
	fmt.Fprintf(w, " Suppression report — %s\n", rep.Target)
	if rep.DryRun {
		fmt.Fprintln(w, " (dry run: nothing was removed)")
	}
	fmt.Fprintln(w, "=========================================================")

	for _, account := range order {
		fmt.Fprintf(w, "\nAccount: %s\n", account)
		for _, r := range grouped[account] {
			mark, note := renderOutcome(r)
			fmt.Fprintf(w, "  %s %-16s %-40s %s\n", mark, r.List.Label(), r.Email, note)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "---------------------------------------------------------")
	fmt.Fprintf(w, " Found: %d   Removed: %d   Failed: %d   Errored: %d\n",
		len(rep.Matches()), len(rep.Removed()), len(rep.Failures()), len(rep.Errored()))
	if rep.FinalState == StateAborted {
		fmt.Fprintln(w, " Run aborted by operator; no removals were issued.")
	}
	if rep.FinalState == StateCancelled {
		fmt.Fprintln(w, " Run interrupted; results are incomplete.")
	}
	fmt.Fprintln(w, "---------------------------------------------------------")
}

func renderOutcome(r Result) (mark, note string) {
	switch r.Outcome {
	case OutcomeFound:
		mark = "✓"
		note = "suppressed"
		if r.Reason != "" {
			note += "  reason: " + r.Reason
		}
		if r.Created != "" {
			note += "  created: " + r.Created
		}
	case OutcomeRemoved:
		mark = "✓"
		note = "removed"
	case OutcomeRemovalFailed:
		mark = "✗"
		note = "removal failed: " + r.ErrorDetail
	default:
		mark = "-"
		note = "not found"
		if r.ErrorDetail != "" {
			mark = "✗"
			note = "check errored: " + r.ErrorDetail
		}
	}
	return mark, note
}

// ConsoleConfirmer builds the interactive confirmation step: it prints
// the pending matches and asks the operator to type yes.
func ConsoleConfirmer(w io.Writer, p prompt.Prompter) ConfirmFunc {
	return func(matches []Result) (bool, error) {
		fmt.Fprintf(w, "\nAbout to remove %d suppression(s):\n", len(matches))
		for _, m := range matches {
			fmt.Fprintf(w, "  %s  %s / %s\n", m.Email, m.Account, m.List.Label())
		}
		answer, err := p.Ask("Proceed with removal? (yes/no): ")
		if err != nil {
			return false, err
		}
		return prompt.Affirmative(answer), nil
	}
}
