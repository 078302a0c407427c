package sendgrid

import (
	"fmt"
	"strings"
)

// ListKind identifies one of the five suppression lists.
type ListKind string

const (
	KindGlobal        ListKind = "global"
	KindBounces       ListKind = "bounces"
	KindBlocks        ListKind = "blocks"
	KindSpamReports   ListKind = "spam_reports"
	KindInvalidEmails ListKind = "invalid_emails"
)

// AllKinds returns every suppression list kind in display order.
func AllKinds() []ListKind {
	return []ListKind{KindGlobal, KindBounces, KindBlocks, KindSpamReports, KindInvalidEmails}
}

// Path returns the API path for the list. Global suppressions live
// under /asm; the others share the /suppression prefix. Both use the
// same read/delete contract.
func (k ListKind) Path() string {
	if k == KindGlobal {
		return "/v3/asm/suppressions/global"
	}
	return "/v3/suppression/" + string(k)
}

// Label returns a human-readable name for reports.
func (k ListKind) Label() string {
	switch k {
	case KindGlobal:
		return "Global Suppressions"
	case KindBounces:
		return "Bounces"
	case KindBlocks:
		return "Blocks"
	case KindSpamReports:
		return "Spam Reports"
	case KindInvalidEmails:
		return "Invalid Emails"
	}
	return string(k)
}

// ParseKinds converts operator-supplied list names to kinds.
// "all" (or an empty input) selects every list.
func ParseKinds(names []string) ([]ListKind, error) {
	if len(names) == 0 {
		return AllKinds(), nil
	}

	valid := make(map[ListKind]bool, 5)
	for _, k := range AllKinds() {
		valid[k] = true
	}

	var kinds []ListKind
	seen := make(map[ListKind]bool)
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "all" {
			return AllKinds(), nil
		}
		k := ListKind(name)
		if !valid[k] {
			return nil, fmt.Errorf("unknown suppression list %q (valid: global, bounces, blocks, spam_reports, invalid_emails, all)", name)
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}
