package reconciler

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError means the operator's input was malformed. It is
// raised before any network call is issued.
type ValidationError struct {
	Input string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Msg)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether s looks like a deliverable address:
// local@domain with a dotted, non-empty domain.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// ValidateEmail returns a ValidationError when s is not a plausible
// email address.
func ValidateEmail(s string) error {
	if !ValidEmail(s) {
		return &ValidationError{Input: s, Msg: "not a valid email address"}
	}
	return nil
}

// NormalizeDomain validates and canonicalizes a domain pattern for
// suffix matching: lowercased, with a leading "@" ensured.
func NormalizeDomain(pattern string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(pattern))
	p = strings.TrimPrefix(p, "@")
	if p == "" || !strings.Contains(p, ".") || strings.Contains(p, "@") {
		return "", &ValidationError{Input: pattern, Msg: "not a valid domain pattern"}
	}
	return "@" + p, nil
}

// MatchesDomain reports whether email belongs to the domain pattern.
// Matching is case-insensitive and anchored at the "@": the pattern
// "newrelic.com" matches alice@newrelic.com but not
// alice@sub.newrelic.com.evil.org, and "@newrelic.com" behaves the
// same. This rule decides what gets bulk-deleted, so it is exact.
func MatchesDomain(email, pattern string) bool {
	p := strings.ToLower(strings.TrimSpace(pattern))
	if !strings.HasPrefix(p, "@") {
		p = "@" + p
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), p)
}

// DedupeEmails removes duplicate addresses (case-insensitive) while
// preserving first-seen order.
func DedupeEmails(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		key := strings.ToLower(strings.TrimSpace(e))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(e))
	}
	return out
}
