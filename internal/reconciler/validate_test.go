package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@example.co.uk",
		"user+tag@example.com",
		"  padded@example.com  ",
	}
	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}

	invalid := []string{
		"",
		"no-at-sign",
		"@example.com",
		"user@",
		"user@nodot",
		"user@.com",
		"user @example.com",
	}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}

func TestNormalizeDomain(t *testing.T) {
	for input, want := range map[string]string{
		"newrelic.com":    "@newrelic.com",
		"@newrelic.com":   "@newrelic.com",
		"  NewRelic.Com ": "@newrelic.com",
	} {
		got, err := NormalizeDomain(input)
		assert.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, input := range []string{"", "@", "nodot", "user@example.com"} {
		_, err := NormalizeDomain(input)
		assert.Error(t, err, input)
	}
}

func TestMatchesDomain(t *testing.T) {
	tests := []struct {
		email   string
		pattern string
		want    bool
	}{
		{"alice@newrelic.com", "@newrelic.com", true},
		{"alice@newrelic.com", "newrelic.com", true},
		{"BOB@NewRelic.com", "@newrelic.com", true},
		{"alice@notnewrelic.com", "@newrelic.com", false},
		{"alice@sub.newrelic.com.evil.org", "@newrelic.com", false},
		{"alice@sub.newrelic.com", "@newrelic.com", false},
		{"alice@newrelic.com", "@eu.newrelic.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesDomain(tt.email, tt.pattern),
			"%s vs %s", tt.email, tt.pattern)
	}
}

func TestDedupeEmails(t *testing.T) {
	in := []string{"a@x.com", "A@X.COM", " a@x.com ", "b@x.com", "", "b@x.com"}
	out := DedupeEmails(in)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, out)
}
