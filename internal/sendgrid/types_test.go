package sendgrid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryAddrPrecedence(t *testing.T) {
	assert.Equal(t, "a@x.com", Entry{Email: "a@x.com", RecipientEmail: "b@x.com"}.Addr())
	assert.Equal(t, "b@x.com", Entry{RecipientEmail: "b@x.com"}.Addr())
	assert.Equal(t, "c@x.com", Entry{Address: "c@x.com"}.Addr())
	assert.Equal(t, "", Entry{}.Addr())
}

func TestFlexTimeFormats(t *testing.T) {
	cases := map[string]string{
		"unix_seconds": `{"created":1700000000}`,
		"rfc3339":      `{"created":"2023-11-14T22:13:20Z"}`,
		"datetime":     `{"created":"2023-11-14 22:13:20"}`,
		"date_only":    `{"created":"2023-11-14"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			var e Entry
			require.NoError(t, json.Unmarshal([]byte(payload), &e))
			assert.False(t, e.CreatedTime().IsZero())
			assert.Equal(t, 2023, e.CreatedTime().Year())
		})
	}

	t.Run("garbage_left_zero", func(t *testing.T) {
		var e Entry
		require.NoError(t, json.Unmarshal([]byte(`{"created":"soon"}`), &e))
		assert.True(t, e.CreatedTime().IsZero())
		assert.Equal(t, "N/A", e.DisplayCreated())
	})
}

func TestDisplayReason(t *testing.T) {
	assert.Equal(t, "N/A", Entry{}.DisplayReason())
	assert.Equal(t, "N/A", Entry{Reason: "  "}.DisplayReason())
	assert.Equal(t, "550 unknown", Entry{Reason: "550 unknown"}.DisplayReason())
}

func TestParseKinds(t *testing.T) {
	kinds, err := ParseKinds([]string{"all"})
	require.NoError(t, err)
	assert.Equal(t, AllKinds(), kinds)

	kinds, err = ParseKinds([]string{"global", " Bounces "})
	require.NoError(t, err)
	assert.Equal(t, []ListKind{KindGlobal, KindBounces}, kinds)

	kinds, err = ParseKinds(nil)
	require.NoError(t, err)
	assert.Equal(t, AllKinds(), kinds)

	_, err = ParseKinds([]string{"global", "mystery"})
	assert.Error(t, err)
}

func TestListKindPaths(t *testing.T) {
	assert.Equal(t, "/v3/asm/suppressions/global", KindGlobal.Path())
	assert.Equal(t, "/v3/suppression/bounces", KindBounces.Path())
	assert.Equal(t, "/v3/suppression/spam_reports", KindSpamReports.Path())
	assert.Equal(t, "/v3/suppression/invalid_emails", KindInvalidEmails.Path())
	assert.Equal(t, "/v3/suppression/blocks", KindBlocks.Path())
}
