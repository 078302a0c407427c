package sendgrid

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Entry is one suppression record as returned by the API. Field names
// vary between lists (bounces use "email"+"created", global
// suppressions use "recipient_email"), so the accessors below pick
// whichever is populated.
type Entry struct {
	Email          string   `json:"email"`
	RecipientEmail string   `json:"recipient_email"`
	Address        string   `json:"address"`
	Reason         string   `json:"reason"`
	Status         string   `json:"status"`
	Created        FlexTime `json:"created"`
	CreatedAt      FlexTime `json:"created_at"`
}

// Addr returns the entry's email address regardless of which wire
// field carried it.
func (e Entry) Addr() string {
	switch {
	case e.Email != "":
		return e.Email
	case e.RecipientEmail != "":
		return e.RecipientEmail
	default:
		return e.Address
	}
}

// CreatedTime returns the suppression timestamp, zero if absent.
func (e Entry) CreatedTime() time.Time {
	if !e.Created.IsZero() {
		return e.Created.Time
	}
	return e.CreatedAt.Time
}

// DisplayReason returns the reason, or "N/A" for customer-facing output.
func (e Entry) DisplayReason() string {
	if strings.TrimSpace(e.Reason) == "" {
		return "N/A"
	}
	return e.Reason
}

// DisplayCreated formats the suppression timestamp for reports.
func (e Entry) DisplayCreated() string {
	t := e.CreatedTime()
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// FlexTime unmarshals the API's inconsistent timestamp encodings:
// unix seconds (bounces, blocks) or an RFC 3339 / date string.
type FlexTime struct {
	time.Time
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}

	if !strings.HasPrefix(s, `"`) {
		secs, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil // unrecognized, leave zero
		}
		t.Time = time.Unix(secs, 0).UTC()
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, str); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}
