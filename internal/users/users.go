// Package users implements the stale-user cleanup workflow: load a
// user metadata export, filter by creation age, and mass-delete the
// survivors through the administrative API.
package users

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ignite/support-toolkit/internal/nerdgraph"
	"github.com/ignite/support-toolkit/internal/pkg/logger"
)

// Metadata is one user record from an export. Exports come from more
// than one upstream tool, so both field names and date formats vary.
type Metadata struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

var idKeys = []string{"id", "userId", "user_id", "userID"}
var emailKeys = []string{"email", "userName", "username", "emailAddress"}
var createdKeys = []string{
	"createdAt", "created_at", "createdat", "CREATED_AT",
	"dateCreated", "date_created", "created", "creationDate",
	"creation_date", "timestamp", "createdDate",
}

// LoadMetadata reads a user export file. The payload is either a bare
// JSON array of user objects or an object wrapping that array under
// one of the usual keys.
func LoadMetadata(path string) ([]Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseMetadata(data)
}

// ParseMetadata decodes a user export payload.
func ParseMetadata(data []byte) ([]Metadata, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing user export: %w", err)
	}

	var items []interface{}
	switch v := raw.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		for _, key := range []string{"users", "data", "results", "items"} {
			if arr, ok := v[key].([]interface{}); ok {
				items = arr
				break
			}
		}
		if items == nil {
			return nil, fmt.Errorf("parsing user export: no user array found")
		}
	default:
		return nil, fmt.Errorf("parsing user export: unsupported payload shape")
	}

	var users []Metadata
	for _, it := range items {
		obj, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		m := Metadata{
			ID:    firstString(obj, idKeys),
			Email: firstString(obj, emailKeys),
		}
		if raw := firstString(obj, createdKeys); raw != "" {
			if t, ok := parseCreated(raw); ok {
				m.CreatedAt = t
			}
		}
		if m.ID != "" {
			users = append(users, m)
		}
	}
	return users, nil
}

func firstString(obj map[string]interface{}, keys []string) string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
		}
	}
	return ""
}

// parseCreated accepts the date shapes seen in real exports: RFC 3339,
// bare dates, and unix timestamps in seconds or milliseconds.
func parseCreated(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	var n int64
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && n > 0 {
		// Millisecond timestamps are 13 digits for any modern date.
		if n > 1_000_000_000_000 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}
	return time.Time{}, false
}

// FilterStats summarizes one filtering pass.
type FilterStats struct {
	Total       int
	WithDate    int
	MissingDate int
	OlderThan   int
}

// FilterOlderThan returns the users created strictly before cutoff,
// deduplicated by ID. Users with no parseable creation date are never
// selected for deletion.
func FilterOlderThan(users []Metadata, cutoff time.Time) ([]Metadata, FilterStats) {
	stats := FilterStats{Total: len(users)}
	seen := make(map[string]bool, len(users))
	var out []Metadata
	for _, u := range users {
		if u.CreatedAt.IsZero() {
			stats.MissingDate++
			continue
		}
		stats.WithDate++
		if !u.CreatedAt.Before(cutoff) {
			continue
		}
		stats.OlderThan++
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, stats
}

// DeleteResult is the outcome for one user deletion.
type DeleteResult struct {
	UserID string
	Email  string
	OK     bool
	Error  string
}

// Deleter mass-deletes users through the administrative API, one
// mutation per user so failures never block the batch.
type Deleter struct {
	gql *nerdgraph.Client
	log *logger.Logger
}

// NewDeleter creates a user deleter.
func NewDeleter(gql *nerdgraph.Client) *Deleter {
	return &Deleter{gql: gql, log: logger.Default()}
}

// SetLogger overrides the deleter logger.
func (d *Deleter) SetLogger(l *logger.Logger) { d.log = l }

const deleteUserMutation = `
mutation($userId: ID!) {
  userManagementDeleteUser(deleteUserOptions: {id: $userId}) {
    deletedUser {
      id
    }
  }
}`

// DeleteUser deletes one user by ID.
func (d *Deleter) DeleteUser(ctx context.Context, userID string) error {
	var out struct {
		UserManagementDeleteUser struct {
			DeletedUser *struct {
				ID string `json:"id"`
			} `json:"deletedUser"`
		} `json:"userManagementDeleteUser"`
	}
	err := d.gql.Execute(ctx, deleteUserMutation, map[string]interface{}{"userId": userID}, &out)
	if err != nil {
		return fmt.Errorf("deleting user %s: %w", userID, err)
	}
	if out.UserManagementDeleteUser.DeletedUser == nil {
		return fmt.Errorf("deleting user %s: no deleted user in response", userID)
	}
	return nil
}

// DeleteBatch deletes every user in order, returning one result per
// user. It never stops on failure.
func (d *Deleter) DeleteBatch(ctx context.Context, targets []Metadata) []DeleteResult {
	results := make([]DeleteResult, 0, len(targets))
	for _, u := range targets {
		res := DeleteResult{UserID: u.ID, Email: u.Email}
		if err := d.DeleteUser(ctx, u.ID); err != nil {
			res.Error = err.Error()
			d.log.Error("user delete failed", "user_id", u.ID, "error", err.Error())
		} else {
			res.OK = true
			d.log.Info("user deleted", "user_id", u.ID)
		}
		results = append(results, res)
	}
	return results
}
