// Package orgs queries organization account structure through the
// customer administration API. Its main consumer is the tool that maps
// which accounts in an organization hang off a parent.
package orgs

import (
	"context"
	"fmt"

	"github.com/ignite/support-toolkit/internal/nerdgraph"
	"github.com/ignite/support-toolkit/internal/pkg/logger"
)

// Account is one account in an organization.
type Account struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	ParentID   *int   `json:"parentId"`
	RegionCode string `json:"regionCode"`
	Status     string `json:"status"`
}

// HasParent reports whether the account hangs off a parent account.
func (a Account) HasParent() bool { return a.ParentID != nil }

// Service runs organization queries against one credential.
type Service struct {
	gql *nerdgraph.Client
	log *logger.Logger
}

// NewService creates an organization query service.
func NewService(gql *nerdgraph.Client) *Service {
	return &Service{gql: gql, log: logger.Default()}
}

// SetLogger overrides the service logger.
func (s *Service) SetLogger(l *logger.Logger) { s.log = l }

const accountsQuery = `
query($orgId: ID!, $cursor: String) {
  customerAdministration {
    accounts(
      filter: {organizationId: {eq: $orgId}}
      cursor: $cursor
    ) {
      items {
        id
        name
        parentId
        regionCode
        status
      }
      nextCursor
    }
  }
}`

// ListAccounts pages through every account in the organization until
// the cursor is exhausted.
func (s *Service) ListAccounts(ctx context.Context, orgID string) ([]Account, error) {
	var all []Account
	var cursor *string
	page := 0

	for {
		page++
		vars := map[string]interface{}{"orgId": orgID}
		if cursor != nil {
			vars["cursor"] = *cursor
		}

		var out struct {
			CustomerAdministration struct {
				Accounts struct {
					Items      []Account `json:"items"`
					NextCursor *string   `json:"nextCursor"`
				} `json:"accounts"`
			} `json:"customerAdministration"`
		}
		if err := s.gql.Execute(ctx, accountsQuery, vars, &out); err != nil {
			return nil, fmt.Errorf("listing accounts for org %s (page %d): %w", orgID, page, err)
		}

		items := out.CustomerAdministration.Accounts.Items
		all = append(all, items...)
		s.log.Info("accounts page fetched", "org_id", orgID,
			"page", fmt.Sprintf("%d", page), "accounts", fmt.Sprintf("%d", len(items)))

		cursor = out.CustomerAdministration.Accounts.NextCursor
		if cursor == nil || *cursor == "" {
			return all, nil
		}
	}
}

// WithParent filters to the accounts that have a parent account.
func WithParent(accounts []Account) []Account {
	var out []Account
	for _, a := range accounts {
		if a.HasParent() {
			out = append(out, a)
		}
	}
	return out
}

// CSVHeader is the column set for account exports.
func CSVHeader() []string {
	return []string{"account_id", "account_name", "parent_id", "region", "status"}
}

// CSVRows renders accounts for export.
func CSVRows(accounts []Account) [][]string {
	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		parent := ""
		if a.ParentID != nil {
			parent = fmt.Sprintf("%d", *a.ParentID)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", a.ID), a.Name, parent, a.RegionCode, a.Status,
		})
	}
	return rows
}
