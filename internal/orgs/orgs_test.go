package orgs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/support-toolkit/internal/config"
	"github.com/ignite/support-toolkit/internal/nerdgraph"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gql := nerdgraph.NewClient("NRAK-test", config.RegionUS, 5*time.Second)
	gql.SetEndpoint(srv.URL)
	gql.SetHTTPClient(&http.Client{Timeout: 5 * time.Second})
	return NewService(gql)
}

func TestListAccountsWalksCursor(t *testing.T) {
	pages := []string{
		`{"data":{"customerAdministration":{"accounts":{"items":[
			{"id":1,"name":"root","parentId":null,"regionCode":"us01","status":"active"},
			{"id":2,"name":"child-a","parentId":1,"regionCode":"us01","status":"active"}
		],"nextCursor":"cursor-1"}}}}`,
		`{"data":{"customerAdministration":{"accounts":{"items":[
			{"id":3,"name":"child-b","parentId":1,"regionCode":"eu01","status":"pending"}
		],"nextCursor":null}}}}`,
	}
	call := 0

	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "org-42", req.Variables["orgId"])
		if call == 0 {
			assert.Nil(t, req.Variables["cursor"])
		} else {
			assert.Equal(t, "cursor-1", req.Variables["cursor"])
		}

		fmt.Fprint(w, pages[call])
		call++
	})

	accounts, err := svc.ListAccounts(context.Background(), "org-42")
	require.NoError(t, err)

	assert.Equal(t, 2, call, "both pages fetched")
	require.Len(t, accounts, 3)
	assert.Equal(t, 1, accounts[0].ID)
	assert.False(t, accounts[0].HasParent())
	assert.True(t, accounts[1].HasParent())
}

func TestListAccountsPropagatesError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"organization not found"}]}`)
	})

	_, err := svc.ListAccounts(context.Background(), "org-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "organization not found")
}

func TestWithParent(t *testing.T) {
	one := 1
	accounts := []Account{
		{ID: 1, Name: "root"},
		{ID: 2, Name: "child", ParentID: &one},
	}
	filtered := WithParent(accounts)
	require.Len(t, filtered, 1)
	assert.Equal(t, 2, filtered[0].ID)
}

func TestCSVRows(t *testing.T) {
	one := 1
	rows := CSVRows([]Account{
		{ID: 2, Name: "child", ParentID: &one, RegionCode: "us01", Status: "active"},
		{ID: 3, Name: "orphan"},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2", "child", "1", "us01", "active"}, rows[0])
	assert.Equal(t, "", rows[1][2], "no parent renders empty")
	assert.Len(t, CSVHeader(), len(rows[0]))
}
