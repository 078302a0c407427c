package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
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

func decodeReq(t *testing.T, r *http.Request) (query string, vars map[string]interface{}) {
	t.Helper()
	var req struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req.Query, req.Variables
}

func TestPurgePoliciesDeletesEachOne(t *testing.T) {
	var deleted []string

	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		query, vars := decodeReq(t, r)

		if strings.Contains(query, "policiesSearch") {
			assert.Equal(t, float64(111), vars["accountId"])
			fmt.Fprint(w, `{"data":{"actor":{"account":{"alerts":{"policiesSearch":{"policies":[
				{"id":"p1","name":"cpu","incidentPreference":"PER_POLICY"},
				{"id":"p2","name":"mem","incidentPreference":"PER_CONDITION"}
			]}}}}}}`)
			return
		}

		require.Contains(t, query, "alertsPolicyDelete")
		deleted = append(deleted, vars["policyId"].(string))
		fmt.Fprint(w, `{"data":{"alertsPolicyDelete":{"id":"done"}}}`)
	})

	sum := svc.Purge(context.Background(), 111, KindPolicies)

	assert.Equal(t, 2, sum.Found)
	assert.Equal(t, 2, sum.Deleted)
	assert.Zero(t, sum.Failed)
	assert.Equal(t, []string{"p1", "p2"}, deleted)
}

func TestPurgeChannelsIsolatesFailures(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		query, vars := decodeReq(t, r)

		if strings.Contains(query, "channels(filters: {})") {
			fmt.Fprint(w, `{"data":{"actor":{"account":{"aiNotifications":{"channels":{"entities":[
				{"id":"c1","name":"slack"},
				{"id":"c2","name":"email"}
			]}}}}}}`)
			return
		}

		require.Contains(t, query, "aiNotificationsDeleteChannel")
		if vars["channelId"] == "c1" {
			// The mutation reports failures in-band, not as GraphQL errors.
			fmt.Fprint(w, `{"data":{"aiNotificationsDeleteChannel":{"ids":[],"error":{"details":"channel in use"}}}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"aiNotificationsDeleteChannel":{"ids":["c2"],"error":null}}}`)
	})

	sum := svc.Purge(context.Background(), 111, KindChannels)

	assert.Equal(t, 2, sum.Found)
	assert.Equal(t, 1, sum.Deleted)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Errors, 1)
	assert.Contains(t, sum.Errors[0], "channel in use")
}

func TestPurgeDestinations(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		query, _ := decodeReq(t, r)

		if strings.Contains(query, "destinations") && !strings.Contains(query, "DeleteDestination") {
			fmt.Fprint(w, `{"data":{"actor":{"account":{"aiNotifications":{"destinations":{"entities":[
				{"id":"d1","name":"pagerduty"}
			]}}}}}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"aiNotificationsDeleteDestination":{"ids":["d1"],"error":null}}}`)
	})

	sum := svc.Purge(context.Background(), 111, KindDestinations)
	assert.Equal(t, 1, sum.Deleted)
	assert.Zero(t, sum.Failed)
}

func TestPurgeListFailureShortCircuits(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"account suspended"}]}`)
	})

	sum := svc.Purge(context.Background(), 111, KindPolicies)
	assert.Zero(t, sum.Found)
	assert.Zero(t, sum.Deleted)
	require.Len(t, sum.Errors, 1)
	assert.Contains(t, sum.Errors[0], "account suspended")
}

func TestPurgeUnknownKind(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})
	sum := svc.Purge(context.Background(), 111, Kind("widgets"))
	require.Len(t, sum.Errors, 1)
	assert.Contains(t, sum.Errors[0], "unknown resource kind")
}
