package markers

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

func TestCreateDeployment(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "changeTrackingCreateDeployment")
		assert.Equal(t, "1.2.3", req.Variables["version"])
		assert.Equal(t, "GUID-1", req.Variables["entityGuid"])

		fmt.Fprint(w, `{"data":{"changeTrackingCreateDeployment":{"deploymentId":"dep-1","entityGuid":"GUID-1"}}}`)
	})

	dep, err := svc.CreateDeployment(context.Background(), "GUID-1", "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "dep-1", dep.DeploymentID)
	assert.Equal(t, "GUID-1", dep.EntityGUID)
}

func TestCreateFromGUIDsContinuesAfterFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Variables["entityGuid"] == "GUID-bad" {
			fmt.Fprint(w, `{"errors":[{"message":"entity not found"}]}`)
			return
		}
		fmt.Fprintf(w, `{"data":{"changeTrackingCreateDeployment":{"deploymentId":"dep-%s","entityGuid":"%s"}}}`,
			req.Variables["entityGuid"], req.Variables["entityGuid"])
	})

	results := svc.CreateFromGUIDs(context.Background(), []string{"GUID-1", "GUID-bad", "GUID-2"}, "0.0.1")

	require.Len(t, results, 3)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Contains(t, results[1].Error, "entity not found")
	assert.True(t, results[2].OK)
	assert.Equal(t, "dep-GUID-2", results[2].DeploymentID)
}
