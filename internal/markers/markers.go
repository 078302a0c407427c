// Package markers creates change-tracking deployment markers in bulk,
// one per entity GUID.
package markers

import (
	"context"
	"fmt"

	"github.com/ignite/support-toolkit/internal/nerdgraph"
	"github.com/ignite/support-toolkit/internal/pkg/logger"
)

// Deployment is a created deployment marker.
type Deployment struct {
	DeploymentID string `json:"deploymentId"`
	EntityGUID   string `json:"entityGuid"`
}

// Result is the outcome for one entity GUID.
type Result struct {
	EntityGUID   string
	DeploymentID string
	OK           bool
	Error        string
}

// Service creates deployment markers through the GraphQL API.
type Service struct {
	gql *nerdgraph.Client
	log *logger.Logger
}

// NewService creates a marker service.
func NewService(gql *nerdgraph.Client) *Service {
	return &Service{gql: gql, log: logger.Default()}
}

// SetLogger overrides the service logger.
func (s *Service) SetLogger(l *logger.Logger) { s.log = l }

const createDeploymentMutation = `
mutation($version: String!, $entityGuid: EntityGuid!) {
  changeTrackingCreateDeployment(
    deployment: {version: $version, entityGuid: $entityGuid}
  ) {
    deploymentId
    entityGuid
  }
}`

// CreateDeployment records one deployment marker against an entity.
func (s *Service) CreateDeployment(ctx context.Context, entityGUID, version string) (*Deployment, error) {
	var out struct {
		ChangeTrackingCreateDeployment Deployment `json:"changeTrackingCreateDeployment"`
	}
	err := s.gql.Execute(ctx, createDeploymentMutation, map[string]interface{}{
		"version":    version,
		"entityGuid": entityGUID,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("creating deployment for %s: %w", entityGUID, err)
	}
	return &out.ChangeTrackingCreateDeployment, nil
}

// CreateFromGUIDs records one marker per GUID, in order. Failures are
// collected per GUID and never stop the batch.
func (s *Service) CreateFromGUIDs(ctx context.Context, guids []string, version string) []Result {
	results := make([]Result, 0, len(guids))
	for _, guid := range guids {
		res := Result{EntityGUID: guid}
		dep, err := s.CreateDeployment(ctx, guid, version)
		if err != nil {
			res.Error = err.Error()
			s.log.Error("marker failed", "entity_guid", guid, "error", err.Error())
		} else {
			res.OK = true
			res.DeploymentID = dep.DeploymentID
			s.log.Info("marker created", "entity_guid", guid, "deployment_id", dep.DeploymentID)
		}
		results = append(results, res)
	}
	return results
}
