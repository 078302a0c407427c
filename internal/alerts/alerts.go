// Package alerts clears alerting configuration from accounts slated
// for deletion: alert policies, notification channels, and
// destinations. Each item is deleted independently; one failure never
// stops the rest of the account.
package alerts

import (
	"context"
	"fmt"

	"github.com/ignite/support-toolkit/internal/nerdgraph"
	"github.com/ignite/support-toolkit/internal/pkg/logger"
)

// Kind selects which alerting resources to purge.
type Kind string

const (
	KindPolicies     Kind = "policies"
	KindChannels     Kind = "channels"
	KindDestinations Kind = "destinations"
)

// Policy is one alert policy.
type Policy struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	IncidentPreference string `json:"incidentPreference"`
}

// Entity is a notification channel or destination.
type Entity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Service runs the purge workflows against one NerdGraph credential.
type Service struct {
	gql *nerdgraph.Client
	log *logger.Logger
}

// NewService creates an alerts purge service.
func NewService(gql *nerdgraph.Client) *Service {
	return &Service{gql: gql, log: logger.Default()}
}

// SetLogger overrides the service logger.
func (s *Service) SetLogger(l *logger.Logger) { s.log = l }

const policiesQuery = `
query($accountId: Int!) {
  actor {
    account(id: $accountId) {
      alerts {
        policiesSearch {
          policies {
            id
            name
            incidentPreference
          }
        }
      }
    }
  }
}`

// ListPolicies returns every alert policy in the account.
func (s *Service) ListPolicies(ctx context.Context, accountID int) ([]Policy, error) {
	var out struct {
		Actor struct {
			Account struct {
				Alerts struct {
					PoliciesSearch struct {
						Policies []Policy `json:"policies"`
					} `json:"policiesSearch"`
				} `json:"alerts"`
			} `json:"account"`
		} `json:"actor"`
	}
	if err := s.gql.Execute(ctx, policiesQuery, map[string]interface{}{"accountId": accountID}, &out); err != nil {
		return nil, fmt.Errorf("listing policies for account %d: %w", accountID, err)
	}
	return out.Actor.Account.Alerts.PoliciesSearch.Policies, nil
}

const policyDeleteMutation = `
mutation($accountId: Int!, $policyId: ID!) {
  alertsPolicyDelete(accountId: $accountId, id: $policyId) {
    id
  }
}`

// DeletePolicy deletes one alert policy.
func (s *Service) DeletePolicy(ctx context.Context, accountID int, policyID string) error {
	err := s.gql.Execute(ctx, policyDeleteMutation, map[string]interface{}{
		"accountId": accountID,
		"policyId":  policyID,
	}, nil)
	if err != nil {
		return fmt.Errorf("deleting policy %s in account %d: %w", policyID, accountID, err)
	}
	return nil
}

const channelsQuery = `
query($accountId: Int!) {
  actor {
    account(id: $accountId) {
      aiNotifications {
        channels(filters: {}) {
          entities {
            id
            name
          }
        }
      }
    }
  }
}`

// ListChannels returns every notification channel in the account.
func (s *Service) ListChannels(ctx context.Context, accountID int) ([]Entity, error) {
	var out struct {
		Actor struct {
			Account struct {
				AINotifications struct {
					Channels struct {
						Entities []Entity `json:"entities"`
					} `json:"channels"`
				} `json:"aiNotifications"`
			} `json:"account"`
		} `json:"actor"`
	}
	if err := s.gql.Execute(ctx, channelsQuery, map[string]interface{}{"accountId": accountID}, &out); err != nil {
		return nil, fmt.Errorf("listing channels for account %d: %w", accountID, err)
	}
	return out.Actor.Account.AINotifications.Channels.Entities, nil
}

const channelDeleteMutation = `
mutation($accountId: Int!, $channelId: ID!) {
  aiNotificationsDeleteChannel(accountId: $accountId, channelId: $channelId) {
    ids
    error {
      details
    }
  }
}`

// DeleteChannel deletes one notification channel.
func (s *Service) DeleteChannel(ctx context.Context, accountID int, channelID string) error {
	var out struct {
		AINotificationsDeleteChannel struct {
			IDs   []string `json:"ids"`
			Error *struct {
				Details string `json:"details"`
			} `json:"error"`
		} `json:"aiNotificationsDeleteChannel"`
	}
	err := s.gql.Execute(ctx, channelDeleteMutation, map[string]interface{}{
		"accountId": accountID,
		"channelId": channelID,
	}, &out)
	if err != nil {
		return fmt.Errorf("deleting channel %s in account %d: %w", channelID, accountID, err)
	}
	if e := out.AINotificationsDeleteChannel.Error; e != nil && e.Details != "" {
		return fmt.Errorf("deleting channel %s in account %d: %s", channelID, accountID, e.Details)
	}
	return nil
}

const destinationsQuery = `
query($accountId: Int!) {
  actor {
    account(id: $accountId) {
      aiNotifications {
        destinations {
          entities {
            id
            name
          }
        }
      }
    }
  }
}`

// ListDestinations returns every notification destination in the account.
func (s *Service) ListDestinations(ctx context.Context, accountID int) ([]Entity, error) {
	var out struct {
		Actor struct {
			Account struct {
				AINotifications struct {
					Destinations struct {
						Entities []Entity `json:"entities"`
					} `json:"destinations"`
				} `json:"aiNotifications"`
			} `json:"account"`
		} `json:"actor"`
	}
	if err := s.gql.Execute(ctx, destinationsQuery, map[string]interface{}{"accountId": accountID}, &out); err != nil {
		return nil, fmt.Errorf("listing destinations for account %d: %w", accountID, err)
	}
	return out.Actor.Account.AINotifications.Destinations.Entities, nil
}

const destinationDeleteMutation = `
mutation($accountId: Int!, $destinationId: ID!) {
  aiNotificationsDeleteDestination(accountId: $accountId, destinationId: $destinationId) {
    ids
    error {
      details
    }
  }
}`

// DeleteDestination deletes one notification destination.
func (s *Service) DeleteDestination(ctx context.Context, accountID int, destinationID string) error {
	var out struct {
		AINotificationsDeleteDestination struct {
			IDs   []string `json:"ids"`
			Error *struct {
				Details string `json:"details"`
			} `json:"error"`
		} `json:"aiNotificationsDeleteDestination"`
	}
	err := s.gql.Execute(ctx, destinationDeleteMutation, map[string]interface{}{
		"accountId":     accountID,
		"destinationId": destinationID,
	}, &out)
	if err != nil {
		return fmt.Errorf("deleting destination %s in account %d: %w", destinationID, accountID, err)
	}
	if e := out.AINotificationsDeleteDestination.Error; e != nil && e.Details != "" {
		return fmt.Errorf("deleting destination %s in account %d: %s", destinationID, accountID, e.Details)
	}
	return nil
}

// PurgeSummary reports one account's purge for one resource kind.
type PurgeSummary struct {
	AccountID int
	Kind      Kind
	Found     int
	Deleted   int
	Failed    int
	Errors    []string
}

// Purge lists and deletes every resource of the given kind in the
// account. Channels must go before destinations: the API refuses to
// delete a destination that still has channels attached.
func (s *Service) Purge(ctx context.Context, accountID int, kind Kind) PurgeSummary {
	sum := PurgeSummary{AccountID: accountID, Kind: kind}

	type item struct{ id, name string }
	var items []item

	switch kind {
	case KindPolicies:
		policies, err := s.ListPolicies(ctx, accountID)
		if err != nil {
			sum.Errors = append(sum.Errors, err.Error())
			return sum
		}
		for _, p := range policies {
			items = append(items, item{p.ID, p.Name})
		}
	case KindChannels:
		entities, err := s.ListChannels(ctx, accountID)
		if err != nil {
			sum.Errors = append(sum.Errors, err.Error())
			return sum
		}
		for _, e := range entities {
			items = append(items, item{e.ID, e.Name})
		}
	case KindDestinations:
		entities, err := s.ListDestinations(ctx, accountID)
		if err != nil {
			sum.Errors = append(sum.Errors, err.Error())
			return sum
		}
		for _, e := range entities {
			items = append(items, item{e.ID, e.Name})
		}
	default:
		sum.Errors = append(sum.Errors, fmt.Sprintf("unknown resource kind %q", kind))
		return sum
	}

	sum.Found = len(items)
	for _, it := range items {
		var err error
		switch kind {
		case KindPolicies:
			err = s.DeletePolicy(ctx, accountID, it.id)
		case KindChannels:
			err = s.DeleteChannel(ctx, accountID, it.id)
		case KindDestinations:
			err = s.DeleteDestination(ctx, accountID, it.id)
		}
		if err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, err.Error())
			s.log.Error("delete failed", "account", fmt.Sprintf("%d", accountID), "kind", string(kind), "id", it.id, "error", err.Error())
			continue
		}
		sum.Deleted++
		s.log.Info("deleted", "account", fmt.Sprintf("%d", accountID), "kind", string(kind), "id", it.id, "name", it.name)
	}
	return sum
}
