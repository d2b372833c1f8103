package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/scope"
)

// ActivityFeedQuery renders paginated activity feeds for workspace dashboards.
type ActivityFeedQuery struct {
	repo  types.ActivityRepository
	guard scope.Guard
}

// NewActivityFeedQuery constructs the feed query helper.
func NewActivityFeedQuery(repo types.ActivityRepository, guard scope.Guard) *ActivityFeedQuery {
	return &ActivityFeedQuery{
		repo:  repo,
		guard: safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[types.ActivityFilter, types.ActivityPage] = (*ActivityFeedQuery)(nil)

// Query fetches a page of activity logs. Platform scoped feeds are limited to
// the actor's own records unless the actor is a platform administrator.
func (q *ActivityFeedQuery) Query(ctx context.Context, filter types.ActivityFilter) (types.ActivityPage, error) {
	if q.repo == nil {
		return types.ActivityPage{}, types.ErrMissingActivityRepository
	}
	if err := filter.Validate(); err != nil {
		return types.ActivityPage{}, err
	}
	resolved, err := q.guard.Enforce(ctx, filter.Actor, filter.Scope, types.PolicyActionActivityRead, 0)
	if err != nil {
		return types.ActivityPage{}, err
	}
	filter.Scope = resolved
	if resolved.IsPlatform() && !filter.Actor.IsPlatformAdmin() && !filter.Actor.IsSystem() {
		filter.ActorID = filter.Actor.ID
	}
	return q.repo.ListActivity(ctx, filter)
}
