package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/scope"
	"github.com/google/uuid"
)

// ProfileQueryInput identifies the profile to show.
type ProfileQueryInput struct {
	UserID uuid.UUID
	Actor  types.ActorRef
}

// Type implements gocommand.Message.
func (ProfileQueryInput) Type() string {
	return "query.profile.detail"
}

// Validate implements gocommand.Message.
func (input ProfileQueryInput) Validate() error {
	if input.UserID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	return nil
}

// ProfileQuery fetches public user profiles. Any authenticated caller can
// view any profile.
type ProfileQuery struct {
	repo  types.ProfileRepository
	guard scope.Guard
}

// NewProfileQuery constructs the profile query helper.
func NewProfileQuery(repo types.ProfileRepository, guard scope.Guard) *ProfileQuery {
	return &ProfileQuery{
		repo:  repo,
		guard: safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[ProfileQueryInput, *types.UserProfile] = (*ProfileQuery)(nil)

// Query returns the profile or nil when the user has none.
func (q *ProfileQuery) Query(ctx context.Context, input ProfileQueryInput) (*types.UserProfile, error) {
	if q.repo == nil {
		return nil, types.ErrMissingProfileRepository
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if _, err := q.guard.Enforce(ctx, input.Actor, types.ScopeFilter{}, types.PolicyActionProfilesRead, 0); err != nil {
		return nil, err
	}
	return q.repo.GetProfile(ctx, input.UserID)
}
