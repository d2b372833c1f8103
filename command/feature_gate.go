package command

import (
	"context"
	"strconv"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/google/uuid"
)

const featureCustomRoles = "workspaces.custom_roles"

func featureEnabled(ctx context.Context, gate featuregate.FeatureGate, key string, scope types.ScopeFilter, userID uuid.UUID) (bool, error) {
	if gate == nil {
		return true, nil
	}
	scopeSet := featureScopeSet(scope, userID)
	if scopeSet == nil {
		return gate.Enabled(ctx, key)
	}
	return gate.Enabled(ctx, key, featuregate.WithScopeSet(*scopeSet))
}

// featureScopeSet maps a workspace onto the gate's org scope.
func featureScopeSet(scope types.ScopeFilter, userID uuid.UUID) *featuregate.ScopeSet {
	orgID := ""
	if !scope.IsPlatform() {
		orgID = strconv.FormatInt(scope.WorkspaceID, 10)
	}
	user := ""
	if userID != uuid.Nil {
		user = userID.String()
	}
	if orgID == "" && user == "" {
		return nil
	}
	return &featuregate.ScopeSet{
		System: true,
		OrgID:  orgID,
		UserID: user,
	}
}
