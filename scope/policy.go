package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
	"github.com/goliatone/go-workspaces/role/tree"
)

// RoleLookup is the slice of the role store the workspace policy needs.
type RoleLookup interface {
	WorkspaceRoles(ctx context.Context, workspaceID int64) ([]*role.Role, error)
	ManagerRole(ctx context.Context, workspaceID int64) (*role.Role, error)
}

// WorkspaceRolePolicy authorizes actions through the role hierarchy. Platform
// administrators and system actors pass every check. Inside a workspace any
// held workspace role grants read access and activity logging, while write
// access requires a role at or below the manager base role. Platform scoped workspace writes need
// ROLE_WS_CREATOR; platform scoped reads and profile edits are left to the
// handlers, which narrow them to the actor.
type WorkspaceRolePolicy struct {
	roles RoleLookup
}

var _ types.AuthorizationPolicy = (*WorkspaceRolePolicy)(nil)

// NewWorkspaceRolePolicy builds the policy.
func NewWorkspaceRolePolicy(roles RoleLookup) *WorkspaceRolePolicy {
	return &WorkspaceRolePolicy{roles: roles}
}

// Authorize implements types.AuthorizationPolicy.
func (p *WorkspaceRolePolicy) Authorize(ctx context.Context, check types.PolicyCheck) error {
	actor := check.Actor
	if actor.IsPlatformAdmin() {
		return nil
	}
	if check.Action == types.PolicyActionWorkspacesWrite && actor.HasRole(role.WorkspaceCreator) {
		return nil
	}
	if check.Scope.IsPlatform() {
		switch check.Action {
		case types.PolicyActionRolesRead, types.PolicyActionActivityRead, types.PolicyActionActivityWrite,
			types.PolicyActionProfilesRead, types.PolicyActionProfilesWrite:
			return nil
		default:
			return denied(check)
		}
	}
	if p.roles == nil {
		return denied(check)
	}

	held, err := p.heldRoles(ctx, actor, check.Scope.WorkspaceID)
	if err != nil {
		return err
	}
	if len(held) == 0 {
		return denied(check)
	}
	if !check.Action.IsWrite() {
		return nil
	}

	manager, err := p.roles.ManagerRole(ctx, check.Scope.WorkspaceID)
	if err != nil {
		if errors.Is(err, types.ErrRoleNotFound) {
			return denied(check)
		}
		return err
	}
	for _, r := range held {
		if tree.IsDescendantOrSelf(r, manager) {
			return nil
		}
	}
	return denied(check)
}

func (p *WorkspaceRolePolicy) heldRoles(ctx context.Context, actor types.ActorRef, workspaceID int64) ([]*role.Role, error) {
	if len(actor.Roles) == 0 {
		return nil, nil
	}
	roles, err := p.roles.WorkspaceRoles(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	held := make([]*role.Role, 0, len(roles))
	for _, r := range roles {
		if actor.HasRole(r.Name) {
			held = append(held, r)
		}
	}
	return held, nil
}

func denied(check types.PolicyCheck) error {
	return fmt.Errorf("%w: %s on workspace %d", types.ErrUnauthorizedScope, check.Action, check.Scope.WorkspaceID)
}
