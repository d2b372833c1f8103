package command

import (
	"context"

	"github.com/goliatone/go-workspaces/role"
	"github.com/goliatone/go-workspaces/workspace"
	"github.com/google/uuid"
)

// WorkspaceStore is the persistence collaborator used by workspace and role
// commands. registry.WorkspaceStore satisfies it.
type WorkspaceStore interface {
	Workspace(ctx context.Context, id int64) (*workspace.Workspace, error)
	CreateWorkspaceWithRoles(ctx context.Context, ws *workspace.Workspace, provisioner *workspace.Provisioner, owner uuid.UUID) error
	SaveWorkspace(ctx context.Context, ws *workspace.Workspace) error
	RenameRole(ctx context.Context, r *role.Role, name string) error
	MoveRole(ctx context.Context, r, parent *role.Role) error
	DeleteRole(ctx context.Context, r *role.Role) error
	AssignUser(ctx context.Context, roleID int64, userID, actor uuid.UUID) error
	UnassignUser(ctx context.Context, roleID int64, userID uuid.UUID) error
	AssignGroup(ctx context.Context, roleID int64, groupID, actor uuid.UUID) error
	UnassignGroup(ctx context.Context, roleID int64, groupID uuid.UUID) error
}

// RoleReader loads single roles by id.
type RoleReader interface {
	RoleByID(ctx context.Context, id int64) (*role.Role, error)
}

func loadRole(ctx context.Context, roles RoleReader, id int64) (*role.Role, error) {
	if id == 0 {
		return nil, ErrRoleIDRequired
	}
	if roles == nil {
		return nil, ErrMissingStore
	}
	return roles.RoleByID(ctx, id)
}
