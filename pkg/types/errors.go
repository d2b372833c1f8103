package types

import "errors"

var (
	// ErrInvalidRoleName indicates a role name is empty or lacks the ROLE_ prefix.
	ErrInvalidRoleName = errors.New("go-workspaces: role names must start with \"ROLE_\"")
	// ErrImmutableRole indicates an attempt to rename or delete a platform role.
	ErrImmutableRole = errors.New("go-workspaces: platform roles cannot be modified or deleted")
	// ErrUnpersistedWorkspace indicates the workspace has no identifier yet.
	ErrUnpersistedWorkspace = errors.New("go-workspaces: workspace must be persisted and have a valid id before associating roles to it")
	// ErrBaseRolesInitialized indicates the workspace base roles already exist.
	ErrBaseRolesInitialized = errors.New("go-workspaces: base workspace roles are already set")
	// ErrCrossWorkspaceBinding indicates a role is already bound to another workspace.
	ErrCrossWorkspaceBinding = errors.New("go-workspaces: workspace roles are bound to only one workspace")
	// ErrRoleNotFound indicates an exact role lookup found no row.
	ErrRoleNotFound = errors.New("go-workspaces: role not found")
	// ErrWorkspaceNotFound indicates the workspace lookup found no row.
	ErrWorkspaceNotFound = errors.New("go-workspaces: workspace not found")
	// ErrDuplicateRoleName indicates the storage layer rejected a role name
	// that is already taken.
	ErrDuplicateRoleName = errors.New("go-workspaces: role name already exists")
	// ErrBoundRoleName indicates a rename of a role that belongs to a workspace.
	ErrBoundRoleName = errors.New("go-workspaces: workspace role names are fixed once bound")
	// ErrReservedRoleName indicates a name reserved for provisioned or bound
	// workspace roles.
	ErrReservedRoleName = errors.New("go-workspaces: role name is reserved for workspace roles")
	// ErrTreeCycle indicates parent links would form a loop.
	ErrTreeCycle = errors.New("go-workspaces: role hierarchy cannot contain cycles")

	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = errors.New("go-workspaces: actor reference required")
	// ErrUserIDRequired indicates a user identifier was omitted.
	ErrUserIDRequired = errors.New("go-workspaces: user id required")
	// ErrServiceNotReady indicates the service has not been properly configured.
	ErrServiceNotReady = errors.New("go-workspaces: service not ready")
	// ErrMissingRoleStore occurs when no role store was supplied.
	ErrMissingRoleStore = errors.New("go-workspaces: missing role store")
	// ErrMissingWorkspaceStore occurs when no workspace store was supplied.
	ErrMissingWorkspaceStore = errors.New("go-workspaces: missing workspace store")
	// ErrMissingActivityRepository occurs when no activity repository was supplied.
	ErrMissingActivityRepository = errors.New("go-workspaces: missing activity repository")
	// ErrMissingActivitySink occurs when the activity log command has no sink.
	ErrMissingActivitySink = errors.New("go-workspaces: missing activity sink")
	// ErrMissingProfileRepository occurs when profile commands lack a storage backend.
	ErrMissingProfileRepository = errors.New("go-workspaces: missing profile repository")
)
