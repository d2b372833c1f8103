package command

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
	"github.com/goliatone/go-workspaces/scope"
	"github.com/google/uuid"
)

// RoleCommandConfig wires the dependencies shared by the rename, move and
// delete commands.
type RoleCommandConfig struct {
	Store      WorkspaceStore
	Roles      RoleReader
	Clock      types.Clock
	Activity   types.ActivitySink
	Hooks      types.Hooks
	Logger     types.Logger
	ScopeGuard scope.Guard
}

type roleCommand struct {
	store  WorkspaceStore
	roles  RoleReader
	clock  types.Clock
	sink   types.ActivitySink
	hooks  types.Hooks
	logger types.Logger
	guard  scope.Guard
}

func newRoleCommand(cfg RoleCommandConfig) roleCommand {
	return roleCommand{
		store:  cfg.Store,
		roles:  cfg.Roles,
		clock:  safeClock(cfg.Clock),
		sink:   cfg.Activity,
		hooks:  cfg.Hooks,
		logger: safeLogger(cfg.Logger),
		guard:  safeScopeGuard(cfg.ScopeGuard),
	}
}

// authorize loads the role and checks write access in the role's own
// workspace.
func (c roleCommand) authorize(ctx context.Context, actor types.ActorRef, roleID int64) (*role.Role, error) {
	if c.store == nil {
		return nil, ErrMissingStore
	}
	r, err := loadRole(ctx, c.roles, roleID)
	if err != nil {
		return nil, err
	}
	requested := types.ScopeFilter{WorkspaceID: r.WorkspaceID}
	if _, err := c.guard.Enforce(ctx, actor, requested, types.PolicyActionRolesWrite, r.ID); err != nil {
		return nil, err
	}
	return r, nil
}

func (c roleCommand) record(ctx context.Context, actor types.ActorRef, r *role.Role, action string, data map[string]any) {
	at := now(c.clock)
	record := roleActivity(actor, r, "role."+action, at, data)
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitRoleHook(ctx, c.hooks, types.RoleEvent{
		RoleID:      r.ID,
		RoleName:    r.Name,
		WorkspaceID: r.WorkspaceID,
		Action:      action,
		ActorID:     actor.ID,
		OccurredAt:  at,
	})
}

// RoleRenameInput renames a role that is not bound to a workspace. Platform
// roles refuse renames and workspace role names are fixed once bound.
type RoleRenameInput struct {
	RoleID int64
	Name   string
	Actor  types.ActorRef
	Result *role.Role
}

// Type implements gocommand.Message.
func (RoleRenameInput) Type() string {
	return "command.role.rename"
}

// Validate implements gocommand.Message.
func (input RoleRenameInput) Validate() error {
	switch {
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	case input.RoleID == 0:
		return ErrRoleIDRequired
	case strings.TrimSpace(input.Name) == "":
		return ErrRoleNameRequired
	default:
		return nil
	}
}

// RoleRenameCommand persists role renames.
type RoleRenameCommand struct {
	roleCommand
}

// NewRoleRenameCommand constructs the handler.
func NewRoleRenameCommand(cfg RoleCommandConfig) *RoleRenameCommand {
	return &RoleRenameCommand{roleCommand: newRoleCommand(cfg)}
}

var _ gocommand.Commander[RoleRenameInput] = (*RoleRenameCommand)(nil)

// Execute renames the role.
func (c *RoleRenameCommand) Execute(ctx context.Context, input RoleRenameInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	r, err := c.authorize(ctx, input.Actor, input.RoleID)
	if err != nil {
		return err
	}
	previous := r.Name
	if err := c.store.RenameRole(ctx, r, strings.TrimSpace(input.Name)); err != nil {
		return err
	}
	c.record(ctx, input.Actor, r, "renamed", map[string]any{"previous_name": previous})
	if input.Result != nil {
		*input.Result = *r
	}
	return nil
}

// RoleMoveInput reparents a role inside its workspace. A zero ParentID
// turns the role into a root.
type RoleMoveInput struct {
	RoleID   int64
	ParentID int64
	Actor    types.ActorRef
	Result   *role.Role
}

// Type implements gocommand.Message.
func (RoleMoveInput) Type() string {
	return "command.role.move"
}

// Validate implements gocommand.Message.
func (input RoleMoveInput) Validate() error {
	switch {
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	case input.RoleID == 0:
		return ErrRoleIDRequired
	default:
		return nil
	}
}

// RoleMoveCommand changes parent links and rebuilds the workspace tree.
type RoleMoveCommand struct {
	roleCommand
}

// NewRoleMoveCommand constructs the handler.
func NewRoleMoveCommand(cfg RoleCommandConfig) *RoleMoveCommand {
	return &RoleMoveCommand{roleCommand: newRoleCommand(cfg)}
}

var _ gocommand.Commander[RoleMoveInput] = (*RoleMoveCommand)(nil)

// Execute moves the role under the new parent.
func (c *RoleMoveCommand) Execute(ctx context.Context, input RoleMoveInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	r, err := c.authorize(ctx, input.Actor, input.RoleID)
	if err != nil {
		return err
	}
	var parent *role.Role
	if input.ParentID != 0 {
		parent, err = loadRole(ctx, c.roles, input.ParentID)
		if err != nil {
			return err
		}
	}
	previous := r.ParentID
	if err := c.store.MoveRole(ctx, r, parent); err != nil {
		return err
	}
	c.record(ctx, input.Actor, r, "moved", map[string]any{
		"previous_parent_id": previous,
		"parent_id":          r.ParentID,
	})
	if input.Result != nil {
		*input.Result = *r
	}
	return nil
}

// RoleDeleteInput removes a role with its grants and memberships.
type RoleDeleteInput struct {
	RoleID int64
	Actor  types.ActorRef
}

// Type implements gocommand.Message.
func (RoleDeleteInput) Type() string {
	return "command.role.delete"
}

// Validate implements gocommand.Message.
func (input RoleDeleteInput) Validate() error {
	switch {
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	case input.RoleID == 0:
		return ErrRoleIDRequired
	default:
		return nil
	}
}

// RoleDeleteCommand deletes roles. Platform roles are refused.
type RoleDeleteCommand struct {
	roleCommand
}

// NewRoleDeleteCommand constructs the handler.
func NewRoleDeleteCommand(cfg RoleCommandConfig) *RoleDeleteCommand {
	return &RoleDeleteCommand{roleCommand: newRoleCommand(cfg)}
}

var _ gocommand.Commander[RoleDeleteInput] = (*RoleDeleteCommand)(nil)

// Execute deletes the role.
func (c *RoleDeleteCommand) Execute(ctx context.Context, input RoleDeleteInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	r, err := c.authorize(ctx, input.Actor, input.RoleID)
	if err != nil {
		return err
	}
	if err := c.store.DeleteRole(ctx, r); err != nil {
		c.logger.Error("role delete failed", err, "role_id", r.ID)
		return err
	}
	c.record(ctx, input.Actor, r, "deleted", nil)
	return nil
}
