package command

import (
	"context"
	"strings"

	featuregate "github.com/goliatone/go-featuregate/gate"
	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
	"github.com/goliatone/go-workspaces/scope"
	"github.com/goliatone/go-workspaces/workspace"
	"github.com/google/uuid"
)

// CustomRoleAddInput defines an administrator role to bind to a workspace.
// Name must carry the ROLE_ prefix; the stored name becomes
// ROLE_WS_CUSTOM_<workspace id>_<Name>.
type CustomRoleAddInput struct {
	WorkspaceID int64
	Name        string
	ParentID    int64
	Rights      []role.ResourceRights
	Actor       types.ActorRef
	Result      *role.Role
}

// Type implements gocommand.Message.
func (CustomRoleAddInput) Type() string {
	return "command.role.custom.add"
}

// Validate implements gocommand.Message.
func (input CustomRoleAddInput) Validate() error {
	switch {
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	case input.WorkspaceID == 0:
		return ErrWorkspaceIDRequired
	case strings.TrimSpace(input.Name) == "":
		return ErrRoleNameRequired
	default:
		return nil
	}
}

// CustomRoleAddCommand binds new custom roles to workspaces.
type CustomRoleAddCommand struct {
	store  WorkspaceStore
	binder *workspace.Binder
	gate   featuregate.FeatureGate
	clock  types.Clock
	sink   types.ActivitySink
	hooks  types.Hooks
	logger types.Logger
	guard  scope.Guard
}

// CustomRoleCommandConfig wires dependencies for the custom role commands.
type CustomRoleCommandConfig struct {
	Store       WorkspaceStore
	Roles       RoleReader
	Binder      *workspace.Binder
	FeatureGate featuregate.FeatureGate
	Clock       types.Clock
	Activity    types.ActivitySink
	Hooks       types.Hooks
	Logger      types.Logger
	ScopeGuard  scope.Guard
}

func (cfg CustomRoleCommandConfig) binder() *workspace.Binder {
	if cfg.Binder != nil {
		return cfg.Binder
	}
	return workspace.NewBinder(workspace.Naming{})
}

// NewCustomRoleAddCommand constructs the handler.
func NewCustomRoleAddCommand(cfg CustomRoleCommandConfig) *CustomRoleAddCommand {
	return &CustomRoleAddCommand{
		store:  cfg.Store,
		binder: cfg.binder(),
		gate:   cfg.FeatureGate,
		clock:  safeClock(cfg.Clock),
		sink:   cfg.Activity,
		hooks:  cfg.Hooks,
		logger: safeLogger(cfg.Logger),
		guard:  safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[CustomRoleAddInput] = (*CustomRoleAddCommand)(nil)

// Execute creates the role, binds it to the workspace and saves the
// workspace.
func (c *CustomRoleAddCommand) Execute(ctx context.Context, input CustomRoleAddInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	if c.store == nil {
		return ErrMissingStore
	}
	requested := types.ScopeFilter{WorkspaceID: input.WorkspaceID}
	resolved, err := c.guard.Enforce(ctx, input.Actor, requested, types.PolicyActionRolesWrite, 0)
	if err != nil {
		return err
	}
	enabled, err := featureEnabled(ctx, c.gate, featureCustomRoles, resolved, input.Actor.ID)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrCustomRolesDisabled
	}

	ws, err := c.store.Workspace(ctx, input.WorkspaceID)
	if err != nil {
		return err
	}
	var parent *role.Role
	if input.ParentID != 0 {
		parent = findRole(ws.Roles, input.ParentID)
		if parent == nil {
			return types.ErrRoleNotFound
		}
	}

	r, err := role.New(strings.TrimSpace(input.Name), role.CustomRole)
	if err != nil {
		return err
	}
	if err := c.binder.AddCustomRole(ws, r); err != nil {
		return err
	}
	if parent != nil {
		r.SetParent(parent)
	}
	for i := range input.Rights {
		grant := input.Rights[i]
		grant.ID = 0
		r.AddResourceRights(&grant)
	}
	if err := c.store.SaveWorkspace(ctx, ws); err != nil {
		c.logger.Error("custom role save failed", err, "workspace_id", ws.ID, "role", r.Name)
		return err
	}

	at := now(c.clock)
	record := roleActivity(input.Actor, r, "role.custom.added", at, map[string]any{
		"parent_id":      r.ParentID,
		"requested_name": strings.TrimSpace(input.Name),
	})
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitRoleHook(ctx, c.hooks, types.RoleEvent{
		RoleID:      r.ID,
		RoleName:    r.Name,
		WorkspaceID: ws.ID,
		Action:      "custom_added",
		ActorID:     input.Actor.ID,
		OccurredAt:  at,
	})

	if input.Result != nil {
		*input.Result = *r
	}
	return nil
}

// CustomRoleRemoveInput targets a custom role by id.
type CustomRoleRemoveInput struct {
	RoleID int64
	Actor  types.ActorRef
	// Removed reports whether the role was a custom role and got deleted.
	Removed *bool
}

// Type implements gocommand.Message.
func (CustomRoleRemoveInput) Type() string {
	return "command.role.custom.remove"
}

// Validate implements gocommand.Message.
func (input CustomRoleRemoveInput) Validate() error {
	switch {
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	case input.RoleID == 0:
		return ErrRoleIDRequired
	default:
		return nil
	}
}

// CustomRoleRemoveCommand detaches and deletes custom roles. Base and platform
// roles are left alone.
type CustomRoleRemoveCommand struct {
	store  WorkspaceStore
	roles  RoleReader
	binder *workspace.Binder
	clock  types.Clock
	sink   types.ActivitySink
	hooks  types.Hooks
	logger types.Logger
	guard  scope.Guard
}

// NewCustomRoleRemoveCommand constructs the handler.
func NewCustomRoleRemoveCommand(cfg CustomRoleCommandConfig) *CustomRoleRemoveCommand {
	return &CustomRoleRemoveCommand{
		store:  cfg.Store,
		roles:  cfg.Roles,
		binder: cfg.binder(),
		clock:  safeClock(cfg.Clock),
		sink:   cfg.Activity,
		hooks:  cfg.Hooks,
		logger: safeLogger(cfg.Logger),
		guard:  safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[CustomRoleRemoveInput] = (*CustomRoleRemoveCommand)(nil)

// Execute removes the role from its workspace and deletes the row. Roles
// that are not custom roles of their workspace are ignored.
func (c *CustomRoleRemoveCommand) Execute(ctx context.Context, input CustomRoleRemoveInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	if c.store == nil {
		return ErrMissingStore
	}
	r, err := loadRole(ctx, c.roles, input.RoleID)
	if err != nil {
		return err
	}
	requested := types.ScopeFilter{WorkspaceID: r.WorkspaceID}
	if _, err := c.guard.Enforce(ctx, input.Actor, requested, types.PolicyActionRolesWrite, r.ID); err != nil {
		return err
	}

	removed := false
	if r.IsWorkspaceBound() {
		ws, err := c.store.Workspace(ctx, r.WorkspaceID)
		if err != nil {
			return err
		}
		removed = c.binder.RemoveCustomRole(ws, r)
	}
	if removed {
		if err := c.store.DeleteRole(ctx, r); err != nil {
			c.logger.Error("custom role delete failed", err, "role_id", r.ID)
			return err
		}
		at := now(c.clock)
		record := roleActivity(input.Actor, r, "role.custom.removed", at, nil)
		logActivity(ctx, c.sink, record)
		emitActivityHook(ctx, c.hooks, record)
		emitRoleHook(ctx, c.hooks, types.RoleEvent{
			RoleID:      r.ID,
			RoleName:    r.Name,
			WorkspaceID: r.WorkspaceID,
			Action:      "custom_removed",
			ActorID:     input.Actor.ID,
			OccurredAt:  at,
		})
	}

	if input.Removed != nil {
		*input.Removed = removed
	}
	return nil
}

func findRole(roles []*role.Role, id int64) *role.Role {
	for _, r := range roles {
		if r != nil && r.ID == id {
			return r
		}
	}
	return nil
}
