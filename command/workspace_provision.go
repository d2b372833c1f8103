package command

import (
	"context"
	"strconv"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
	"github.com/goliatone/go-workspaces/scope"
	"github.com/goliatone/go-workspaces/workspace"
	"github.com/google/uuid"
)

// ProvisionBaseRolesInput targets an existing workspace that has no base
// roles yet.
type ProvisionBaseRolesInput struct {
	WorkspaceID int64
	Actor       types.ActorRef
	Result      *[]*role.Role
}

// Type implements gocommand.Message.
func (ProvisionBaseRolesInput) Type() string {
	return "command.workspace.provision_base_roles"
}

// Validate implements gocommand.Message.
func (input ProvisionBaseRolesInput) Validate() error {
	switch {
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	case input.WorkspaceID == 0:
		return ErrWorkspaceIDRequired
	default:
		return nil
	}
}

// ProvisionBaseRolesCommand creates the visitor/collaborator/manager chain for
// a persisted workspace.
type ProvisionBaseRolesCommand struct {
	store       WorkspaceStore
	provisioner *workspace.Provisioner
	clock       types.Clock
	sink        types.ActivitySink
	hooks       types.Hooks
	logger      types.Logger
	guard       scope.Guard
}

// ProvisionBaseRolesCommandConfig wires dependencies for the command.
type ProvisionBaseRolesCommandConfig struct {
	Store       WorkspaceStore
	Provisioner *workspace.Provisioner
	Clock       types.Clock
	Activity    types.ActivitySink
	Hooks       types.Hooks
	Logger      types.Logger
	ScopeGuard  scope.Guard
}

// NewProvisionBaseRolesCommand constructs the handler.
func NewProvisionBaseRolesCommand(cfg ProvisionBaseRolesCommandConfig) *ProvisionBaseRolesCommand {
	provisioner := cfg.Provisioner
	if provisioner == nil {
		provisioner = workspace.NewProvisioner(workspace.Naming{})
	}
	return &ProvisionBaseRolesCommand{
		store:       cfg.Store,
		provisioner: provisioner,
		clock:       safeClock(cfg.Clock),
		sink:        cfg.Activity,
		hooks:       cfg.Hooks,
		logger:      safeLogger(cfg.Logger),
		guard:       safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[ProvisionBaseRolesInput] = (*ProvisionBaseRolesCommand)(nil)

// Execute loads the workspace, provisions the base roles and saves them.
func (c *ProvisionBaseRolesCommand) Execute(ctx context.Context, input ProvisionBaseRolesInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	if c.store == nil {
		return ErrMissingStore
	}
	requested := types.ScopeFilter{WorkspaceID: input.WorkspaceID}
	if _, err := c.guard.Enforce(ctx, input.Actor, requested, types.PolicyActionWorkspacesWrite, 0); err != nil {
		return err
	}

	ws, err := c.store.Workspace(ctx, input.WorkspaceID)
	if err != nil {
		return err
	}
	if err := c.provisioner.InitBaseRoles(ws); err != nil {
		return err
	}
	if err := c.store.SaveWorkspace(ctx, ws); err != nil {
		c.logger.Error("base role provisioning failed", err, "workspace_id", ws.ID)
		return err
	}

	created := []*role.Role{
		c.provisioner.VisitorRole(ws),
		c.provisioner.CollaboratorRole(ws),
		c.provisioner.ManagerRole(ws),
	}
	at := now(c.clock)
	names := roleNames(created)
	record := types.ActivityRecord{
		ActorID:     input.Actor.ID,
		WorkspaceID: ws.ID,
		Verb:        "workspace.base_roles_provisioned",
		ObjectType:  "workspace",
		ObjectID:    strconv.FormatInt(ws.ID, 10),
		Channel:     "workspaces",
		Data:        map[string]any{"roles": names},
		OccurredAt:  at,
	}
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitWorkspaceHook(ctx, c.hooks, types.WorkspaceEvent{
		WorkspaceID: ws.ID,
		Action:      "base_roles_provisioned",
		ActorID:     input.Actor.ID,
		OccurredAt:  at,
		RoleNames:   names,
	})

	if input.Result != nil {
		*input.Result = created
	}
	return nil
}
