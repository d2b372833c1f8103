package command

import (
	"context"
	"strconv"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/scope"
	"github.com/goliatone/go-workspaces/workspace"
	"github.com/google/uuid"
)

// WorkspaceCreateInput describes a new workspace. The base roles are
// provisioned in the same transaction.
type WorkspaceCreateInput struct {
	Name       string
	Code       string
	Kind       workspace.Kind
	Type       workspace.Type
	Private    bool
	GrantOwner bool
	Actor      types.ActorRef
	Result     *workspace.Workspace
}

// Type implements gocommand.Message.
func (WorkspaceCreateInput) Type() string {
	return "command.workspace.create"
}

// Validate implements gocommand.Message.
func (input WorkspaceCreateInput) Validate() error {
	switch {
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	case strings.TrimSpace(input.Name) == "", strings.TrimSpace(input.Code) == "":
		return ErrWorkspaceNameRequired
	default:
		return nil
	}
}

// WorkspaceCreateCommand creates workspaces together with their visitor,
// collaborator and manager roles.
type WorkspaceCreateCommand struct {
	store       WorkspaceStore
	provisioner *workspace.Provisioner
	clock       types.Clock
	sink        types.ActivitySink
	hooks       types.Hooks
	logger      types.Logger
	guard       scope.Guard
}

// WorkspaceCreateCommandConfig wires dependencies for the create command.
type WorkspaceCreateCommandConfig struct {
	Store       WorkspaceStore
	Provisioner *workspace.Provisioner
	Clock       types.Clock
	Activity    types.ActivitySink
	Hooks       types.Hooks
	Logger      types.Logger
	ScopeGuard  scope.Guard
}

// NewWorkspaceCreateCommand constructs the handler.
func NewWorkspaceCreateCommand(cfg WorkspaceCreateCommandConfig) *WorkspaceCreateCommand {
	provisioner := cfg.Provisioner
	if provisioner == nil {
		provisioner = workspace.NewProvisioner(workspace.Naming{})
	}
	return &WorkspaceCreateCommand{
		store:       cfg.Store,
		provisioner: provisioner,
		clock:       safeClock(cfg.Clock),
		sink:        cfg.Activity,
		hooks:       cfg.Hooks,
		logger:      safeLogger(cfg.Logger),
		guard:       safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[WorkspaceCreateInput] = (*WorkspaceCreateCommand)(nil)

// Execute persists the workspace and its base roles atomically. When
// GrantOwner is set the actor receives the manager role in the same
// transaction.
func (c *WorkspaceCreateCommand) Execute(ctx context.Context, input WorkspaceCreateInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	if c.store == nil {
		return ErrMissingStore
	}
	if _, err := c.guard.Enforce(ctx, input.Actor, types.ScopeFilter{}, types.PolicyActionWorkspacesWrite, 0); err != nil {
		return err
	}

	ws := workspace.New(strings.TrimSpace(input.Name), strings.TrimSpace(input.Code), input.Type)
	if input.Kind != "" {
		ws.Kind = input.Kind
	}
	ws.SetPublic(!input.Private)
	var owner uuid.UUID
	if input.GrantOwner {
		owner = input.Actor.ID
	}
	if err := c.store.CreateWorkspaceWithRoles(ctx, ws, c.provisioner, owner); err != nil {
		c.logger.Error("workspace create failed", err, "code", ws.Code)
		return err
	}

	at := now(c.clock)
	names := roleNames(ws.Roles)
	record := types.ActivityRecord{
		ActorID:     input.Actor.ID,
		WorkspaceID: ws.ID,
		Verb:        "workspace.created",
		ObjectType:  "workspace",
		ObjectID:    strconv.FormatInt(ws.ID, 10),
		Channel:     "workspaces",
		Data: map[string]any{
			"code":  ws.Code,
			"kind":  string(ws.Kind),
			"roles": names,
			"owner": input.GrantOwner,
		},
		OccurredAt: at,
	}
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitWorkspaceHook(ctx, c.hooks, types.WorkspaceEvent{
		WorkspaceID: ws.ID,
		Action:      "created",
		ActorID:     input.Actor.ID,
		OccurredAt:  at,
		RoleNames:   names,
	})

	if input.Result != nil {
		*input.Result = *ws
	}
	return nil
}
