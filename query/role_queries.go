package query

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
	"github.com/goliatone/go-workspaces/scope"
	"github.com/google/uuid"
)

var (
	errWorkspaceIDRequired = errors.New("go-workspaces: workspace id required")
	errUnknownBaseRole     = errors.New("go-workspaces: unknown base role kind")
)

// RoleStore is the read side of the role hierarchy. registry.RoleStore
// satisfies it.
type RoleStore interface {
	PlatformRoles(ctx context.Context) ([]*role.Role, error)
	WorkspaceRoles(ctx context.Context, workspaceID int64) ([]*role.Role, error)
	VisitorRole(ctx context.Context, workspaceID int64) (*role.Role, error)
	CollaboratorRole(ctx context.Context, workspaceID int64) (*role.Role, error)
	ManagerRole(ctx context.Context, workspaceID int64) (*role.Role, error)
	RoleForPrincipalInWorkspace(ctx context.Context, principal types.Principal, workspaceID int64) (*role.Role, error)
}

// PlatformRolesInput requests the platform wide roles.
type PlatformRolesInput struct {
	Actor types.ActorRef
}

// Type implements gocommand.Message.
func (PlatformRolesInput) Type() string {
	return "query.role.platform"
}

// Validate implements gocommand.Message.
func (input PlatformRolesInput) Validate() error {
	if input.Actor.ID == uuid.Nil {
		return types.ErrActorRequired
	}
	return nil
}

// PlatformRolesQuery lists roles that belong to no workspace.
type PlatformRolesQuery struct {
	store RoleStore
	guard scope.Guard
}

// NewPlatformRolesQuery builds the query.
func NewPlatformRolesQuery(store RoleStore, guard scope.Guard) *PlatformRolesQuery {
	return &PlatformRolesQuery{store: store, guard: safeScopeGuard(guard)}
}

var _ gocommand.Querier[PlatformRolesInput, []*role.Role] = (*PlatformRolesQuery)(nil)

// Query returns the platform roles.
func (q *PlatformRolesQuery) Query(ctx context.Context, input PlatformRolesInput) ([]*role.Role, error) {
	if q.store == nil {
		return nil, types.ErrMissingRoleStore
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if _, err := q.guard.Enforce(ctx, input.Actor, types.ScopeFilter{}, types.PolicyActionRolesRead, 0); err != nil {
		return nil, err
	}
	return q.store.PlatformRoles(ctx)
}

// WorkspaceRolesInput requests the roles of one workspace.
type WorkspaceRolesInput struct {
	WorkspaceID int64
	Actor       types.ActorRef
}

// Type implements gocommand.Message.
func (WorkspaceRolesInput) Type() string {
	return "query.role.workspace"
}

// Validate implements gocommand.Message.
func (input WorkspaceRolesInput) Validate() error {
	switch {
	case input.Actor.ID == uuid.Nil:
		return types.ErrActorRequired
	case input.WorkspaceID == 0:
		return errWorkspaceIDRequired
	default:
		return nil
	}
}

// WorkspaceRolesQuery lists the roles bound to a workspace, anonymous
// excluded, in tree order.
type WorkspaceRolesQuery struct {
	store RoleStore
	guard scope.Guard
}

// NewWorkspaceRolesQuery builds the query.
func NewWorkspaceRolesQuery(store RoleStore, guard scope.Guard) *WorkspaceRolesQuery {
	return &WorkspaceRolesQuery{store: store, guard: safeScopeGuard(guard)}
}

var _ gocommand.Querier[WorkspaceRolesInput, []*role.Role] = (*WorkspaceRolesQuery)(nil)

// Query returns the workspace roles.
func (q *WorkspaceRolesQuery) Query(ctx context.Context, input WorkspaceRolesInput) ([]*role.Role, error) {
	if q.store == nil {
		return nil, types.ErrMissingRoleStore
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	resolved, err := q.guard.Enforce(ctx, input.Actor, types.ScopeFilter{WorkspaceID: input.WorkspaceID}, types.PolicyActionRolesRead, 0)
	if err != nil {
		return nil, err
	}
	return q.store.WorkspaceRoles(ctx, resolved.WorkspaceID)
}

// BaseRoleKind selects one of the three provisioned workspace roles.
type BaseRoleKind string

const (
	BaseRoleVisitor      BaseRoleKind = "visitor"
	BaseRoleCollaborator BaseRoleKind = "collaborator"
	BaseRoleManager      BaseRoleKind = "manager"
)

// BaseRoleInput requests a base role by kind.
type BaseRoleInput struct {
	WorkspaceID int64
	Kind        BaseRoleKind
	Actor       types.ActorRef
}

// Type implements gocommand.Message.
func (BaseRoleInput) Type() string {
	return "query.role.base"
}

// Validate implements gocommand.Message.
func (input BaseRoleInput) Validate() error {
	if err := (WorkspaceRolesInput{WorkspaceID: input.WorkspaceID, Actor: input.Actor}).Validate(); err != nil {
		return err
	}
	switch input.Kind {
	case BaseRoleVisitor, BaseRoleCollaborator, BaseRoleManager:
		return nil
	default:
		return errUnknownBaseRole
	}
}

// BaseRoleQuery performs exact base role lookups. A missing role is an
// error (types.ErrRoleNotFound).
type BaseRoleQuery struct {
	store RoleStore
	guard scope.Guard
}

// NewBaseRoleQuery builds the query.
func NewBaseRoleQuery(store RoleStore, guard scope.Guard) *BaseRoleQuery {
	return &BaseRoleQuery{store: store, guard: safeScopeGuard(guard)}
}

var _ gocommand.Querier[BaseRoleInput, *role.Role] = (*BaseRoleQuery)(nil)

// Query returns the requested base role.
func (q *BaseRoleQuery) Query(ctx context.Context, input BaseRoleInput) (*role.Role, error) {
	if q.store == nil {
		return nil, types.ErrMissingRoleStore
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	resolved, err := q.guard.Enforce(ctx, input.Actor, types.ScopeFilter{WorkspaceID: input.WorkspaceID}, types.PolicyActionRolesRead, 0)
	if err != nil {
		return nil, err
	}
	switch input.Kind {
	case BaseRoleVisitor:
		return q.store.VisitorRole(ctx, resolved.WorkspaceID)
	case BaseRoleCollaborator:
		return q.store.CollaboratorRole(ctx, resolved.WorkspaceID)
	default:
		return q.store.ManagerRole(ctx, resolved.WorkspaceID)
	}
}

// PrincipalRoleInput asks which workspace role a principal holds. A zero
// Principal means the actor itself.
type PrincipalRoleInput struct {
	WorkspaceID int64
	Principal   types.Principal
	Actor       types.ActorRef
}

// Type implements gocommand.Message.
func (PrincipalRoleInput) Type() string {
	return "query.role.principal"
}

// Validate implements gocommand.Message.
func (input PrincipalRoleInput) Validate() error {
	return WorkspaceRolesInput{WorkspaceID: input.WorkspaceID, Actor: input.Actor}.Validate()
}

// PrincipalRoleQuery resolves the first workspace role held by a principal.
// The result is nil when the principal holds none.
type PrincipalRoleQuery struct {
	store RoleStore
	guard scope.Guard
}

// NewPrincipalRoleQuery builds the query.
func NewPrincipalRoleQuery(store RoleStore, guard scope.Guard) *PrincipalRoleQuery {
	return &PrincipalRoleQuery{store: store, guard: safeScopeGuard(guard)}
}

var _ gocommand.Querier[PrincipalRoleInput, *role.Role] = (*PrincipalRoleQuery)(nil)

// Query returns the principal's role or nil. A zero Principal looks up the
// actor's own role and only resolves scope; any supplied principal needs
// roles:read, even one carrying the actor's id.
func (q *PrincipalRoleQuery) Query(ctx context.Context, input PrincipalRoleInput) (*role.Role, error) {
	if q.store == nil {
		return nil, types.ErrMissingRoleStore
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	principal := input.Principal
	action := types.PolicyActionRolesRead
	if principal.ID == uuid.Nil && len(principal.Roles) == 0 {
		principal = input.Actor.Principal()
		action = ""
	}
	resolved, err := q.guard.Enforce(ctx, input.Actor, types.ScopeFilter{WorkspaceID: input.WorkspaceID}, action, 0)
	if err != nil {
		return nil, err
	}
	return q.store.RoleForPrincipalInWorkspace(ctx, principal, resolved.WorkspaceID)
}
