package types

import (
	"context"
	"errors"
)

// PolicyAction enumerates the authorization actions enforced by the scope
// guard. Host applications can remap these actions to their own ACL systems.
type PolicyAction string

const (
	PolicyActionWorkspacesWrite PolicyAction = "workspaces:write"
	PolicyActionRolesRead       PolicyAction = "roles:read"
	PolicyActionRolesWrite      PolicyAction = "roles:write"
	PolicyActionActivityRead    PolicyAction = "activity:read"
	PolicyActionActivityWrite   PolicyAction = "activity:write"
	PolicyActionProfilesRead    PolicyAction = "profiles:read"
	PolicyActionProfilesWrite   PolicyAction = "profiles:write"
)

// IsWrite reports whether the action needs manager level access inside a
// workspace. Appending activity only needs membership.
func (a PolicyAction) IsWrite() bool {
	switch a {
	case PolicyActionWorkspacesWrite, PolicyActionRolesWrite, PolicyActionProfilesWrite:
		return true
	default:
		return false
	}
}

// PolicyCheck captures the authorization context for a single command/query.
// TargetID is the role id for role actions and zero otherwise.
type PolicyCheck struct {
	Actor    ActorRef
	Scope    ScopeFilter
	Action   PolicyAction
	TargetID int64
}

// ScopeResolver resolves requested scopes into canonical values based on the
// actor and host application rules.
type ScopeResolver interface {
	ResolveScope(ctx context.Context, actor ActorRef, requested ScopeFilter) (ScopeFilter, error)
}

// ScopeResolverFunc adapts bare functions to ScopeResolver.
type ScopeResolverFunc func(ctx context.Context, actor ActorRef, requested ScopeFilter) (ScopeFilter, error)

// ResolveScope implements ScopeResolver.
func (f ScopeResolverFunc) ResolveScope(ctx context.Context, actor ActorRef, requested ScopeFilter) (ScopeFilter, error) {
	return f(ctx, actor, requested)
}

// AuthorizationPolicy governs whether an actor can access the requested scope
// for the supplied action.
type AuthorizationPolicy interface {
	Authorize(ctx context.Context, check PolicyCheck) error
}

// AuthorizationPolicyFunc adapts bare functions to AuthorizationPolicy.
type AuthorizationPolicyFunc func(ctx context.Context, check PolicyCheck) error

// Authorize implements AuthorizationPolicy.
func (f AuthorizationPolicyFunc) Authorize(ctx context.Context, check PolicyCheck) error {
	return f(ctx, check)
}

var (
	// ErrUnauthorizedScope indicates the supplied scope is not visible to the
	// actor according to the configured authorization policy.
	ErrUnauthorizedScope = errors.New("go-workspaces: actor not authorized for scope")
)

// PassthroughScopeResolver returns the requested scope as-is.
type PassthroughScopeResolver struct{}

// ResolveScope implements ScopeResolver.
func (PassthroughScopeResolver) ResolveScope(_ context.Context, _ ActorRef, requested ScopeFilter) (ScopeFilter, error) {
	return requested, nil
}

// AllowAllAuthorizationPolicy allows every action/scope combination.
type AllowAllAuthorizationPolicy struct{}

// Authorize implements AuthorizationPolicy.
func (AllowAllAuthorizationPolicy) Authorize(context.Context, PolicyCheck) error {
	return nil
}
