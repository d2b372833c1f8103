package authctx

import (
	"context"
	"strings"

	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/google/uuid"
)

const (
	textCodeActorMissing = "ACTOR_CONTEXT_MISSING"
	textCodeActorInvalid = "ACTOR_CONTEXT_INVALID"
	textCodeRoleLookup   = "ACTOR_ROLE_LOOKUP_FAILED"
)

// RoleNamesLookup returns the role names granted to a user.
// registry.WorkspaceStore.RoleNamesForUser satisfies it.
type RoleNamesLookup func(ctx context.Context, userID uuid.UUID) ([]string, error)

// ActorFromContext is a thin wrapper around go-auth helpers so callers do not
// need to import auth directly when they only need the actor payload.
func ActorFromContext(ctx context.Context) (*auth.ActorContext, bool) {
	return auth.ActorFromContext(ctx)
}

// ActorFromRouterContext extracts the actor payload from router contexts.
func ActorFromRouterContext(ctx router.Context) (*auth.ActorContext, bool) {
	return auth.ActorFromRouterContext(ctx)
}

// ResolveActorContext returns the actor stored by go-auth middleware or
// rebuilds it from JWT claims.
func ResolveActorContext(ctx context.Context) (*auth.ActorContext, error) {
	if ctx == nil {
		return nil, errors.New("go-workspaces: missing request context", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorMissing)
	}

	if actor, ok := auth.ActorFromContext(ctx); ok && actor != nil {
		return actor, nil
	}

	if claims, ok := auth.GetClaims(ctx); ok && claims != nil {
		if actor := auth.ActorContextFromClaims(claims); actor != nil {
			return actor, nil
		}
	}

	return nil, errors.New("go-workspaces: auth actor context not found on request", errors.CategoryAuth).
		WithCode(errors.CodeUnauthorized).
		WithTextCode(textCodeActorMissing)
}

// ResolveActorContextFromRouter mirrors ResolveActorContext for router
// transports.
func ResolveActorContextFromRouter(ctx router.Context) (*auth.ActorContext, error) {
	if ctx == nil {
		return nil, errors.New("go-workspaces: missing router context", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorMissing)
	}

	if actor, ok := auth.ActorFromRouterContext(ctx); ok && actor != nil {
		return actor, nil
	}

	return ResolveActorContext(ctx.Context())
}

// ResolveActor returns the actor reference for the authenticated caller.
// When lookup is set the actor's stored role names are merged into
// ActorRef.Roles so the hierarchy can place it.
func ResolveActor(ctx context.Context, lookup RoleNamesLookup) (types.ActorRef, error) {
	actorCtx, err := ResolveActorContext(ctx)
	if err != nil {
		return types.ActorRef{}, err
	}
	ref, err := ActorRefFromActorContext(actorCtx)
	if err != nil {
		return types.ActorRef{}, err
	}
	return MergeStoredRoles(ctx, ref, lookup)
}

// ResolvePrincipal resolves the authenticated caller as a principal.
func ResolvePrincipal(ctx context.Context, lookup RoleNamesLookup) (types.Principal, error) {
	ref, err := ResolveActor(ctx, lookup)
	if err != nil {
		return types.Principal{}, err
	}
	return ref.Principal(), nil
}

// ActorRefFromActorContext converts the auth middleware payload into an
// ActorRef. The auth role is kept as the actor type and, when it names a
// role, as the first entry of Roles.
func ActorRefFromActorContext(actor *auth.ActorContext) (types.ActorRef, error) {
	if actor == nil {
		return types.ActorRef{}, errors.New("go-workspaces: actor context is nil", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorInvalid)
	}
	if actor.ActorID == "" {
		return types.ActorRef{}, errors.New("go-workspaces: actor context missing actor_id", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorInvalid)
	}

	actorID, err := uuid.Parse(actor.ActorID)
	if err != nil {
		return types.ActorRef{}, errors.Wrap(err, errors.CategoryAuth, "go-workspaces: invalid actor_id on auth context").
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorInvalid)
	}

	ref := types.ActorRef{
		ID:   actorID,
		Type: actor.Role,
	}
	if ref.Type == "" && actor.Subject != "" {
		ref.Type = actor.Subject
	}
	if name := roleName(actor.Role); name != "" {
		ref.Roles = []string{name}
	}
	return ref, nil
}

// roleName maps auth roles onto platform role names.
func roleName(raw string) string {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "":
		return ""
	case "admin", "superadmin", "super_admin", "system_admin":
		return types.PlatformAdminRole
	}
	if strings.HasPrefix(raw, "ROLE_") {
		return raw
	}
	return ""
}

// MergeStoredRoles appends the role names lookup returns for ref.ID to
// ref.Roles. A nil lookup leaves ref unchanged.
func MergeStoredRoles(ctx context.Context, ref types.ActorRef, lookup RoleNamesLookup) (types.ActorRef, error) {
	if lookup == nil {
		return ref, nil
	}
	names, err := lookup(ctx, ref.ID)
	if err != nil {
		return types.ActorRef{}, errors.Wrap(err, errors.CategoryInternal, "go-workspaces: actor role lookup failed").
			WithCode(errors.CodeInternal).
			WithTextCode(textCodeRoleLookup)
	}
	for _, name := range names {
		if !ref.HasRole(name) {
			ref.Roles = append(ref.Roles, name)
		}
	}
	return ref, nil
}
