package validation

import (
	"context"

	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-auth/middleware/jwtware"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-workspaces/pkg/authctx"
	"github.com/goliatone/go-workspaces/pkg/types"
)

// ListenerOptions customize the validation listener behaviour.
type ListenerOptions struct {
	ActivitySink types.ActivitySink
	Logger       types.Logger
	// Roles merges stored role memberships into the principal handed to
	// OnPrincipal.
	Roles authctx.RoleNamesLookup
	// OnPrincipal runs after each validated token, e.g. to warm a role cache.
	OnPrincipal func(ctx context.Context, principal types.Principal)
}

// Listener records token validations and resolves the principal behind them.
type Listener struct {
	sink        types.ActivitySink
	logger      types.Logger
	roles       authctx.RoleNamesLookup
	onPrincipal func(context.Context, types.Principal)
}

// New builds a listener.
func New(opts ListenerOptions) *Listener {
	logger := opts.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Listener{
		sink:        opts.ActivitySink,
		logger:      logger,
		roles:       opts.Roles,
		onPrincipal: opts.OnPrincipal,
	}
}

// NewListener returns a jwtware.ValidationListener that emits audit records
// and resolves principals whenever a token is validated.
func NewListener(opts ListenerOptions) jwtware.ValidationListener {
	return New(opts).ValidationListener()
}

// ValidationListener adapts the listener to go-auth's jwt middleware.
func (l *Listener) ValidationListener() jwtware.ValidationListener {
	return func(ctx router.Context, claims jwtware.AuthClaims) error {
		actorCtx, err := authctx.ResolveActorContextFromRouter(ctx)
		if err != nil {
			l.logger.Error("validation listener failed to resolve actor", err)
			return nil
		}
		l.Observe(ctx.Context(), actorCtx, claims.Subject())
		return nil
	}
}

// Observe handles one validated actor. Failures are logged, never returned,
// so a broken sink cannot reject an otherwise valid token.
func (l *Listener) Observe(ctx context.Context, actorCtx *auth.ActorContext, subject string) {
	actor, err := authctx.ActorRefFromActorContext(actorCtx)
	if err != nil {
		l.logger.Error("validation listener rejected actor context", err)
		return
	}
	if l.sink != nil {
		record := types.ActivityRecord{
			ActorID:    actor.ID,
			UserID:     actor.ID,
			Verb:       "auth.validated",
			ObjectType: "auth",
			ObjectID:   subject,
			Channel:    "auth",
			Data: map[string]any{
				"role": actorCtx.Role,
			},
		}
		if err := l.sink.Log(ctx, record); err != nil {
			l.logger.Error("validation activity sink failed", err)
		}
	}
	if l.onPrincipal == nil {
		return
	}
	merged, err := authctx.MergeStoredRoles(ctx, actor, l.roles)
	if err != nil {
		l.logger.Error("validation listener role lookup failed", err, "actor_id", actor.ID)
		return
	}
	l.onPrincipal(ctx, merged.Principal())
}
