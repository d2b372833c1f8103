package command

import (
	"context"
	"strconv"
	"time"

	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
	"github.com/goliatone/go-workspaces/scope"
)

func safeClock(clock types.Clock) types.Clock {
	if clock != nil {
		return clock
	}
	return types.SystemClock{}
}

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func safeScopeGuard(g scope.Guard) scope.Guard {
	return scope.Ensure(g)
}

func now(clock types.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now()
}

func logActivity(ctx context.Context, sink types.ActivitySink, record types.ActivityRecord) {
	if sink == nil {
		return
	}
	_ = sink.Log(ctx, record)
}

func emitActivityHook(ctx context.Context, hooks types.Hooks, record types.ActivityRecord) {
	if hooks.AfterActivity == nil {
		return
	}
	hooks.AfterActivity(ctx, record)
}

func emitRoleHook(ctx context.Context, hooks types.Hooks, event types.RoleEvent) {
	if hooks.AfterRoleChange == nil {
		return
	}
	hooks.AfterRoleChange(ctx, event)
}

func emitWorkspaceHook(ctx context.Context, hooks types.Hooks, event types.WorkspaceEvent) {
	if hooks.AfterWorkspaceChange == nil {
		return
	}
	hooks.AfterWorkspaceChange(ctx, event)
}

func emitProfileHook(ctx context.Context, hooks types.Hooks, event types.ProfileEvent) {
	if hooks.AfterProfileChange == nil {
		return
	}
	hooks.AfterProfileChange(ctx, event)
}

// roleActivity builds the activity record shared by role commands.
func roleActivity(actor types.ActorRef, r *role.Role, verb string, at time.Time, data map[string]any) types.ActivityRecord {
	if data == nil {
		data = map[string]any{}
	}
	data["role_name"] = r.Name
	return types.ActivityRecord{
		ActorID:     actor.ID,
		WorkspaceID: r.WorkspaceID,
		Verb:        verb,
		ObjectType:  "role",
		ObjectID:    strconv.FormatInt(r.ID, 10),
		Channel:     "roles",
		Data:        data,
		OccurredAt:  at,
	}
}

func roleNames(roles []*role.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r != nil {
			out = append(out, r.Name)
		}
	}
	return out
}
