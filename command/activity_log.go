package command

import (
	"context"
	"fmt"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/scope"
	"github.com/google/uuid"
)

// ActivityLogInput records a host supplied event. Record.WorkspaceID selects
// the workspace the event belongs to; zero files it under the platform.
type ActivityLogInput struct {
	Record types.ActivityRecord
	Actor  types.ActorRef
}

// Type implements gocommand.Message.
func (ActivityLogInput) Type() string {
	return "command.activity.log"
}

// Validate implements gocommand.Message.
func (input ActivityLogInput) Validate() error {
	switch {
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	case strings.TrimSpace(input.Record.Verb) == "":
		return ErrActivityVerbRequired
	default:
		return nil
	}
}

// ActivityLogCommand appends events to the workspace activity log after the
// actor passes the scope guard for the record's workspace.
type ActivityLogCommand struct {
	sink   types.ActivitySink
	hooks  types.Hooks
	clock  types.Clock
	logger types.Logger
	guard  scope.Guard
}

// ActivityLogConfig wires dependencies for the log command.
type ActivityLogConfig struct {
	Sink       types.ActivitySink
	Hooks      types.Hooks
	Clock      types.Clock
	Logger     types.Logger
	ScopeGuard scope.Guard
}

// NewActivityLogCommand constructs the logging command handler.
func NewActivityLogCommand(cfg ActivityLogConfig) *ActivityLogCommand {
	return &ActivityLogCommand{
		sink:   cfg.Sink,
		hooks:  cfg.Hooks,
		clock:  safeClock(cfg.Clock),
		logger: safeLogger(cfg.Logger),
		guard:  safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[ActivityLogInput] = (*ActivityLogCommand)(nil)

// Execute stores the record under the resolved workspace. Records default to
// the calling actor; only administrators and system actors may log on behalf
// of someone else.
func (c *ActivityLogCommand) Execute(ctx context.Context, input ActivityLogInput) error {
	if c.sink == nil {
		return types.ErrMissingActivitySink
	}
	if err := input.Validate(); err != nil {
		return err
	}
	record := input.Record
	if record.ActorID == uuid.Nil {
		record.ActorID = input.Actor.ID
	}
	if record.ActorID != input.Actor.ID && !input.Actor.IsPlatformAdmin() && !input.Actor.IsSystem() {
		return fmt.Errorf("%w: activity for another actor", types.ErrUnauthorizedScope)
	}
	requested := types.ScopeFilter{WorkspaceID: record.WorkspaceID}
	resolved, err := c.guard.Enforce(ctx, input.Actor, requested, types.PolicyActionActivityWrite, 0)
	if err != nil {
		return err
	}
	record.WorkspaceID = resolved.WorkspaceID
	record.Verb = strings.TrimSpace(record.Verb)
	if record.Channel == "" {
		record.Channel = "workspaces"
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = now(c.clock)
	}
	if err := c.sink.Log(ctx, record); err != nil {
		c.logger.Error("activity log failed", err, "verb", record.Verb, "workspace_id", record.WorkspaceID)
		return err
	}
	emitActivityHook(ctx, c.hooks, record)
	return nil
}
