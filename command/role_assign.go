package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
	"github.com/google/uuid"
)

// RoleAssignInput grants or revokes a role for exactly one member, either a
// user or a group.
type RoleAssignInput struct {
	RoleID  int64
	UserID  uuid.UUID
	GroupID uuid.UUID
	Actor   types.ActorRef
}

// Type implements gocommand.Message.
func (RoleAssignInput) Type() string {
	return "command.role.assign"
}

// Validate implements gocommand.Message.
func (input RoleAssignInput) Validate() error {
	switch {
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	case input.RoleID == 0:
		return ErrRoleIDRequired
	case (input.UserID == uuid.Nil) == (input.GroupID == uuid.Nil):
		return ErrMemberRequired
	default:
		return nil
	}
}

func (input RoleAssignInput) member() (uuid.UUID, string) {
	if input.UserID != uuid.Nil {
		return input.UserID, "user"
	}
	return input.GroupID, "group"
}

// RoleUnassignInput mirrors RoleAssignInput for revocations.
type RoleUnassignInput RoleAssignInput

// Type implements gocommand.Message.
func (RoleUnassignInput) Type() string {
	return "command.role.unassign"
}

// Validate implements gocommand.Message.
func (input RoleUnassignInput) Validate() error {
	return RoleAssignInput(input).Validate()
}

// RoleAssignCommand grants roles to users or groups.
type RoleAssignCommand struct {
	roleCommand
}

// NewRoleAssignCommand constructs the handler.
func NewRoleAssignCommand(cfg RoleCommandConfig) *RoleAssignCommand {
	return &RoleAssignCommand{roleCommand: newRoleCommand(cfg)}
}

var _ gocommand.Commander[RoleAssignInput] = (*RoleAssignCommand)(nil)

// Execute grants the role. Repeated grants are ignored by the store.
func (c *RoleAssignCommand) Execute(ctx context.Context, input RoleAssignInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	r, err := c.authorize(ctx, input.Actor, input.RoleID)
	if err != nil {
		return err
	}
	member, kind := input.member()
	if kind == "user" {
		err = c.store.AssignUser(ctx, r.ID, member, input.Actor.ID)
	} else {
		err = c.store.AssignGroup(ctx, r.ID, member, input.Actor.ID)
	}
	if err != nil {
		return err
	}
	c.recordMembership(ctx, input.Actor, r, member, kind, "assigned")
	return nil
}

// RoleUnassignCommand revokes roles from users or groups.
type RoleUnassignCommand struct {
	roleCommand
}

// NewRoleUnassignCommand constructs the handler.
func NewRoleUnassignCommand(cfg RoleCommandConfig) *RoleUnassignCommand {
	return &RoleUnassignCommand{roleCommand: newRoleCommand(cfg)}
}

var _ gocommand.Commander[RoleUnassignInput] = (*RoleUnassignCommand)(nil)

// Execute revokes the role.
func (c *RoleUnassignCommand) Execute(ctx context.Context, input RoleUnassignInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	r, err := c.authorize(ctx, input.Actor, input.RoleID)
	if err != nil {
		return err
	}
	member, kind := RoleAssignInput(input).member()
	if kind == "user" {
		err = c.store.UnassignUser(ctx, r.ID, member)
	} else {
		err = c.store.UnassignGroup(ctx, r.ID, member)
	}
	if err != nil {
		return err
	}
	c.recordMembership(ctx, input.Actor, r, member, kind, "unassigned")
	return nil
}

func (c roleCommand) recordMembership(ctx context.Context, actor types.ActorRef, r *role.Role, member uuid.UUID, kind, action string) {
	at := now(c.clock)
	record := roleActivity(actor, r, "role."+action, at, map[string]any{
		"member_id":   member.String(),
		"member_type": kind,
	})
	if kind == "user" {
		record.UserID = member
	}
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitRoleHook(ctx, c.hooks, types.RoleEvent{
		RoleID:      r.ID,
		RoleName:    r.Name,
		WorkspaceID: r.WorkspaceID,
		MemberID:    member,
		Action:      action,
		ActorID:     actor.ID,
		OccurredAt:  at,
	})
}
