package command

import (
	"context"
	"fmt"
	"sort"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/scope"
	"github.com/google/uuid"
)

// ProfileCommandConfig wires dependencies for profile commands.
type ProfileCommandConfig struct {
	Repository types.ProfileRepository
	Activity   types.ActivitySink
	Hooks      types.Hooks
	Clock      types.Clock
	ScopeGuard scope.Guard
}

// ProfileUpdateInput captures a profile patch request.
type ProfileUpdateInput struct {
	UserID uuid.UUID
	Patch  types.ProfilePatch
	Actor  types.ActorRef
	Result *types.UserProfile
}

// Type implements gocommand.Message.
func (ProfileUpdateInput) Type() string {
	return "command.profile.update"
}

// Validate implements gocommand.Message.
func (input ProfileUpdateInput) Validate() error {
	if input.UserID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	if input.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	return nil
}

// ProfileUpdateCommand applies profile patches. Users edit their own
// profile; platform administrators and system actors may edit any.
type ProfileUpdateCommand struct {
	repo  types.ProfileRepository
	sink  types.ActivitySink
	hooks types.Hooks
	clock types.Clock
	guard scope.Guard
}

// NewProfileUpdateCommand constructs the profile command handler.
func NewProfileUpdateCommand(cfg ProfileCommandConfig) *ProfileUpdateCommand {
	return &ProfileUpdateCommand{
		repo:  cfg.Repository,
		sink:  cfg.Activity,
		hooks: cfg.Hooks,
		clock: safeClock(cfg.Clock),
		guard: safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[ProfileUpdateInput] = (*ProfileUpdateCommand)(nil)

// Execute applies the supplied patch creating the profile when necessary.
func (c *ProfileUpdateCommand) Execute(ctx context.Context, input ProfileUpdateInput) error {
	if c.repo == nil {
		return types.ErrMissingProfileRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	if input.Actor.ID != input.UserID && !input.Actor.IsPlatformAdmin() && !input.Actor.IsSystem() {
		return fmt.Errorf("%w: profile of %s", types.ErrUnauthorizedScope, input.UserID)
	}
	if _, err := c.guard.Enforce(ctx, input.Actor, types.ScopeFilter{}, types.PolicyActionProfilesWrite, 0); err != nil {
		return err
	}

	existing, err := c.repo.GetProfile(ctx, input.UserID)
	if err != nil {
		return err
	}
	profile := &types.UserProfile{UserID: input.UserID}
	if existing != nil {
		*profile = *existing
	}
	if profile.CreatedBy == uuid.Nil {
		profile.CreatedBy = input.Actor.ID
	}
	profile.UpdatedBy = input.Actor.ID
	applyProfilePatch(profile, input.Patch)

	updated, err := c.repo.UpsertProfile(ctx, *profile)
	if err != nil {
		return err
	}
	if updated != nil {
		profile = updated
	}

	at := now(c.clock)
	fields := patchedFields(input.Patch)
	record := types.ActivityRecord{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		Verb:       "profile.updated",
		ObjectType: "profile",
		ObjectID:   input.UserID.String(),
		Channel:    "profiles",
		Data:       map[string]any{"fields": fields},
		OccurredAt: at,
	}
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitProfileHook(ctx, c.hooks, types.ProfileEvent{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		OccurredAt: at,
		Profile:    *profile,
	})
	if input.Result != nil {
		*input.Result = *profile
	}
	return nil
}

func applyProfilePatch(profile *types.UserProfile, patch types.ProfilePatch) {
	if profile == nil {
		return
	}
	if patch.Username != nil {
		profile.Username = *patch.Username
	}
	if patch.FirstName != nil {
		profile.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		profile.LastName = *patch.LastName
	}
	if patch.DisplayName != nil {
		profile.DisplayName = *patch.DisplayName
	}
	if patch.Email != nil {
		profile.Email = *patch.Email
	}
	if patch.Locale != nil {
		profile.Locale = *patch.Locale
	}
	if patch.Bio != nil {
		profile.Bio = *patch.Bio
	}
	if patch.Metadata != nil {
		profile.Metadata = cloneMap(patch.Metadata)
	}
}

func patchedFields(patch types.ProfilePatch) []string {
	fields := make([]string, 0, 8)
	for name, set := range map[string]bool{
		"username":     patch.Username != nil,
		"first_name":   patch.FirstName != nil,
		"last_name":    patch.LastName != nil,
		"display_name": patch.DisplayName != nil,
		"email":        patch.Email != nil,
		"locale":       patch.Locale != nil,
		"bio":          patch.Bio != nil,
		"metadata":     patch.Metadata != nil,
	} {
		if set {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
