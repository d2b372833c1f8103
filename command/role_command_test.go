package command

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
	"github.com/goliatone/go-workspaces/scope"
	"github.com/goliatone/go-workspaces/workspace"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func provisionedStore(t *testing.T) (*fakeWorkspaceStore, *workspace.Workspace) {
	t.Helper()
	store := newFakeWorkspaceStore()
	ws := store.seedWorkspace("Maths")
	require.NoError(t, workspace.NewProvisioner(workspace.Naming{}).InitBaseRoles(ws))
	require.NoError(t, store.SaveWorkspace(context.Background(), ws))
	return store, store.workspaces[ws.ID]
}

func TestCustomRoleAddCommand_BindsUnderParent(t *testing.T) {
	store, ws := provisionedStore(t)
	gate := &stubFeatureGate{enabled: true}
	var event types.RoleEvent
	cmd := NewCustomRoleAddCommand(CustomRoleCommandConfig{
		Store:       store,
		FeatureGate: gate,
		Hooks: types.Hooks{
			AfterRoleChange: func(_ context.Context, e types.RoleEvent) { event = e },
		},
	})

	collaborator := ws.Roles[1]
	var created role.Role
	err := cmd.Execute(context.Background(), CustomRoleAddInput{
		WorkspaceID: ws.ID,
		Name:        "ROLE_TUTOR",
		ParentID:    collaborator.ID,
		Rights:      []role.ResourceRights{{CanSee: true, CanOpen: true, CanEdit: true}},
		Actor:       adminActor(),
		Result:      &created,
	})

	require.NoError(t, err)
	require.Equal(t, "ROLE_WS_CUSTOM_1_ROLE_TUTOR", created.Name)
	require.Equal(t, role.CustomRole, created.RoleType)
	require.Equal(t, ws.ID, created.WorkspaceID)
	require.Equal(t, collaborator.ID, created.ParentID)
	require.Len(t, created.ResourceRights, 1)
	require.Equal(t, ws.ID, created.ResourceRights[0].WorkspaceID)
	require.True(t, created.ResourceRights[0].CanEdit)
	require.Len(t, store.workspaces[ws.ID].Roles, 4)
	require.Equal(t, []string{featureCustomRoles}, gate.keys)
	require.Equal(t, 1, gate.opts)
	require.Equal(t, "custom_added", event.Action)
	require.Equal(t, created.ID, event.RoleID)
}

func TestCustomRoleAddCommand_FeatureDisabled(t *testing.T) {
	store, ws := provisionedStore(t)
	saves := store.saves
	cmd := NewCustomRoleAddCommand(CustomRoleCommandConfig{
		Store:       store,
		FeatureGate: &stubFeatureGate{enabled: false},
	})

	err := cmd.Execute(context.Background(), CustomRoleAddInput{
		WorkspaceID: ws.ID,
		Name:        "ROLE_TUTOR",
		Actor:       adminActor(),
	})

	require.ErrorIs(t, err, ErrCustomRolesDisabled)
	require.Equal(t, saves, store.saves)
}

func TestCustomRoleAddCommand_FeatureGateError(t *testing.T) {
	store, ws := provisionedStore(t)
	cmd := NewCustomRoleAddCommand(CustomRoleCommandConfig{
		Store:       store,
		FeatureGate: &stubFeatureGate{err: errors.New("gate offline")},
	})

	err := cmd.Execute(context.Background(), CustomRoleAddInput{
		WorkspaceID: ws.ID,
		Name:        "ROLE_TUTOR",
		Actor:       adminActor(),
	})

	require.EqualError(t, err, "gate offline")
}

func TestCustomRoleAddCommand_RejectsInvalidInput(t *testing.T) {
	store, ws := provisionedStore(t)
	other := store.seedWorkspace("Art")
	foreign := store.seedRole("ROLE_WS_VISITOR_2", other.ID)
	cmd := NewCustomRoleAddCommand(CustomRoleCommandConfig{Store: store})

	err := cmd.Execute(context.Background(), CustomRoleAddInput{WorkspaceID: ws.ID, Name: "TUTOR", Actor: adminActor()})
	require.ErrorIs(t, err, types.ErrInvalidRoleName)

	err = cmd.Execute(context.Background(), CustomRoleAddInput{WorkspaceID: ws.ID, Name: "ROLE_ADMIN", Actor: adminActor()})
	require.ErrorIs(t, err, types.ErrImmutableRole)

	err = cmd.Execute(context.Background(), CustomRoleAddInput{
		WorkspaceID: ws.ID,
		Name:        "ROLE_TUTOR",
		ParentID:    foreign.ID,
		Actor:       adminActor(),
	})
	require.ErrorIs(t, err, types.ErrRoleNotFound)

	err = cmd.Execute(context.Background(), CustomRoleAddInput{WorkspaceID: ws.ID, Actor: adminActor()})
	require.ErrorIs(t, err, ErrRoleNameRequired)
}

func TestCustomRoleRemoveCommand(t *testing.T) {
	store, ws := provisionedStore(t)
	add := NewCustomRoleAddCommand(CustomRoleCommandConfig{Store: store})
	var created role.Role
	require.NoError(t, add.Execute(context.Background(), CustomRoleAddInput{
		WorkspaceID: ws.ID,
		Name:        "ROLE_TUTOR",
		Actor:       adminActor(),
		Result:      &created,
	}))

	sink := &recordingActivitySink{}
	remove := NewCustomRoleRemoveCommand(CustomRoleCommandConfig{Store: store, Roles: store, Activity: sink})

	removed := false
	err := remove.Execute(context.Background(), CustomRoleRemoveInput{
		RoleID:  ws.Roles[0].ID,
		Actor:   adminActor(),
		Removed: &removed,
	})
	require.NoError(t, err)
	require.False(t, removed, "base roles are not custom roles")
	require.Empty(t, store.deleted)

	err = remove.Execute(context.Background(), CustomRoleRemoveInput{
		RoleID:  created.ID,
		Actor:   adminActor(),
		Removed: &removed,
	})
	require.NoError(t, err)
	require.True(t, removed)
	require.Equal(t, []int64{created.ID}, store.deleted)
	require.Len(t, sink.records, 1)
	require.Equal(t, "role.custom.removed", sink.records[0].Verb)
	require.Equal(t, ws.ID, sink.records[0].WorkspaceID)
}

func TestRoleRenameCommand_RenamesGlobalRole(t *testing.T) {
	store := newFakeWorkspaceStore()
	tutor := store.seedRole("ROLE_TUTOR", 0)
	sink := &recordingActivitySink{}
	var checks []types.PolicyCheck
	guard := scope.NewGuard(nil, types.AuthorizationPolicyFunc(func(_ context.Context, check types.PolicyCheck) error {
		checks = append(checks, check)
		return nil
	}))
	cmd := NewRoleRenameCommand(RoleCommandConfig{Store: store, Roles: store, Activity: sink, ScopeGuard: guard})

	var renamed role.Role
	err := cmd.Execute(context.Background(), RoleRenameInput{
		RoleID: tutor.ID,
		Name:   " ROLE_MENTOR ",
		Actor:  types.ActorRef{ID: uuid.New()},
		Result: &renamed,
	})

	require.NoError(t, err)
	require.Equal(t, "ROLE_MENTOR", renamed.Name)
	require.Len(t, checks, 1)
	require.Zero(t, checks[0].Scope.WorkspaceID)
	require.Equal(t, types.PolicyActionRolesWrite, checks[0].Action)
	require.Equal(t, tutor.ID, checks[0].TargetID)
	require.Len(t, sink.records, 1)
	require.Equal(t, "role.renamed", sink.records[0].Verb)
	require.Equal(t, "ROLE_TUTOR", sink.records[0].Data["previous_name"])
}

func TestRoleRenameCommand_WorkspaceRoleNameFixed(t *testing.T) {
	store, ws := provisionedStore(t)
	sink := &recordingActivitySink{}
	var checks []types.PolicyCheck
	guard := scope.NewGuard(nil, types.AuthorizationPolicyFunc(func(_ context.Context, check types.PolicyCheck) error {
		checks = append(checks, check)
		return nil
	}))
	cmd := NewRoleRenameCommand(RoleCommandConfig{Store: store, Roles: store, Activity: sink, ScopeGuard: guard})

	manager := ws.Roles[2]
	original := manager.Name
	err := cmd.Execute(context.Background(), RoleRenameInput{
		RoleID: manager.ID,
		Name:   "ROLE_SOMETHING_ELSE",
		Actor:  types.ActorRef{ID: uuid.New()},
	})

	require.ErrorIs(t, err, types.ErrBoundRoleName)
	require.Equal(t, original, manager.Name)
	require.Len(t, checks, 1)
	require.Equal(t, ws.ID, checks[0].Scope.WorkspaceID)
	require.Empty(t, sink.records)
}

func TestRoleRenameCommand_ReservedName(t *testing.T) {
	store := newFakeWorkspaceStore()
	tutor := store.seedRole("ROLE_TUTOR", 0)
	cmd := NewRoleRenameCommand(RoleCommandConfig{Store: store, Roles: store})

	err := cmd.Execute(context.Background(), RoleRenameInput{RoleID: tutor.ID, Name: "ROLE_WS_VISITOR_9", Actor: adminActor()})

	require.ErrorIs(t, err, types.ErrReservedRoleName)
	require.Equal(t, "ROLE_TUTOR", tutor.Name)
}

func TestRoleRenameCommand_PlatformRoleImmutable(t *testing.T) {
	store := newFakeWorkspaceStore()
	admin := store.seedRole(role.Admin, 0)
	sink := &recordingActivitySink{}
	cmd := NewRoleRenameCommand(RoleCommandConfig{Store: store, Roles: store, Activity: sink})

	err := cmd.Execute(context.Background(), RoleRenameInput{RoleID: admin.ID, Name: "ROLE_ROOT", Actor: adminActor()})

	require.ErrorIs(t, err, types.ErrImmutableRole)
	require.Equal(t, role.Admin, admin.Name)
	require.Empty(t, sink.records)
}

func TestRoleMoveCommand(t *testing.T) {
	store, ws := provisionedStore(t)
	other := store.seedWorkspace("Art")
	foreign := store.seedRole("ROLE_WS_VISITOR_2", other.ID)
	cmd := NewRoleMoveCommand(RoleCommandConfig{Store: store, Roles: store})

	manager := ws.Roles[2]
	err := cmd.Execute(context.Background(), RoleMoveInput{RoleID: manager.ID, ParentID: foreign.ID, Actor: adminActor()})
	require.ErrorIs(t, err, types.ErrCrossWorkspaceBinding)

	var moved role.Role
	err = cmd.Execute(context.Background(), RoleMoveInput{RoleID: manager.ID, Actor: adminActor(), Result: &moved})
	require.NoError(t, err)
	require.Zero(t, moved.ParentID)
	require.Nil(t, manager.Parent)
}

func TestRoleDeleteCommand(t *testing.T) {
	store, ws := provisionedStore(t)
	platform := store.seedRole(role.User, 0)
	sink := &recordingActivitySink{}
	cmd := NewRoleDeleteCommand(RoleCommandConfig{Store: store, Roles: store, Activity: sink})

	err := cmd.Execute(context.Background(), RoleDeleteInput{RoleID: platform.ID, Actor: adminActor()})
	require.ErrorIs(t, err, types.ErrImmutableRole)

	err = cmd.Execute(context.Background(), RoleDeleteInput{RoleID: ws.Roles[2].ID, Actor: adminActor()})
	require.NoError(t, err)
	require.Equal(t, []int64{ws.Roles[2].ID}, store.deleted)
	require.Equal(t, "role.deleted", sink.records[0].Verb)

	err = cmd.Execute(context.Background(), RoleDeleteInput{RoleID: 999, Actor: adminActor()})
	require.ErrorIs(t, err, types.ErrRoleNotFound)
}

func TestRoleAssignCommand(t *testing.T) {
	store, ws := provisionedStore(t)
	var events []types.RoleEvent
	cfg := RoleCommandConfig{
		Store: store,
		Roles: store,
		Hooks: types.Hooks{
			AfterRoleChange: func(_ context.Context, e types.RoleEvent) { events = append(events, e) },
		},
	}
	assign := NewRoleAssignCommand(cfg)
	unassign := NewRoleUnassignCommand(cfg)
	collaborator := ws.Roles[1]
	userID := uuid.New()
	groupID := uuid.New()

	err := assign.Execute(context.Background(), RoleAssignInput{RoleID: collaborator.ID, Actor: adminActor()})
	require.ErrorIs(t, err, ErrMemberRequired)
	err = assign.Execute(context.Background(), RoleAssignInput{RoleID: collaborator.ID, UserID: userID, GroupID: groupID, Actor: adminActor()})
	require.ErrorIs(t, err, ErrMemberRequired)

	require.NoError(t, assign.Execute(context.Background(), RoleAssignInput{RoleID: collaborator.ID, UserID: userID, Actor: adminActor()}))
	require.NoError(t, assign.Execute(context.Background(), RoleAssignInput{RoleID: collaborator.ID, GroupID: groupID, Actor: adminActor()}))
	require.Len(t, store.members, 2)
	require.Equal(t, userID, events[0].MemberID)
	require.Equal(t, "assigned", events[0].Action)

	require.NoError(t, unassign.Execute(context.Background(), RoleUnassignInput{RoleID: collaborator.ID, UserID: userID, Actor: adminActor()}))
	require.Len(t, store.members, 1)
	_, stillGroup := store.members[membership{roleID: collaborator.ID, member: groupID, group: true}]
	require.True(t, stillGroup)
	require.Equal(t, "unassigned", events[2].Action)
}

func TestRichError(t *testing.T) {
	require.Nil(t, RichError(nil))

	var richErr *goerrors.Error
	require.True(t, errors.As(RichError(types.ErrRoleNotFound), &richErr))
	require.Equal(t, goerrors.CategoryNotFound, richErr.Category)
	require.Equal(t, "ROLE_NOT_FOUND", richErr.TextCode)

	require.True(t, errors.As(RichError(types.ErrImmutableRole), &richErr))
	require.Equal(t, goerrors.CategoryAuthz, richErr.Category)

	require.True(t, errors.As(RichError(ErrMemberRequired), &richErr))
	require.Equal(t, goerrors.CategoryValidation, richErr.Category)

	require.True(t, errors.As(RichError(errors.New("boom")), &richErr))
	require.Equal(t, goerrors.CategoryInternal, richErr.Category)

	original := goerrors.New("already rich", goerrors.CategoryNotFound)
	require.Same(t, original, RichError(original))
}
