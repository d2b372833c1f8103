package registry

import (
	"context"
	"strconv"
	"testing"

	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
	"github.com/goliatone/go-workspaces/workspace"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestPlatformRoles(t *testing.T) {
	_, _, roles := newStores(t)

	platform, err := roles.PlatformRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, platform, 4)
	for _, r := range platform {
		require.True(t, role.IsPlatformRole(r.Name), r.Name)
		require.True(t, r.IsReadOnly)
		require.Zero(t, r.WorkspaceID)
	}
}

func TestWorkspaceRolesExcludesAnonymousAndOtherWorkspaces(t *testing.T) {
	ctx := context.Background()
	db, store, roles := newStores(t)
	ws := createProvisioned(t, store, "A")
	createProvisioned(t, store, "B")

	_, err := db.NewUpdate().
		Model((*role.Role)(nil)).
		Set("workspace_id = ?", ws.ID).
		Where("name = ?", role.Anonymous).
		Exec(ctx)
	require.NoError(t, err)

	list, err := roles.WorkspaceRoles(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	names := []string{list[0].Name, list[1].Name, list[2].Name}
	require.Equal(t, []string{
		"ROLE_WS_VISITOR_" + itoa(ws.ID),
		"ROLE_WS_COLLABORATOR_" + itoa(ws.ID),
		"ROLE_WS_MANAGER_" + itoa(ws.ID),
	}, names)
	require.Same(t, list[0], list[1].Parent)

	_, err = roles.WorkspaceRoles(ctx, 0)
	require.ErrorIs(t, err, types.ErrUnpersistedWorkspace)
}

func TestBaseRoleExactLookup(t *testing.T) {
	ctx := context.Background()
	_, store, roles := newStores(t)
	ws := createProvisioned(t, store, "LOOKUP")

	visitor, err := roles.VisitorRole(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, visitor.ResourceRights, 1)
	require.True(t, visitor.ResourceRights[0].CanSee)
	require.False(t, visitor.ResourceRights[0].CanOpen)

	_, err = roles.ManagerRole(ctx, ws.ID+100)
	require.ErrorIs(t, err, types.ErrRoleNotFound)

	bare := workspace.New("Bare", "BARE", workspace.Standard)
	require.NoError(t, store.CreateWorkspace(ctx, bare))
	_, err = roles.CollaboratorRole(ctx, bare.ID)
	require.ErrorIs(t, err, types.ErrRoleNotFound)

	_, err = roles.RoleByID(ctx, 9999)
	require.ErrorIs(t, err, types.ErrRoleNotFound)
}

func TestRoleForPrincipalInWorkspace(t *testing.T) {
	ctx := context.Background()
	_, store, roles := newStores(t)
	ws := createProvisioned(t, store, "PRINC")
	id := itoa(ws.ID)

	principal := types.Principal{
		ID:    uuid.New(),
		Roles: []string{role.User, "ROLE_WS_MANAGER_" + id, "ROLE_WS_VISITOR_" + id},
	}
	found, err := roles.RoleForPrincipalInWorkspace(ctx, principal, ws.ID)
	require.NoError(t, err)
	require.Equal(t, "ROLE_WS_VISITOR_"+id, found.Name)

	none, err := roles.RoleForPrincipalInWorkspace(ctx, types.Principal{Roles: []string{role.User}}, ws.ID)
	require.NoError(t, err)
	require.Nil(t, none)

	none, err = roles.RoleForPrincipalInWorkspace(ctx, types.Principal{}, ws.ID)
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestAncestorsAndDescendants(t *testing.T) {
	ctx := context.Background()
	_, store, roles := newStores(t)
	ws := createProvisioned(t, store, "TREE")

	visitor, err := roles.VisitorRole(ctx, ws.ID)
	require.NoError(t, err)
	manager, err := roles.ManagerRole(ctx, ws.ID)
	require.NoError(t, err)

	below, err := roles.Descendants(ctx, visitor)
	require.NoError(t, err)
	require.Len(t, below, 2)
	require.Equal(t, manager.ID, below[1].ID)

	above, err := roles.Ancestors(ctx, manager)
	require.NoError(t, err)
	require.Len(t, above, 2)
	require.Equal(t, visitor.ID, above[0].ID)

	leaf, err := roles.Descendants(ctx, manager)
	require.NoError(t, err)
	require.Empty(t, leaf)
}
