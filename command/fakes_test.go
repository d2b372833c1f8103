package command

import (
	"context"
	"time"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
	"github.com/goliatone/go-workspaces/workspace"
	"github.com/google/uuid"
)

type membership struct {
	roleID int64
	member uuid.UUID
	group  bool
}

type fakeWorkspaceStore struct {
	workspaces map[int64]*workspace.Workspace
	roles      map[int64]*role.Role
	members    map[membership]uuid.UUID
	nextWS     int64
	nextRole   int64
	saveErr    error
	assignErr  error
	saves      int
	deleted    []int64
}

func newFakeWorkspaceStore() *fakeWorkspaceStore {
	return &fakeWorkspaceStore{
		workspaces: map[int64]*workspace.Workspace{},
		roles:      map[int64]*role.Role{},
		members:    map[membership]uuid.UUID{},
	}
}

func (f *fakeWorkspaceStore) seedWorkspace(name string) *workspace.Workspace {
	f.nextWS++
	ws := workspace.New(name, name, workspace.Standard)
	ws.ID = f.nextWS
	f.workspaces[ws.ID] = ws
	return ws
}

func (f *fakeWorkspaceStore) seedRole(name string, workspaceID int64) *role.Role {
	f.nextRole++
	r := &role.Role{ID: f.nextRole, Name: name, WorkspaceID: workspaceID}
	if role.IsPlatformRole(name) {
		r.IsReadOnly = true
	}
	f.roles[r.ID] = r
	if ws, ok := f.workspaces[workspaceID]; ok {
		ws.Roles = append(ws.Roles, r)
	}
	return r
}

func (f *fakeWorkspaceStore) Workspace(_ context.Context, id int64) (*workspace.Workspace, error) {
	ws, ok := f.workspaces[id]
	if !ok {
		return nil, types.ErrWorkspaceNotFound
	}
	copy := *ws
	copy.Roles = append([]*role.Role(nil), ws.Roles...)
	return &copy, nil
}

func (f *fakeWorkspaceStore) CreateWorkspaceWithRoles(ctx context.Context, ws *workspace.Workspace, provisioner *workspace.Provisioner, owner uuid.UUID) error {
	if owner != uuid.Nil && f.assignErr != nil {
		return f.assignErr
	}
	f.nextWS++
	ws.ID = f.nextWS
	if err := provisioner.InitBaseRoles(ws); err != nil {
		return err
	}
	if err := f.SaveWorkspace(ctx, ws); err != nil {
		return err
	}
	if owner != uuid.Nil {
		f.members[membership{roleID: provisioner.ManagerRole(ws).ID, member: owner}] = owner
	}
	return nil
}

func (f *fakeWorkspaceStore) SaveWorkspace(_ context.Context, ws *workspace.Workspace) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	for _, r := range ws.Roles {
		if r.ID == 0 {
			f.nextRole++
			r.ID = f.nextRole
			for _, grant := range r.ResourceRights {
				grant.RoleID = r.ID
			}
		}
		if r.Parent != nil {
			r.ParentID = r.Parent.ID
		}
		f.roles[r.ID] = r
	}
	stored := *ws
	stored.Roles = append([]*role.Role(nil), ws.Roles...)
	f.workspaces[ws.ID] = &stored
	return nil
}

func (f *fakeWorkspaceStore) RoleByID(_ context.Context, id int64) (*role.Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return nil, types.ErrRoleNotFound
	}
	return r, nil
}

func (f *fakeWorkspaceStore) RenameRole(_ context.Context, r *role.Role, name string) error {
	if workspace.IsBaseRole(name) || workspace.IsCustomRole(name) {
		return types.ErrReservedRoleName
	}
	return r.Rename(name)
}

func (f *fakeWorkspaceStore) MoveRole(_ context.Context, r, parent *role.Role) error {
	if parent != nil && parent.WorkspaceID != r.WorkspaceID {
		return types.ErrCrossWorkspaceBinding
	}
	r.SetParent(parent)
	return nil
}

func (f *fakeWorkspaceStore) DeleteRole(_ context.Context, r *role.Role) error {
	if err := r.PreDelete(); err != nil {
		return err
	}
	delete(f.roles, r.ID)
	f.deleted = append(f.deleted, r.ID)
	return nil
}

func (f *fakeWorkspaceStore) AssignUser(_ context.Context, roleID int64, userID, actor uuid.UUID) error {
	if f.assignErr != nil {
		return f.assignErr
	}
	f.members[membership{roleID: roleID, member: userID}] = actor
	return nil
}

func (f *fakeWorkspaceStore) UnassignUser(_ context.Context, roleID int64, userID uuid.UUID) error {
	delete(f.members, membership{roleID: roleID, member: userID})
	return nil
}

func (f *fakeWorkspaceStore) AssignGroup(_ context.Context, roleID int64, groupID, actor uuid.UUID) error {
	f.members[membership{roleID: roleID, member: groupID, group: true}] = actor
	return nil
}

func (f *fakeWorkspaceStore) UnassignGroup(_ context.Context, roleID int64, groupID uuid.UUID) error {
	delete(f.members, membership{roleID: roleID, member: groupID, group: true})
	return nil
}

type recordingActivitySink struct {
	onLog   func(types.ActivityRecord)
	records []types.ActivityRecord
}

func (r *recordingActivitySink) Log(_ context.Context, record types.ActivityRecord) error {
	r.records = append(r.records, record)
	if r.onLog != nil {
		r.onLog(record)
	}
	return nil
}

type stubFeatureGate struct {
	enabled bool
	err     error
	keys    []string
	opts    int
}

func (s *stubFeatureGate) Enabled(_ context.Context, key string, opts ...featuregate.ResolveOption) (bool, error) {
	s.keys = append(s.keys, key)
	s.opts = len(opts)
	if s.err != nil {
		return false, s.err
	}
	return s.enabled, nil
}

type fakeProfileRepo struct {
	stored *types.UserProfile
}

func (f *fakeProfileRepo) GetProfile(context.Context, uuid.UUID) (*types.UserProfile, error) {
	if f.stored == nil {
		return nil, nil
	}
	profile := *f.stored
	return &profile, nil
}

func (f *fakeProfileRepo) UpsertProfile(_ context.Context, profile types.UserProfile) (*types.UserProfile, error) {
	copy := profile
	f.stored = &copy
	return &copy, nil
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}

func adminActor() types.ActorRef {
	return types.ActorRef{ID: uuid.New(), Type: types.ActorTypeUser, Roles: []string{role.Admin}}
}
