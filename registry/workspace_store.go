package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
	"github.com/goliatone/go-workspaces/role/tree"
	"github.com/goliatone/go-workspaces/workspace"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// WorkspaceStoreConfig configures the transactional workspace store.
type WorkspaceStoreConfig struct {
	DB         *bun.DB
	Workspaces repository.Repository[*workspace.Workspace]
	UserRoles  repository.Repository[*role.UserRole]
	GroupRoles repository.Repository[*role.GroupRole]
	Naming     workspace.Naming
	Clock      types.Clock
	Logger     types.Logger
}

// WorkspaceStore persists workspaces with their roles and memberships. Every
// mutation runs in one transaction that also rebuilds the affected tree.
type WorkspaceStore struct {
	db         *bun.DB
	workspaces repository.Repository[*workspace.Workspace]
	userRoles  repository.Repository[*role.UserRole]
	groupRoles repository.Repository[*role.GroupRole]
	naming     workspace.Naming
	clock      types.Clock
	logger     types.Logger
}

// NewWorkspaceStore constructs the store. DB is required since writes use
// bun transactions directly.
func NewWorkspaceStore(cfg WorkspaceStoreConfig) (*WorkspaceStore, error) {
	if cfg.DB == nil {
		return nil, errors.New("bun workspace store: db must be provided")
	}
	workspaces := cfg.Workspaces
	if workspaces == nil {
		workspaces = repository.NewRepository(cfg.DB, repository.ModelHandlers[*workspace.Workspace]{
			NewRecord: func() *workspace.Workspace { return &workspace.Workspace{} },
			GetID: func(*workspace.Workspace) uuid.UUID {
				return uuid.Nil
			},
			SetID: func(*workspace.Workspace, uuid.UUID) {},
		})
	}
	userRoles := cfg.UserRoles
	if userRoles == nil {
		userRoles = repository.NewRepository(cfg.DB, repository.ModelHandlers[*role.UserRole]{
			NewRecord: func() *role.UserRole { return &role.UserRole{} },
			GetID: func(*role.UserRole) uuid.UUID {
				return uuid.Nil
			},
			SetID: func(*role.UserRole, uuid.UUID) {},
		})
	}
	groupRoles := cfg.GroupRoles
	if groupRoles == nil {
		groupRoles = repository.NewRepository(cfg.DB, repository.ModelHandlers[*role.GroupRole]{
			NewRecord: func() *role.GroupRole { return &role.GroupRole{} },
			GetID: func(*role.GroupRole) uuid.UUID {
				return uuid.Nil
			},
			SetID: func(*role.GroupRole, uuid.UUID) {},
		})
	}
	naming := cfg.Naming
	if naming == (workspace.Naming{}) {
		naming = workspace.DefaultNaming()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &WorkspaceStore{
		db:         cfg.DB,
		workspaces: workspaces,
		userRoles:  userRoles,
		groupRoles: groupRoles,
		naming:     naming,
		clock:      clock,
		logger:     logger,
	}, nil
}

// Workspace loads a workspace with its roles and their grants. Parent
// pointers are linked between the loaded roles.
func (s *WorkspaceStore) Workspace(ctx context.Context, id int64) (*workspace.Workspace, error) {
	if id == 0 {
		return nil, types.ErrUnpersistedWorkspace
	}
	ws, err := s.workspaces.Get(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	})
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.ErrWorkspaceNotFound
		}
		return nil, err
	}
	ws.Roles = nil
	err = s.db.NewSelect().
		Model(&ws.Roles).
		Where("workspace_id = ?", id).
		Relation("ResourceRights", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("id ASC")
		}).
		Order("lft ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	linkParents(ws.Roles)
	return ws, nil
}

// CreateWorkspace inserts ws and assigns its id.
func (s *WorkspaceStore) CreateWorkspace(ctx context.Context, ws *workspace.Workspace) error {
	if ws == nil {
		return types.ErrWorkspaceNotFound
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.insertWorkspace(ctx, tx, ws)
	})
}

// CreateWorkspaceWithRoles inserts ws, provisions its base roles and saves
// them in one transaction. A non-nil owner is granted the manager role in
// the same transaction. On failure ws is left unpersisted.
func (s *WorkspaceStore) CreateWorkspaceWithRoles(ctx context.Context, ws *workspace.Workspace, provisioner *workspace.Provisioner, owner uuid.UUID) error {
	if ws == nil {
		return types.ErrWorkspaceNotFound
	}
	if provisioner == nil {
		provisioner = workspace.NewProvisioner(s.naming)
	}
	roles := ws.Roles
	snapshot := snapshotRoles(roles)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.insertWorkspace(ctx, tx, ws); err != nil {
			return err
		}
		if err := provisioner.InitBaseRoles(ws); err != nil {
			return err
		}
		if err := s.saveWorkspace(ctx, tx, ws); err != nil {
			return err
		}
		if owner == uuid.Nil {
			return nil
		}
		manager := provisioner.ManagerRole(ws)
		if manager == nil {
			return types.ErrRoleNotFound
		}
		return s.assignUser(ctx, tx, manager.ID, owner, owner)
	})
	if err != nil {
		ws.ID = 0
		ws.Roles = roles
		snapshot.restore()
	}
	return err
}

// SaveWorkspace persists ws, inserting new roles parents first, updating
// existing ones and their grants, then rebuilding the workspace tree. Ids
// assigned by a failed save are reverted.
func (s *WorkspaceStore) SaveWorkspace(ctx context.Context, ws *workspace.Workspace) error {
	if !ws.IsPersisted() {
		return types.ErrUnpersistedWorkspace
	}
	snapshot := snapshotRoles(ws.Roles)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.saveWorkspace(ctx, tx, ws)
	})
	if err != nil {
		snapshot.restore()
	}
	return err
}

// RenameRole validates and persists a new name for a role outside any
// workspace. Workspace roles and names reserved for them are refused.
func (s *WorkspaceStore) RenameRole(ctx context.Context, r *role.Role, name string) error {
	if r == nil || r.ID == 0 {
		return types.ErrRoleNotFound
	}
	if s.naming.IsBaseRole(name) || s.naming.IsCustomRole(name) {
		return types.ErrReservedRoleName
	}
	previous, readOnly := r.Name, r.IsReadOnly
	if err := r.Rename(name); err != nil {
		return err
	}
	r.UpdatedAt = s.clock.Now()
	_, err := s.db.NewUpdate().
		Model(r).
		Column("name", "is_read_only", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		r.Name, r.IsReadOnly = previous, readOnly
		return s.mapRoleError(name, err)
	}
	return nil
}

// MoveRole reparents r under parent (nil makes it a root) and rebuilds the
// tree. Both roles must belong to the same workspace.
func (s *WorkspaceStore) MoveRole(ctx context.Context, r, parent *role.Role) error {
	if r == nil || r.ID == 0 {
		return types.ErrRoleNotFound
	}
	if parent != nil {
		if parent.ID == 0 {
			return types.ErrRoleNotFound
		}
		if parent.WorkspaceID != r.WorkspaceID {
			return types.ErrCrossWorkspaceBinding
		}
	}
	previous, previousID := r.Parent, r.ParentID
	r.SetParent(parent)
	r.UpdatedAt = s.clock.Now()
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model(r).
			Column("parent_id", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return err
		}
		_, err := s.rebuildTree(ctx, tx, r.WorkspaceID)
		return err
	})
	if err != nil {
		r.Parent, r.ParentID = previous, previousID
		return err
	}
	return nil
}

// DeleteRole removes r with its grants and memberships. Children are detached
// and become roots. Platform roles are refused.
func (s *WorkspaceStore) DeleteRole(ctx context.Context, r *role.Role) error {
	if r == nil || r.ID == 0 {
		return types.ErrRoleNotFound
	}
	if err := r.PreDelete(); err != nil {
		return err
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*role.Role)(nil)).
			Set("parent_id = NULL").
			Where("parent_id = ?", r.ID).
			Exec(ctx); err != nil {
			return err
		}
		for _, model := range []any{(*role.ResourceRights)(nil), (*role.UserRole)(nil), (*role.GroupRole)(nil)} {
			if _, err := tx.NewDelete().Model(model).Where("role_id = ?", r.ID).Exec(ctx); err != nil {
				return err
			}
		}
		res, err := tx.NewDelete().Model(r).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return types.ErrRoleNotFound
		}
		_, err = s.rebuildTree(ctx, tx, r.WorkspaceID)
		return err
	})
}

// AssignUser grants the role to a user. Existing grants are left untouched.
func (s *WorkspaceStore) AssignUser(ctx context.Context, roleID int64, userID, actor uuid.UUID) error {
	if userID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	_, err := s.userRoles.Create(ctx, &role.UserRole{
		UserID:     userID,
		RoleID:     roleID,
		AssignedAt: s.clock.Now(),
		AssignedBy: actor,
	})
	if err != nil && !isUniqueViolation(err) {
		return err
	}
	return nil
}

func (s *WorkspaceStore) assignUser(ctx context.Context, db bun.IDB, roleID int64, userID, actor uuid.UUID) error {
	_, err := db.NewInsert().
		Model(&role.UserRole{
			UserID:     userID,
			RoleID:     roleID,
			AssignedAt: s.clock.Now(),
			AssignedBy: actor,
		}).
		Exec(ctx)
	if err != nil && !isUniqueViolation(err) {
		return err
	}
	return nil
}

// UnassignUser revokes a user grant.
func (s *WorkspaceStore) UnassignUser(ctx context.Context, roleID int64, userID uuid.UUID) error {
	return s.userRoles.DeleteWhere(ctx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("user_id = ? AND role_id = ?", userID, roleID)
	})
}

// AssignGroup grants the role to a group.
func (s *WorkspaceStore) AssignGroup(ctx context.Context, roleID int64, groupID, actor uuid.UUID) error {
	if groupID == uuid.Nil {
		return errors.New("bun workspace store: group id required")
	}
	_, err := s.groupRoles.Create(ctx, &role.GroupRole{
		GroupID:    groupID,
		RoleID:     roleID,
		AssignedAt: s.clock.Now(),
		AssignedBy: actor,
	})
	if err != nil && !isUniqueViolation(err) {
		return err
	}
	return nil
}

// UnassignGroup revokes a group grant.
func (s *WorkspaceStore) UnassignGroup(ctx context.Context, roleID int64, groupID uuid.UUID) error {
	return s.groupRoles.DeleteWhere(ctx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("group_id = ? AND role_id = ?", groupID, roleID)
	})
}

// RoleNamesForUser lists the role names granted directly to the user.
func (s *WorkspaceStore) RoleNamesForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var names []string
	err := s.db.NewSelect().
		Model((*role.Role)(nil)).
		Column("r.name").
		Join("JOIN user_roles AS ur ON ur.role_id = r.id").
		Where("ur.user_id = ?", userID).
		Order("r.name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (s *WorkspaceStore) insertWorkspace(ctx context.Context, db bun.IDB, ws *workspace.Workspace) error {
	if ws.IsPersisted() {
		return nil
	}
	if ws.Kind == "" {
		ws.Kind = workspace.KindSimple
	}
	now := s.clock.Now()
	ws.CreatedAt = now
	ws.UpdatedAt = now
	if _, err := db.NewInsert().Model(ws).Returning("id").Exec(ctx); err != nil {
		return err
	}
	if ws.ID == 0 {
		return fmt.Errorf("bun workspace store: no id assigned to workspace %q", ws.Code)
	}
	s.logger.Debug("workspace created", "workspace_id", ws.ID, "code", ws.Code)
	return nil
}

func (s *WorkspaceStore) saveWorkspace(ctx context.Context, db bun.IDB, ws *workspace.Workspace) error {
	now := s.clock.Now()
	ws.UpdatedAt = now
	if _, err := db.NewUpdate().
		Model(ws).
		Column("name", "code", "type", "discr", "is_public", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return err
	}

	ordered, err := parentsFirst(ws.Roles)
	if err != nil {
		return err
	}
	for _, r := range ordered {
		r.WorkspaceID = ws.ID
		if r.Parent != nil {
			r.ParentID = r.Parent.ID
		}
		r.UpdatedAt = now
		if r.ID == 0 {
			r.CreatedAt = now
			if _, err := db.NewInsert().Model(r).Returning("id").Exec(ctx); err != nil {
				return s.mapRoleError(r.Name, err)
			}
		} else {
			if _, err := db.NewUpdate().
				Model(r).
				Column("name", "translation_key", "is_read_only", "role_type", "parent_id", "workspace_id", "updated_at").
				WherePK().
				Exec(ctx); err != nil {
				return s.mapRoleError(r.Name, err)
			}
		}
		for _, rights := range r.ResourceRights {
			if rights == nil || rights.ID != 0 {
				continue
			}
			rights.RoleID = r.ID
			if rights.WorkspaceID == 0 {
				rights.WorkspaceID = ws.ID
			}
			if _, err := db.NewInsert().Model(rights).Returning("id").Exec(ctx); err != nil {
				return err
			}
		}
	}

	rebuilt, err := s.rebuildTree(ctx, db, ws.ID)
	if err != nil {
		return err
	}
	copyBounds(ws.Roles, rebuilt)
	return nil
}

// rebuildTree renumbers every role of the workspace (platform roles when
// workspaceID is zero) and writes the new bounds back.
func (s *WorkspaceStore) rebuildTree(ctx context.Context, db bun.IDB, workspaceID int64) ([]*role.Role, error) {
	var nodes []*role.Role
	q := db.NewSelect().Model(&nodes).Order("lft ASC", "id ASC")
	if workspaceID == 0 {
		q = q.Where("workspace_id IS NULL")
	} else {
		q = q.Where("workspace_id = ?", workspaceID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	if err := tree.Rebuild(nodes); err != nil {
		return nil, err
	}
	for _, node := range nodes {
		if _, err := db.NewUpdate().
			Model(node).
			Column("lft", "rgt", "lvl", "root").
			WherePK().
			Exec(ctx); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

func (s *WorkspaceStore) mapRoleError(name string, err error) error {
	if !isUniqueViolation(err) {
		return err
	}
	if s.naming.IsBaseRole(name) {
		return fmt.Errorf("%w: %s", types.ErrBaseRolesInitialized, name)
	}
	return fmt.Errorf("%w: %s", types.ErrDuplicateRoleName, name)
}

type roleSnapshot struct {
	role        *role.Role
	id          int64
	workspaceID int64
	parentID    int64
	createdAt   time.Time
	rights      []rightsSnapshot
}

type rightsSnapshot struct {
	rights      *role.ResourceRights
	id          int64
	roleID      int64
	workspaceID int64
}

type roleSnapshots []roleSnapshot

// snapshotRoles records the fields a rolled back save may have assigned.
func snapshotRoles(roles []*role.Role) roleSnapshots {
	out := make(roleSnapshots, 0, len(roles))
	for _, r := range roles {
		if r == nil {
			continue
		}
		snap := roleSnapshot{
			role:        r,
			id:          r.ID,
			workspaceID: r.WorkspaceID,
			parentID:    r.ParentID,
			createdAt:   r.CreatedAt,
		}
		for _, rights := range r.ResourceRights {
			if rights == nil {
				continue
			}
			snap.rights = append(snap.rights, rightsSnapshot{
				rights:      rights,
				id:          rights.ID,
				roleID:      rights.RoleID,
				workspaceID: rights.WorkspaceID,
			})
		}
		out = append(out, snap)
	}
	return out
}

func (s roleSnapshots) restore() {
	for _, snap := range s {
		snap.role.ID = snap.id
		snap.role.WorkspaceID = snap.workspaceID
		snap.role.ParentID = snap.parentID
		snap.role.CreatedAt = snap.createdAt
		for _, rights := range snap.rights {
			rights.rights.ID = rights.id
			rights.rights.RoleID = rights.roleID
			rights.rights.WorkspaceID = rights.workspaceID
		}
	}
}

// parentsFirst orders roles so each parent from the slice precedes its
// children.
func parentsFirst(roles []*role.Role) ([]*role.Role, error) {
	const (
		pending = iota
		visiting
		done
	)
	member := make(map[*role.Role]bool, len(roles))
	for _, r := range roles {
		if r != nil {
			member[r] = true
		}
	}
	state := make(map[*role.Role]int, len(roles))
	ordered := make([]*role.Role, 0, len(roles))
	var visit func(*role.Role) error
	visit = func(r *role.Role) error {
		switch state[r] {
		case done:
			return nil
		case visiting:
			return types.ErrTreeCycle
		}
		state[r] = visiting
		if r.Parent != nil && member[r.Parent] {
			if err := visit(r.Parent); err != nil {
				return err
			}
		}
		state[r] = done
		ordered = append(ordered, r)
		return nil
	}
	for _, r := range roles {
		if r == nil {
			continue
		}
		if err := visit(r); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

func copyBounds(targets, rebuilt []*role.Role) {
	byID := make(map[int64]*role.Role, len(rebuilt))
	for _, node := range rebuilt {
		byID[node.ID] = node
	}
	for _, target := range targets {
		if target == nil {
			continue
		}
		if node, ok := byID[target.ID]; ok {
			target.Lft, target.Rgt, target.Lvl, target.Root = node.Lft, node.Rgt, node.Lvl, node.Root
		}
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if repository.IsDuplicatedKey(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
