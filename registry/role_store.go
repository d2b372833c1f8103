package registry

import (
	"context"
	"errors"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
	"github.com/goliatone/go-workspaces/role/tree"
	"github.com/goliatone/go-workspaces/workspace"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleStoreConfig configures the Bun-backed role hierarchy store.
type RoleStoreConfig struct {
	DB     *bun.DB
	Roles  repository.Repository[*role.Role]
	Naming workspace.Naming
	Logger types.Logger
}

// RoleStore answers role hierarchy queries.
type RoleStore struct {
	roles  repository.Repository[*role.Role]
	naming workspace.Naming
	logger types.Logger
}

// NewRoleStore constructs the default store. Either DB or Roles must be
// provided.
func NewRoleStore(cfg RoleStoreConfig) (*RoleStore, error) {
	roles := cfg.Roles
	if roles == nil {
		if cfg.DB == nil {
			return nil, errors.New("bun role store: db or repository must be provided")
		}
		roles = NewRoleRepository(cfg.DB)
	}
	naming := cfg.Naming
	if naming == (workspace.Naming{}) {
		naming = workspace.DefaultNaming()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &RoleStore{
		roles:  roles,
		naming: naming,
		logger: logger,
	}, nil
}

// NewRoleRepository builds the go-repository-bun repository for roles. Role
// ids are storage assigned integers so the uuid handlers are inert.
func NewRoleRepository(db *bun.DB) repository.Repository[*role.Role] {
	return repository.NewRepository(db, repository.ModelHandlers[*role.Role]{
		NewRecord: func() *role.Role { return &role.Role{} },
		GetID: func(*role.Role) uuid.UUID {
			return uuid.Nil
		},
		SetID: func(*role.Role, uuid.UUID) {},
	})
}

// PlatformRoles returns the roles that are not bound to any workspace.
func (s *RoleStore) PlatformRoles(ctx context.Context) ([]*role.Role, error) {
	records, _, err := s.roles.List(ctx, platformCriteria(), treeOrder(), withRights())
	if err != nil {
		return nil, err
	}
	return records, nil
}

// WorkspaceRoles returns the roles bound to the workspace ordered by tree
// position. ROLE_ANONYMOUS is never part of the result.
func (s *RoleStore) WorkspaceRoles(ctx context.Context, workspaceID int64) ([]*role.Role, error) {
	if workspaceID == 0 {
		return nil, types.ErrUnpersistedWorkspace
	}
	records, _, err := s.roles.List(ctx,
		workspaceCriteria(workspaceID),
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("name <> ?", role.Anonymous)
		},
		treeOrder(),
		withRights(),
	)
	if err != nil {
		return nil, err
	}
	linkParents(records)
	return records, nil
}

// VisitorRole loads the visitor role of the workspace by exact name.
func (s *RoleStore) VisitorRole(ctx context.Context, workspaceID int64) (*role.Role, error) {
	return s.RoleByName(ctx, s.naming.VisitorName(workspaceID))
}

// CollaboratorRole loads the collaborator role of the workspace by exact name.
func (s *RoleStore) CollaboratorRole(ctx context.Context, workspaceID int64) (*role.Role, error) {
	return s.RoleByName(ctx, s.naming.CollaboratorName(workspaceID))
}

// ManagerRole loads the manager role of the workspace by exact name.
func (s *RoleStore) ManagerRole(ctx context.Context, workspaceID int64) (*role.Role, error) {
	return s.RoleByName(ctx, s.naming.ManagerName(workspaceID))
}

// RoleByName returns the role with the exact name or ErrRoleNotFound.
func (s *RoleStore) RoleByName(ctx context.Context, name string) (*role.Role, error) {
	record, err := s.roles.Get(ctx, repository.SelectBy("name", "=", name), withRights())
	if err != nil {
		return nil, notFound(err)
	}
	return record, nil
}

// RoleByID returns the role with the id or ErrRoleNotFound.
func (s *RoleStore) RoleByID(ctx context.Context, id int64) (*role.Role, error) {
	record, err := s.roles.Get(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	}, withRights())
	if err != nil {
		return nil, notFound(err)
	}
	return record, nil
}

// RoleForPrincipalInWorkspace returns the first workspace role whose name is
// held by the principal. Workspace roles are scanned in tree order and for
// each one the principal role names in their given order. A principal with
// no matching role yields nil without error.
func (s *RoleStore) RoleForPrincipalInWorkspace(ctx context.Context, principal types.Principal, workspaceID int64) (*role.Role, error) {
	if len(principal.Roles) == 0 {
		return nil, nil
	}
	roles, err := s.WorkspaceRoles(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	for _, candidate := range roles {
		for _, held := range principal.Roles {
			if candidate.Name == held {
				return candidate, nil
			}
		}
	}
	return nil, nil
}

// RoleForUserInWorkspace resolves the workspace role assigned to the user
// through user_roles. Nil without error when the user has none.
func (s *RoleStore) RoleForUserInWorkspace(ctx context.Context, userID uuid.UUID, workspaceID int64) (*role.Role, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	if workspaceID == 0 {
		return nil, types.ErrUnpersistedWorkspace
	}
	records, _, err := s.roles.List(ctx,
		workspaceCriteria(workspaceID),
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("id IN (SELECT role_id FROM user_roles WHERE user_id = ?)", userID).Limit(1)
		},
		treeOrder(),
		withRights(),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Descendants returns every role strictly below r in its tree.
func (s *RoleStore) Descendants(ctx context.Context, r *role.Role) ([]*role.Role, error) {
	if r == nil || r.Lft == 0 {
		return nil, nil
	}
	records, _, err := s.roles.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("root = ?", r.Root).Where("lft > ?", r.Lft).Where("rgt < ?", r.Rgt)
	}, treeOrder())
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Ancestors returns every role strictly above r, root first.
func (s *RoleStore) Ancestors(ctx context.Context, r *role.Role) ([]*role.Role, error) {
	if r == nil || r.Lft == 0 {
		return nil, nil
	}
	records, _, err := s.roles.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("root = ?", r.Root).Where("lft < ?", r.Lft).Where("rgt > ?", r.Rgt)
	}, treeOrder())
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Inherits reports whether r sits at or below base in the hierarchy.
func (s *RoleStore) Inherits(r, base *role.Role) bool {
	return tree.IsDescendantOrSelf(r, base)
}

// Naming exposes the prefixes used for exact base role lookups.
func (s *RoleStore) Naming() workspace.Naming {
	return s.naming
}

func platformCriteria() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("workspace_id IS NULL")
	}
}

func workspaceCriteria(workspaceID int64) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("workspace_id = ?", workspaceID)
	}
}

func treeOrder() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("root ASC", "lft ASC", "id ASC")
	}
}

func withRights() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("ResourceRights", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("id ASC")
		})
	}
}

// linkParents wires Parent pointers between roles loaded together.
func linkParents(records []*role.Role) {
	byID := make(map[int64]*role.Role, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}
	for _, record := range records {
		if parent, ok := byID[record.ParentID]; ok && record.ParentID != 0 {
			record.Parent = parent
		}
	}
}

func notFound(err error) error {
	if repository.IsRecordNotFound(err) {
		return types.ErrRoleNotFound
	}
	return err
}
