package role

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Type classifies how a role came to exist.
type Type int

const (
	// BaseRole marks platform roles created at install time.
	BaseRole Type = 1
	// WorkspaceRole marks the provisioned visitor/collaborator/manager roles.
	WorkspaceRole Type = 2
	// CustomRole marks roles bound to a workspace by an administrator.
	CustomRole Type = 3
)

// NamePrefix is required on every role name.
const NamePrefix = "ROLE_"

// Role is a node in the role hierarchy. Bounds (Lft, Rgt, Lvl, Root) are
// maintained by the tree package and must not be edited by hand.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID             int64             `bun:"id,pk,autoincrement"`
	Name           string            `bun:"name,notnull,unique"`
	TranslationKey string            `bun:"translation_key"`
	IsReadOnly     bool              `bun:"is_read_only,notnull"`
	RoleType       Type              `bun:"role_type,notnull"`
	ParentID       int64             `bun:"parent_id,nullzero"`
	Parent         *Role             `bun:"rel:belongs-to,join:parent_id=id"`
	Children       []*Role           `bun:"rel:has-many,join:id=parent_id"`
	Lft            int               `bun:"lft,notnull"`
	Rgt            int               `bun:"rgt,notnull"`
	Lvl            int               `bun:"lvl,notnull"`
	Root           int64             `bun:"root,nullzero"`
	WorkspaceID    int64             `bun:"workspace_id,nullzero"`
	ResourceRights []*ResourceRights `bun:"rel:has-many,join:id=role_id"`
	CreatedAt      time.Time         `bun:"created_at,notnull"`
	UpdatedAt      time.Time         `bun:"updated_at,notnull"`
}

var _ bun.BeforeDeleteHook = (*Role)(nil)

// New builds an unsaved role after validating its name.
func New(name string, kind Type) (*Role, error) {
	r := &Role{RoleType: kind}
	if err := r.SetName(name); err != nil {
		return nil, err
	}
	return r, nil
}

// SetName renames the role. Platform roles keep their name forever and any
// role given a platform name becomes read-only.
func (r *Role) SetName(name string) error {
	if !strings.HasPrefix(name, NamePrefix) {
		return types.ErrInvalidRoleName
	}
	if IsPlatformRole(r.Name) {
		return types.ErrImmutableRole
	}
	if IsPlatformRole(name) {
		r.IsReadOnly = true
	}
	r.Name = name
	return nil
}

// Rename changes the name of an existing role. Workspace roles keep the name
// they were bound with.
func (r *Role) Rename(name string) error {
	if r.IsWorkspaceBound() {
		return types.ErrBoundRoleName
	}
	return r.SetName(name)
}

// SetParent links the role under parent, or detaches it when parent is nil.
// Tree bounds are left untouched until the next rebuild.
func (r *Role) SetParent(parent *Role) {
	r.Parent = parent
	if parent == nil {
		r.ParentID = 0
		return
	}
	r.ParentID = parent.ID
}

// PreDelete guards removal of platform roles.
func (r *Role) PreDelete() error {
	if r != nil && IsPlatformRole(r.Name) {
		return types.ErrImmutableRole
	}
	return nil
}

// BeforeDelete runs PreDelete for every role model delete issued through bun.
// Platform rows are also excluded in SQL so stub models and bulk deletes
// cannot reach them.
func (r *Role) BeforeDelete(_ context.Context, query *bun.DeleteQuery) error {
	if query == nil {
		return r.PreDelete()
	}
	query.Where("name NOT IN (?)", bun.In(PlatformRoleNames()))
	if query.GetModel() == nil {
		return r.PreDelete()
	}
	switch model := query.GetModel().Value().(type) {
	case *Role:
		return model.PreDelete()
	case *[]Role:
		for i := range *model {
			if err := (*model)[i].PreDelete(); err != nil {
				return err
			}
		}
	case *[]*Role:
		for _, item := range *model {
			if err := item.PreDelete(); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddResourceRights appends a grant. Grants are not deduplicated.
func (r *Role) AddResourceRights(rights *ResourceRights) {
	if rights == nil {
		return
	}
	if r.ID != 0 {
		rights.RoleID = r.ID
	}
	if rights.WorkspaceID == 0 {
		rights.WorkspaceID = r.WorkspaceID
	}
	r.ResourceRights = append(r.ResourceRights, rights)
}

// GetResourceRights returns the grants attached to the role.
func (r *Role) GetResourceRights() []*ResourceRights {
	return r.ResourceRights
}

// IsWorkspaceBound reports whether the role belongs to a workspace.
func (r *Role) IsWorkspaceBound() bool {
	return r.WorkspaceID != 0
}

// ResourceRights is a permission grant of a role over a resource. A zero
// ResourceID targets the workspace default context.
type ResourceRights struct {
	bun.BaseModel `bun:"table:resource_rights,alias:rr"`

	ID          int64 `bun:"id,pk,autoincrement"`
	RoleID      int64 `bun:"role_id,notnull"`
	WorkspaceID int64 `bun:"workspace_id,nullzero"`
	ResourceID  int64 `bun:"resource_id,nullzero"`
	CanSee      bool  `bun:"can_see,notnull"`
	CanOpen     bool  `bun:"can_open,notnull"`
	CanEdit     bool  `bun:"can_edit,notnull"`
	CanCopy     bool  `bun:"can_copy,notnull"`
	CanCreate   bool  `bun:"can_create,notnull"`
	CanDelete   bool  `bun:"can_delete,notnull"`
}

// UserRole represents rows from user_roles.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles"`

	UserID     uuid.UUID `bun:"user_id,type:uuid,pk"`
	RoleID     int64     `bun:"role_id,pk"`
	AssignedAt time.Time `bun:"assigned_at,notnull"`
	AssignedBy uuid.UUID `bun:"assigned_by,type:uuid,notnull"`
}

// GroupRole represents rows from group_roles.
type GroupRole struct {
	bun.BaseModel `bun:"table:group_roles"`

	GroupID    uuid.UUID `bun:"group_id,type:uuid,pk"`
	RoleID     int64     `bun:"role_id,pk"`
	AssignedAt time.Time `bun:"assigned_at,notnull"`
	AssignedBy uuid.UUID `bun:"assigned_by,type:uuid,notnull"`
}
