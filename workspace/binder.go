package workspace

import (
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
)

// Binder attaches administrator defined roles to a workspace.
type Binder struct {
	naming Naming
}

// NewBinder builds a binder. A zero Naming uses the defaults.
func NewBinder(naming Naming) *Binder {
	if naming == (Naming{}) {
		naming = DefaultNaming()
	}
	return &Binder{naming: naming}
}

// AddCustomRole binds r to ws and renames it to
// <custom prefix>_<workspace id>_<name>. Adding a role that is already part
// of the workspace does nothing. The rename is validated before the role is
// attached so a failed rename leaves ws untouched.
func (b *Binder) AddCustomRole(ws *Workspace, r *role.Role) error {
	if !ws.IsPersisted() {
		return types.ErrUnpersistedWorkspace
	}
	if r == nil {
		return types.ErrInvalidRoleName
	}
	if ws.Contains(r) {
		return nil
	}
	if r.WorkspaceID != 0 && r.WorkspaceID != ws.ID {
		return types.ErrCrossWorkspaceBinding
	}
	if r.Name == "" {
		return types.ErrInvalidRoleName
	}
	if err := r.SetName(b.naming.CustomName(ws.ID, r.Name)); err != nil {
		return err
	}
	r.WorkspaceID = ws.ID
	if r.RoleType == 0 {
		r.RoleType = role.CustomRole
	}
	ws.Roles = append(ws.Roles, r)
	return nil
}

// RemoveCustomRole detaches r when its name marks it as a custom role of ws.
// Any other role is ignored. The result reports whether ws changed.
func (b *Binder) RemoveCustomRole(ws *Workspace, r *role.Role) bool {
	if ws == nil || r == nil {
		return false
	}
	if !b.naming.IsCustomRoleOf(ws.ID, r.Name) {
		return false
	}
	idx := ws.indexOf(r)
	if idx < 0 {
		return false
	}
	ws.Roles = append(ws.Roles[:idx], ws.Roles[idx+1:]...)
	return true
}

// CustomRoles returns the custom roles bound to ws.
func (b *Binder) CustomRoles(ws *Workspace) []*role.Role {
	if ws == nil {
		return nil
	}
	out := make([]*role.Role, 0, len(ws.Roles))
	for _, r := range ws.Roles {
		if r != nil && b.naming.IsCustomRole(r.Name) {
			out = append(out, r)
		}
	}
	return out
}
