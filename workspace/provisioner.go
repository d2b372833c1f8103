package workspace

import (
	"strings"

	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
)

// Provisioner creates the visitor, collaborator and manager roles of a
// workspace and looks them up again from its role collection.
type Provisioner struct {
	naming Naming
}

// NewProvisioner builds a provisioner. A zero Naming uses the defaults.
func NewProvisioner(naming Naming) *Provisioner {
	if naming == (Naming{}) {
		naming = DefaultNaming()
	}
	return &Provisioner{naming: naming}
}

// Naming returns the prefixes used by the provisioner.
func (p *Provisioner) Naming() Naming {
	return p.naming
}

// InitBaseRoles appends the three base roles to ws.Roles. The collaborator
// is a child of the visitor and the manager a child of the collaborator.
func (p *Provisioner) InitBaseRoles(ws *Workspace) error {
	if !ws.IsPersisted() {
		return types.ErrUnpersistedWorkspace
	}
	for _, existing := range ws.Roles {
		if existing != nil && p.naming.IsBaseRole(existing.Name) {
			return types.ErrBaseRolesInitialized
		}
	}

	visitor, err := p.addBaseRole(ws, p.naming.VisitorName(ws.ID), nil, &role.ResourceRights{
		CanSee: true,
	})
	if err != nil {
		return err
	}
	collaborator, err := p.addBaseRole(ws, p.naming.CollaboratorName(ws.ID), visitor, &role.ResourceRights{
		CanSee:  true,
		CanOpen: true,
	})
	if err != nil {
		return err
	}
	_, err = p.addBaseRole(ws, p.naming.ManagerName(ws.ID), collaborator, &role.ResourceRights{
		CanSee:    true,
		CanOpen:   true,
		CanEdit:   true,
		CanCopy:   true,
		CanCreate: true,
		CanDelete: true,
	})
	return err
}

func (p *Provisioner) addBaseRole(ws *Workspace, name string, parent *role.Role, rights *role.ResourceRights) (*role.Role, error) {
	base, err := role.New(name, role.WorkspaceRole)
	if err != nil {
		return nil, err
	}
	base.WorkspaceID = ws.ID
	base.TranslationKey = strings.ToLower(name)
	base.SetParent(parent)
	base.AddResourceRights(rights)
	ws.Roles = append(ws.Roles, base)
	return base, nil
}

// VisitorRole returns the provisioned visitor role or nil.
func (p *Provisioner) VisitorRole(ws *Workspace) *role.Role {
	return p.baseRole(ws, p.naming.VisitorPrefix)
}

// CollaboratorRole returns the provisioned collaborator role or nil.
func (p *Provisioner) CollaboratorRole(ws *Workspace) *role.Role {
	return p.baseRole(ws, p.naming.CollaboratorPrefix)
}

// ManagerRole returns the provisioned manager role or nil.
func (p *Provisioner) ManagerRole(ws *Workspace) *role.Role {
	return p.baseRole(ws, p.naming.ManagerPrefix)
}

func (p *Provisioner) baseRole(ws *Workspace, prefix string) *role.Role {
	if ws == nil {
		return nil
	}
	for _, r := range ws.Roles {
		if r != nil && strings.HasPrefix(r.Name, prefix) {
			return r
		}
	}
	return nil
}
