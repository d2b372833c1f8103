package workspace

import (
	"time"

	"github.com/goliatone/go-workspaces/role"
	"github.com/uptrace/bun"
)

// Type distinguishes personal workspaces from shared ones.
type Type int

const (
	// Personal workspaces are created for a single user.
	Personal Type = 0
	// Standard workspaces are shared between members.
	Standard Type = 1
)

// Kind is the stored discriminator of the workspace row.
type Kind string

const (
	KindSimple     Kind = "simple"
	KindAggregator Kind = "aggregator"
)

// Workspace owns a collection of roles. Its ID is zero until storage assigns
// one, and role provisioning requires a persisted workspace.
type Workspace struct {
	bun.BaseModel `bun:"table:workspaces,alias:w"`

	ID        int64        `bun:"id,pk,autoincrement"`
	Name      string       `bun:"name,notnull"`
	Code      string       `bun:"code,notnull"`
	Type      Type         `bun:"type,notnull"`
	Kind      Kind         `bun:"discr,notnull"`
	IsPublic  bool         `bun:"is_public,notnull"`
	Roles     []*role.Role `bun:"rel:has-many,join:id=workspace_id"`
	CreatedAt time.Time    `bun:"created_at,notnull"`
	UpdatedAt time.Time    `bun:"updated_at,notnull"`
}

// New returns an unsaved, public, simple workspace.
func New(name, code string, kind Type) *Workspace {
	return &Workspace{
		Name:     name,
		Code:     code,
		Type:     kind,
		Kind:     KindSimple,
		IsPublic: true,
	}
}

// NewAggregator returns an unsaved aggregator workspace.
func NewAggregator(name, code string) *Workspace {
	ws := New(name, code, Standard)
	ws.Kind = KindAggregator
	return ws
}

// SetPublic toggles workspace visibility.
func (w *Workspace) SetPublic(public bool) {
	w.IsPublic = public
}

// IsPersisted reports whether storage has assigned an id.
func (w *Workspace) IsPersisted() bool {
	return w != nil && w.ID != 0
}

// Contains reports whether r is already part of the workspace roles. Roles
// match by identity or by persisted id.
func (w *Workspace) Contains(r *role.Role) bool {
	return w.indexOf(r) >= 0
}

func (w *Workspace) indexOf(r *role.Role) int {
	if r == nil {
		return -1
	}
	for i, existing := range w.Roles {
		if existing == r {
			return i
		}
		if r.ID != 0 && existing != nil && existing.ID == r.ID {
			return i
		}
	}
	return -1
}
