package workspace

import (
	"fmt"
	"strings"

	opts "github.com/goliatone/go-options"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/role"
)

const (
	DefaultVisitorPrefix      = "ROLE_WS_VISITOR"
	DefaultCollaboratorPrefix = "ROLE_WS_COLLABORATOR"
	DefaultManagerPrefix      = "ROLE_WS_MANAGER"
	DefaultCustomPrefix       = "ROLE_WS_CUSTOM"
)

// Keys accepted by ResolveNaming overrides.
const (
	KeyVisitorPrefix      = "visitor_prefix"
	KeyCollaboratorPrefix = "collaborator_prefix"
	KeyManagerPrefix      = "manager_prefix"
	KeyCustomPrefix       = "custom_prefix"
)

// Naming holds the role name prefixes used to provision and classify
// workspace roles.
type Naming struct {
	VisitorPrefix      string
	CollaboratorPrefix string
	ManagerPrefix      string
	CustomPrefix       string
}

// DefaultNaming returns the stock prefixes.
func DefaultNaming() Naming {
	return Naming{
		VisitorPrefix:      DefaultVisitorPrefix,
		CollaboratorPrefix: DefaultCollaboratorPrefix,
		ManagerPrefix:      DefaultManagerPrefix,
		CustomPrefix:       DefaultCustomPrefix,
	}
}

// Validate ensures every prefix is a valid role name.
func (n Naming) Validate() error {
	for _, prefix := range []string{n.VisitorPrefix, n.CollaboratorPrefix, n.ManagerPrefix, n.CustomPrefix} {
		if !strings.HasPrefix(prefix, role.NamePrefix) || prefix == role.NamePrefix {
			return fmt.Errorf("workspace: invalid role prefix %q: %w", prefix, types.ErrInvalidRoleName)
		}
	}
	return nil
}

// VisitorName returns the visitor role name for the workspace id.
func (n Naming) VisitorName(workspaceID int64) string {
	return baseName(n.VisitorPrefix, workspaceID)
}

// CollaboratorName returns the collaborator role name for the workspace id.
func (n Naming) CollaboratorName(workspaceID int64) string {
	return baseName(n.CollaboratorPrefix, workspaceID)
}

// ManagerName returns the manager role name for the workspace id.
func (n Naming) ManagerName(workspaceID int64) string {
	return baseName(n.ManagerPrefix, workspaceID)
}

// CustomName returns the bound name of a custom role.
func (n Naming) CustomName(workspaceID int64, name string) string {
	return fmt.Sprintf("%s_%s", n.customScope(workspaceID), name)
}

// IsBaseRole reports whether name starts with one of the base prefixes.
func (n Naming) IsBaseRole(name string) bool {
	return strings.HasPrefix(name, n.VisitorPrefix) ||
		strings.HasPrefix(name, n.CollaboratorPrefix) ||
		strings.HasPrefix(name, n.ManagerPrefix)
}

// IsCustomRole reports whether name starts with the custom prefix.
func (n Naming) IsCustomRole(name string) bool {
	return strings.HasPrefix(name, n.CustomPrefix)
}

// IsCustomRoleOf reports whether name is a custom role bound to workspaceID.
func (n Naming) IsCustomRoleOf(workspaceID int64, name string) bool {
	return strings.HasPrefix(name, n.customScope(workspaceID)+"_")
}

func (n Naming) customScope(workspaceID int64) string {
	return baseName(n.CustomPrefix, workspaceID)
}

func baseName(prefix string, workspaceID int64) string {
	return fmt.Sprintf("%s_%d", prefix, workspaceID)
}

// IsBaseRole classifies name with the default prefixes.
func IsBaseRole(name string) bool {
	return DefaultNaming().IsBaseRole(name)
}

// IsCustomRole classifies name with the default prefixes.
func IsCustomRole(name string) bool {
	return DefaultNaming().IsCustomRole(name)
}

// NamingOverride is one configuration layer applied over the defaults.
type NamingOverride struct {
	Name     string
	Priority int
	Values   map[string]any
}

// ResolveNaming merges overrides over the default prefixes. Higher priority
// layers win; opts.ScopePriorityTenant and opts.ScopePriorityOrg are the
// usual choices.
func ResolveNaming(overrides ...NamingOverride) (Naming, error) {
	defaults := DefaultNaming()
	system := opts.NewScope("system", opts.ScopePrioritySystem,
		opts.WithScopeLabel("System defaults"))
	layers := []opts.Layer[map[string]any]{
		opts.NewLayer(system, defaults.values(), opts.WithSnapshotID[map[string]any](system.Name)),
	}
	for i, override := range overrides {
		name := strings.TrimSpace(override.Name)
		if name == "" {
			name = fmt.Sprintf("override_%d", i)
		}
		priority := override.Priority
		if priority == 0 {
			priority = opts.ScopePriorityTenant
		}
		scope := opts.NewScope(name, priority,
			opts.WithScopeLabel(name),
			opts.WithScopeMetadata(map[string]any{"layer": i}))
		layers = append(layers, opts.NewLayer(scope, cloneValues(override.Values), opts.WithSnapshotID[map[string]any](scope.Name)))
	}

	stack, err := opts.NewStack(layers...)
	if err != nil {
		return Naming{}, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return Naming{}, err
	}
	naming := Naming{
		VisitorPrefix:      stringValue(merged.Value, KeyVisitorPrefix, defaults.VisitorPrefix),
		CollaboratorPrefix: stringValue(merged.Value, KeyCollaboratorPrefix, defaults.CollaboratorPrefix),
		ManagerPrefix:      stringValue(merged.Value, KeyManagerPrefix, defaults.ManagerPrefix),
		CustomPrefix:       stringValue(merged.Value, KeyCustomPrefix, defaults.CustomPrefix),
	}
	if err := naming.Validate(); err != nil {
		return Naming{}, err
	}
	return naming, nil
}

func (n Naming) values() map[string]any {
	return map[string]any{
		KeyVisitorPrefix:      n.VisitorPrefix,
		KeyCollaboratorPrefix: n.CollaboratorPrefix,
		KeyManagerPrefix:      n.ManagerPrefix,
		KeyCustomPrefix:       n.CustomPrefix,
	}
}

func stringValue(values map[string]any, key, fallback string) string {
	raw, ok := values[key]
	if !ok {
		return fallback
	}
	str, ok := raw.(string)
	if !ok {
		return fallback
	}
	str = strings.TrimSpace(str)
	if str == "" {
		return fallback
	}
	return str
}

func cloneValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
