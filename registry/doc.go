// Package registry persists the role hierarchy and workspaces. RoleStore
// serves reads through go-repository-bun repositories while WorkspaceStore
// runs every structural mutation inside a single bun transaction and keeps
// the nested-set bounds in sync.
package registry
