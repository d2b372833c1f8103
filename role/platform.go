package role

const (
	// Admin is granted to platform administrators.
	Admin = "ROLE_ADMIN"
	// User is granted to every registered user.
	User = "ROLE_USER"
	// WorkspaceCreator allows creating workspaces.
	WorkspaceCreator = "ROLE_WS_CREATOR"
	// Anonymous is held by unauthenticated visitors.
	Anonymous = "ROLE_ANONYMOUS"
)

var platformRoles = map[string]struct{}{
	Admin:            {},
	User:             {},
	WorkspaceCreator: {},
	Anonymous:        {},
}

// IsPlatformRole reports whether name is one of the fixed platform-wide roles.
func IsPlatformRole(name string) bool {
	_, ok := platformRoles[name]
	return ok
}

// PlatformRoleNames lists the platform roles in install order.
func PlatformRoleNames() []string {
	return []string{Admin, User, WorkspaceCreator, Anonymous}
}
