package types

import "strings"

const (
	// ActorTypeUser marks actors acting on their own behalf.
	ActorTypeUser = "user"
	// ActorTypeSystem marks background jobs and provisioning scripts.
	ActorTypeSystem = "system"

	// PlatformAdminRole is the platform role that bypasses workspace checks.
	PlatformAdminRole = "ROLE_ADMIN"
)

// IsSystem reports whether the actor is a non-human system actor.
func (a ActorRef) IsSystem() bool {
	return normalizeType(a.Type) == ActorTypeSystem
}

// HasRole reports whether the actor holds the supplied role name. Role names
// are compared case sensitively since they are persisted verbatim.
func (a ActorRef) HasRole(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, held := range a.Roles {
		if held == name {
			return true
		}
	}
	return false
}

// IsPlatformAdmin reports whether the actor is a platform administrator.
func (a ActorRef) IsPlatformAdmin() bool {
	return a.IsSystem() || a.HasRole(PlatformAdminRole)
}

func normalizeType(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
