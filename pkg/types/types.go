package types

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ScopeFilter carries the workspace scoping used by commands/queries. A zero
// WorkspaceID targets platform-wide data.
type ScopeFilter struct {
	WorkspaceID int64
}

// IsPlatform reports whether the filter targets platform-wide data.
func (s ScopeFilter) IsPlatform() bool {
	return s.WorkspaceID == 0
}

// Pagination supports query pagination across admin panels.
type Pagination struct {
	Limit  int
	Offset int
}

// ActorRef identifies who or what is initiating a change.
type ActorRef struct {
	ID    uuid.UUID
	Type  string
	Roles []string
}

// Principal is the authenticated caller as seen by the role hierarchy: an
// identifier plus the role names it holds.
type Principal struct {
	ID    uuid.UUID
	Roles []string
}

// HasRole reports whether the principal holds the given role name.
func (p Principal) HasRole(name string) bool {
	for _, held := range p.Roles {
		if held == name {
			return true
		}
	}
	return false
}

// Principal converts the actor reference into the principal used for role
// lookups.
func (a ActorRef) Principal() Principal {
	return Principal{
		ID:    a.ID,
		Roles: append([]string(nil), a.Roles...),
	}
}

// RoleEvent is emitted when a role is created, renamed, moved, bound, removed
// or when memberships change.
type RoleEvent struct {
	RoleID      int64
	RoleName    string
	WorkspaceID int64
	MemberID    uuid.UUID
	Action      string
	ActorID     uuid.UUID
	OccurredAt  time.Time
}

// WorkspaceEvent is emitted after workspace level changes such as creation or
// base role provisioning.
type WorkspaceEvent struct {
	WorkspaceID int64
	Action      string
	ActorID     uuid.UUID
	OccurredAt  time.Time
	RoleNames   []string
}

// ProfileEvent signals that a profile mutation occurred.
type ProfileEvent struct {
	UserID     uuid.UUID
	ActorID    uuid.UUID
	OccurredAt time.Time
	Profile    UserProfile
}

// Hooks groups optional callbacks invoked after key workflows complete.
type Hooks struct {
	AfterRoleChange      func(context.Context, RoleEvent)
	AfterWorkspaceChange func(context.Context, WorkspaceEvent)
	AfterProfileChange   func(context.Context, ProfileEvent)
	AfterActivity        func(context.Context, ActivityRecord)
}

// ActivityRecord describes sink inputs and is shared across sink and query layers.
type ActivityRecord struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ActorID     uuid.UUID
	WorkspaceID int64
	Verb        string
	ObjectType  string
	ObjectID    string
	Channel     string
	Data        map[string]any
	OccurredAt  time.Time
}

// ActivitySink is the minimal DI contract for emitting activity.
type ActivitySink interface {
	Log(context.Context, ActivityRecord) error
}

// ActivityRepository exposes read-side access to activity logs.
type ActivityRepository interface {
	ListActivity(ctx context.Context, filter ActivityFilter) (ActivityPage, error)
}

// ActivityFilter narrows activity feed queries.
type ActivityFilter struct {
	Actor      ActorRef
	Scope      ScopeFilter
	ActorID    uuid.UUID
	Verbs      []string
	ObjectType string
	ObjectID   string
	Since      *time.Time
	Until      *time.Time
	Pagination Pagination
}

// Type implements gocommand.Message for query inputs.
func (ActivityFilter) Type() string {
	return "query.activity.feed"
}

// Validate implements gocommand.Message.
func (filter ActivityFilter) Validate() error {
	if filter.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	return nil
}

// ActivityPage represents a paginated feed response.
type ActivityPage struct {
	Records    []ActivityRecord
	Total      int
	NextOffset int
	HasMore    bool
}

// UserProfile captures the profile data shown on the public profile page and
// edited by its owner.
type UserProfile struct {
	UserID      uuid.UUID
	Username    string
	FirstName   string
	LastName    string
	DisplayName string
	Email       string
	Locale      string
	Bio         string
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedBy   uuid.UUID
	UpdatedBy   uuid.UUID
}

// ProfilePatch represents partial updates applied to a user profile.
type ProfilePatch struct {
	Username    *string
	FirstName   *string
	LastName    *string
	DisplayName *string
	Email       *string
	Locale      *string
	Bio         *string
	Metadata    map[string]any
}

// ProfileRepository persists and retrieves profile records.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	UpsertProfile(ctx context.Context, profile UserProfile) (*UserProfile, error)
}

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by the service.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID returns a randomly generated UUID.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}
