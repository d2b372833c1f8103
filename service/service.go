package service

import (
	"context"

	"github.com/goliatone/go-auth/middleware/jwtware"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-workspaces/activity"
	"github.com/goliatone/go-workspaces/command"
	"github.com/goliatone/go-workspaces/pkg/authctx"
	"github.com/goliatone/go-workspaces/pkg/telemetry/validation"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/profile"
	"github.com/goliatone/go-workspaces/query"
	"github.com/goliatone/go-workspaces/registry"
	"github.com/goliatone/go-workspaces/scope"
	"github.com/goliatone/go-workspaces/workspace"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Service is the entry point for go-workspaces. It wires stores, hooks and
// the command/query facades supplied by the host application.
type Service struct {
	cfg          Config
	naming       workspace.Naming
	commands     Commands
	queries      Queries
	workspaces   command.WorkspaceStore
	roles        RoleStore
	activitySink types.ActivitySink
	activityRepo types.ActivityRepository
	profileRepo  types.ProfileRepository
	scopeGuard   scope.Guard
}

// RoleStore is the read side the service needs from the role hierarchy.
// registry.RoleStore satisfies it.
type RoleStore interface {
	query.RoleStore
	command.RoleReader
}

// RoleNamesLookup is implemented by stores that can list the role names
// held by a user. registry.WorkspaceStore satisfies it.
type RoleNamesLookup interface {
	RoleNamesForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// Commands exposes the service command handlers.
type Commands struct {
	CreateWorkspace    *command.WorkspaceCreateCommand
	ProvisionBaseRoles *command.ProvisionBaseRolesCommand
	AddCustomRole      *command.CustomRoleAddCommand
	RemoveCustomRole   *command.CustomRoleRemoveCommand
	RenameRole         *command.RoleRenameCommand
	MoveRole           *command.RoleMoveCommand
	DeleteRole         *command.RoleDeleteCommand
	AssignRole         *command.RoleAssignCommand
	UnassignRole       *command.RoleUnassignCommand
	LogActivity        *command.ActivityLogCommand
	ProfileUpdate      *command.ProfileUpdateCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	PlatformRoles  *query.PlatformRolesQuery
	WorkspaceRoles *query.WorkspaceRolesQuery
	BaseRole       *query.BaseRoleQuery
	PrincipalRole  *query.PrincipalRoleQuery
	ActivityFeed   *query.ActivityFeedQuery
	ProfileDetail  *query.ProfileQuery
}

// Config captures the dependencies. When DB is set, any store left nil is
// built from the bun implementations in registry, activity and profile.
type Config struct {
	DB                  *bun.DB
	WorkspaceStore      command.WorkspaceStore
	RoleStore           RoleStore
	ActivitySink        types.ActivitySink
	ActivityRepository  types.ActivityRepository
	ProfileRepository   types.ProfileRepository
	ProfileCache        bool
	Naming              workspace.Naming
	NamingOverrides     []workspace.NamingOverride
	FeatureGate         featuregate.FeatureGate
	Hooks               types.Hooks
	Clock               types.Clock
	IDGenerator         types.IDGenerator
	Logger              types.Logger
	ScopeResolver       types.ScopeResolver
	AuthorizationPolicy types.AuthorizationPolicy
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) *Service {
	norm := normalizeConfig(cfg)
	naming := resolveNaming(norm)

	s := &Service{
		cfg:          norm,
		naming:       naming,
		workspaces:   norm.WorkspaceStore,
		roles:        norm.RoleStore,
		activitySink: norm.ActivitySink,
		activityRepo: norm.ActivityRepository,
		profileRepo:  norm.ProfileRepository,
	}
	if norm.DB != nil {
		s.buildStores(naming)
	}
	if s.activityRepo == nil {
		if repo, ok := s.activitySink.(types.ActivityRepository); ok {
			s.activityRepo = repo
		}
	}

	policy := norm.AuthorizationPolicy
	if policy == nil && s.roles != nil {
		policy = scope.NewWorkspaceRolePolicy(s.roles)
	}
	s.scopeGuard = scope.Ensure(scope.NewGuard(norm.ScopeResolver, policy))
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = types.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	return cfg
}

func resolveNaming(cfg Config) workspace.Naming {
	if cfg.Naming != (workspace.Naming{}) {
		return cfg.Naming
	}
	if len(cfg.NamingOverrides) == 0 {
		return workspace.DefaultNaming()
	}
	naming, err := workspace.ResolveNaming(cfg.NamingOverrides...)
	if err != nil {
		cfg.Logger.Error("go-workspaces: naming overrides rejected, using defaults", err)
		return workspace.DefaultNaming()
	}
	return naming
}

func (s *Service) buildStores(naming workspace.Naming) {
	cfg := s.cfg
	if s.workspaces == nil {
		store, err := registry.NewWorkspaceStore(registry.WorkspaceStoreConfig{
			DB:     cfg.DB,
			Naming: naming,
			Clock:  cfg.Clock,
			Logger: cfg.Logger,
		})
		if err != nil {
			cfg.Logger.Error("go-workspaces: workspace store initialization failed", err)
		} else {
			s.workspaces = store
		}
	}
	if s.roles == nil {
		store, err := registry.NewRoleStore(registry.RoleStoreConfig{
			DB:     cfg.DB,
			Naming: naming,
			Logger: cfg.Logger,
		})
		if err != nil {
			cfg.Logger.Error("go-workspaces: role store initialization failed", err)
		} else {
			s.roles = store
		}
	}
	if s.activitySink == nil && s.activityRepo == nil {
		repo, err := activity.NewRepository(activity.RepositoryConfig{
			DB:    cfg.DB,
			Clock: cfg.Clock,
			IDGen: cfg.IDGenerator,
		})
		if err != nil {
			cfg.Logger.Error("go-workspaces: activity repository initialization failed", err)
		} else {
			s.activitySink = repo
			s.activityRepo = repo
		}
	}
	if s.profileRepo == nil {
		repo, err := profile.NewRepository(profile.RepositoryConfig{
			DB:    cfg.DB,
			Clock: cfg.Clock,
		}, profile.WithCache(cfg.ProfileCache))
		if err != nil {
			cfg.Logger.Error("go-workspaces: profile repository initialization failed", err)
		} else {
			s.profileRepo = repo
		}
	}
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// Naming returns the role naming the service was built with.
func (s *Service) Naming() workspace.Naming {
	return s.naming
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s != nil &&
		s.workspaces != nil &&
		s.roles != nil &&
		s.activitySink != nil &&
		s.activityRepo != nil &&
		s.profileRepo != nil
}

// HealthCheck surfaces the first missing dependency. When a DB is wired it
// is pinged as well.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s == nil {
		return types.ErrServiceNotReady
	}
	if s.workspaces == nil {
		return types.ErrMissingWorkspaceStore
	}
	if s.roles == nil {
		return types.ErrMissingRoleStore
	}
	if s.activitySink == nil {
		return types.ErrMissingActivitySink
	}
	if s.activityRepo == nil {
		return types.ErrMissingActivityRepository
	}
	if s.profileRepo == nil {
		return types.ErrMissingProfileRepository
	}
	if s.cfg.DB != nil {
		if err := s.cfg.DB.PingContext(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ScopeGuard exposes the guard instance used internally so transports can
// reuse the same resolver/policy combination.
func (s *Service) ScopeGuard() scope.Guard {
	if s == nil {
		return scope.NopGuard()
	}
	return scope.Ensure(s.scopeGuard)
}

// ActivitySink returns the configured sink so transports can emit activity
// records for auxiliary workflows.
func (s *Service) ActivitySink() types.ActivitySink {
	if s == nil {
		return nil
	}
	return s.activitySink
}

// ResolveActor builds the actor for the authenticated principal carried by
// ctx. Stored role memberships are merged in when the workspace store can
// list them.
func (s *Service) ResolveActor(ctx context.Context) (types.ActorRef, error) {
	if s == nil {
		return authctx.ResolveActor(ctx, nil)
	}
	return authctx.ResolveActor(ctx, s.roleNamesLookup())
}

// ValidationListener returns a go-auth jwt validation listener that records
// validated tokens in the activity sink. onPrincipal may be nil.
func (s *Service) ValidationListener(onPrincipal func(context.Context, types.Principal)) jwtware.ValidationListener {
	return validation.NewListener(validation.ListenerOptions{
		ActivitySink: s.ActivitySink(),
		Logger:       s.cfg.Logger,
		Roles:        s.roleNamesLookup(),
		OnPrincipal:  onPrincipal,
	})
}

func (s *Service) roleNamesLookup() authctx.RoleNamesLookup {
	if names, ok := s.workspaces.(RoleNamesLookup); ok {
		return names.RoleNamesForUser
	}
	return nil
}

func (s *Service) buildCommands() Commands {
	provisioner := workspace.NewProvisioner(s.naming)
	roleCfg := command.RoleCommandConfig{
		Store:      s.workspaces,
		Roles:      s.roles,
		Clock:      s.cfg.Clock,
		Activity:   s.activitySink,
		Hooks:      s.cfg.Hooks,
		Logger:     s.cfg.Logger,
		ScopeGuard: s.scopeGuard,
	}
	customCfg := command.CustomRoleCommandConfig{
		Store:       s.workspaces,
		Roles:       s.roles,
		Binder:      workspace.NewBinder(s.naming),
		FeatureGate: s.cfg.FeatureGate,
		Clock:       s.cfg.Clock,
		Activity:    s.activitySink,
		Hooks:       s.cfg.Hooks,
		Logger:      s.cfg.Logger,
		ScopeGuard:  s.scopeGuard,
	}
	return Commands{
		CreateWorkspace: command.NewWorkspaceCreateCommand(command.WorkspaceCreateCommandConfig{
			Store:       s.workspaces,
			Provisioner: provisioner,
			Clock:       s.cfg.Clock,
			Activity:    s.activitySink,
			Hooks:       s.cfg.Hooks,
			Logger:      s.cfg.Logger,
			ScopeGuard:  s.scopeGuard,
		}),
		ProvisionBaseRoles: command.NewProvisionBaseRolesCommand(command.ProvisionBaseRolesCommandConfig{
			Store:       s.workspaces,
			Provisioner: provisioner,
			Clock:       s.cfg.Clock,
			Activity:    s.activitySink,
			Hooks:       s.cfg.Hooks,
			Logger:      s.cfg.Logger,
			ScopeGuard:  s.scopeGuard,
		}),
		AddCustomRole:    command.NewCustomRoleAddCommand(customCfg),
		RemoveCustomRole: command.NewCustomRoleRemoveCommand(customCfg),
		RenameRole:       command.NewRoleRenameCommand(roleCfg),
		MoveRole:         command.NewRoleMoveCommand(roleCfg),
		DeleteRole:       command.NewRoleDeleteCommand(roleCfg),
		AssignRole:       command.NewRoleAssignCommand(roleCfg),
		UnassignRole:     command.NewRoleUnassignCommand(roleCfg),
		LogActivity: command.NewActivityLogCommand(command.ActivityLogConfig{
			Sink:       s.activitySink,
			Hooks:      s.cfg.Hooks,
			Clock:      s.cfg.Clock,
			Logger:     s.cfg.Logger,
			ScopeGuard: s.scopeGuard,
		}),
		ProfileUpdate: command.NewProfileUpdateCommand(command.ProfileCommandConfig{
			Repository: s.profileRepo,
			Activity:   s.activitySink,
			Hooks:      s.cfg.Hooks,
			Clock:      s.cfg.Clock,
			ScopeGuard: s.scopeGuard,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	return Queries{
		PlatformRoles:  query.NewPlatformRolesQuery(s.roles, s.scopeGuard),
		WorkspaceRoles: query.NewWorkspaceRolesQuery(s.roles, s.scopeGuard),
		BaseRole:       query.NewBaseRoleQuery(s.roles, s.scopeGuard),
		PrincipalRole:  query.NewPrincipalRoleQuery(s.roles, s.scopeGuard),
		ActivityFeed:   query.NewActivityFeedQuery(s.activityRepo, s.scopeGuard),
		ProfileDetail:  query.NewProfileQuery(s.profileRepo, s.scopeGuard),
	}
}
