package workspaces

import "github.com/goliatone/go-workspaces/service"

// Re-export the service package entry point so consumers can do
// `workspaces.New(...)` without importing the wiring package.
type (
	Service  = service.Service
	Config   = service.Config
	Commands = service.Commands
	Queries  = service.Queries
)

// New constructs the go-workspaces runtime using the provided configuration.
func New(cfg Config) *Service {
	return service.New(cfg)
}
