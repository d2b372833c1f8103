// Package command exposes go-command compatible command handlers for
// workspace provisioning, custom role binding, role maintenance, memberships
// and profiles. Commands are wired by the service layer and can be invoked by
// any transport.
package command
