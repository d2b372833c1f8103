// Package query exposes go-command queriers for roles, profiles and the
// activity feed.
package query
