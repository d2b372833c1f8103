// Package activity persists workspace activity. Repository implements both
// types.ActivitySink and types.ActivityRepository over the workspace_activity
// table and masks sensitive payload values before they are stored.
package activity
