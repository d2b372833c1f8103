package activity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LogEntry models the persisted row in workspace_activity.
type LogEntry struct {
	bun.BaseModel `bun:"table:workspace_activity"`

	ID          uuid.UUID      `bun:",pk,type:uuid"`
	UserID      uuid.UUID      `bun:"user_id,type:uuid"`
	ActorID     uuid.UUID      `bun:"actor_id,type:uuid"`
	WorkspaceID int64          `bun:"workspace_id,nullzero"`
	Verb        string         `bun:"verb"`
	ObjectType  string         `bun:"object_type"`
	ObjectID    string         `bun:"object_id"`
	Channel     string         `bun:"channel"`
	Data        map[string]any `bun:"data,type:jsonb"`
	CreatedAt   time.Time      `bun:"created_at"`
}
