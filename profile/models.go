package profile

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the user_profiles row.
type Record struct {
	bun.BaseModel `bun:"table:user_profiles"`

	UserID      uuid.UUID      `bun:"user_id,pk,type:uuid"`
	Username    string         `bun:"username"`
	FirstName   string         `bun:"first_name"`
	LastName    string         `bun:"last_name"`
	DisplayName string         `bun:"display_name"`
	Email       string         `bun:"email"`
	Locale      string         `bun:"locale"`
	Bio         string         `bun:"bio"`
	Metadata    map[string]any `bun:"metadata,type:jsonb"`
	CreatedAt   time.Time      `bun:"created_at"`
	CreatedBy   uuid.UUID      `bun:"created_by,type:uuid"`
	UpdatedAt   time.Time      `bun:"updated_at"`
	UpdatedBy   uuid.UUID      `bun:"updated_by,type:uuid"`
}
