package activity

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestRepository_LogAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestActivityDB(t)
	applyActivityDDL(t, db)

	store, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	event := types.ActivityRecord{
		ActorID:     uuid.New(),
		WorkspaceID: 7,
		Verb:        "role.custom.added",
		ObjectType:  "role",
		ObjectID:    "12",
		Channel:     "roles",
		Data: map[string]any{
			"role_name": "ROLE_WS_CUSTOM_7_ROLE_TUTOR",
		},
	}
	require.NoError(t, store.Log(ctx, event))

	page, err := store.ListActivity(ctx, types.ActivityFilter{
		Verbs:      []string{"role.custom.added"},
		Pagination: types.Pagination{Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, int64(7), page.Records[0].WorkspaceID)
	require.Equal(t, "ROLE_WS_CUSTOM_7_ROLE_TUTOR", page.Records[0].Data["role_name"])
	require.NotEqual(t, uuid.Nil, page.Records[0].ID)
	require.False(t, page.Records[0].OccurredAt.IsZero())
}

func TestRepository_FiltersByWorkspaceAndActor(t *testing.T) {
	ctx := context.Background()
	db := newTestActivityDB(t)
	applyActivityDDL(t, db)
	store, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	actor := uuid.New()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Log(ctx, types.ActivityRecord{ActorID: actor, WorkspaceID: 1, Verb: "role.renamed", OccurredAt: base}))
	require.NoError(t, store.Log(ctx, types.ActivityRecord{ActorID: uuid.New(), WorkspaceID: 1, Verb: "role.deleted", OccurredAt: base.Add(time.Minute)}))
	require.NoError(t, store.Log(ctx, types.ActivityRecord{ActorID: actor, WorkspaceID: 2, Verb: "role.moved", OccurredAt: base.Add(2 * time.Minute)}))

	page, err := store.ListActivity(ctx, types.ActivityFilter{Scope: types.ScopeFilter{WorkspaceID: 1}})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Equal(t, "role.deleted", page.Records[0].Verb)

	page, err = store.ListActivity(ctx, types.ActivityFilter{ActorID: actor})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)

	page, err = store.ListActivity(ctx, types.ActivityFilter{Scope: types.ScopeFilter{WorkspaceID: 2}, ActorID: actor})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, "role.moved", page.Records[0].Verb)

	page, err = store.ListActivity(ctx, types.ActivityFilter{Pagination: types.Pagination{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	require.True(t, page.HasMore)
	require.Equal(t, 2, page.NextOffset)
}

func TestRepository_MasksSensitiveData(t *testing.T) {
	ctx := context.Background()
	db := newTestActivityDB(t)
	applyActivityDDL(t, db)
	store, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	require.NoError(t, store.Log(ctx, types.ActivityRecord{
		Verb: "profile.updated",
		Data: map[string]any{"password": "secret-value", "field": "bio"},
	}))

	page, err := store.ListActivity(ctx, types.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.NotEqual(t, "secret-value", page.Records[0].Data["password"])
	require.Equal(t, "bio", page.Records[0].Data["field"])
}

func TestSanitizeRecordMasksDefaultFields(t *testing.T) {
	record := types.ActivityRecord{
		Data: map[string]any{
			"password": "secret-value",
			"token":    "abcd1234",
			"secret":   "shh",
		},
	}
	out := SanitizeRecord(DefaultMasker(), record)
	require.NotEqual(t, "secret-value", out.Data["password"])
	require.NotEqual(t, "abcd1234", out.Data["token"])
	require.NotEqual(t, "shh", out.Data["secret"])
	require.Equal(t, "secret-value", record.Data["password"])
}

func newTestActivityDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open("sqlite3", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})
	return db
}

func applyActivityDDL(t *testing.T, db *bun.DB) {
	content, err := os.ReadFile("../data/sql/migrations/sqlite/00003_workspace_activity.up.sql")
	require.NoError(t, err)
	for _, stmt := range splitStatements(string(content)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func splitStatements(sql string) []string {
	lines := strings.Split(sql, "\n")
	var builder strings.Builder
	var statements []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		builder.WriteString(line)
		if strings.HasSuffix(line, ";") {
			statements = append(statements, strings.TrimSuffix(builder.String(), ";"))
			builder.Reset()
		} else {
			builder.WriteString(" ")
		}
	}
	if builder.Len() > 0 {
		statements = append(statements, builder.String())
	}
	return statements
}
