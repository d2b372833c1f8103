package query

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-workspaces/activity"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/goliatone/go-workspaces/scope"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestActivityFeedQuery_PlatformFeedIsSelfOnlyForMembers(t *testing.T) {
	ctx := context.Background()
	store := newActivityStore(t)

	actorID := uuid.New()
	otherID := uuid.New()
	require.NoError(t, store.Log(ctx, types.ActivityRecord{ActorID: actorID, Verb: "profile.updated"}))
	require.NoError(t, store.Log(ctx, types.ActivityRecord{ActorID: otherID, Verb: "profile.updated"}))

	feed := NewActivityFeedQuery(store, nil)
	page, err := feed.Query(ctx, types.ActivityFilter{
		Actor:      types.ActorRef{ID: actorID, Type: types.ActorTypeUser},
		Pagination: types.Pagination{Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, actorID, page.Records[0].ActorID)

	page, err = feed.Query(ctx, types.ActivityFilter{
		Actor:      types.ActorRef{ID: uuid.New(), Roles: []string{types.PlatformAdminRole}},
		Pagination: types.Pagination{Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
}

func TestActivityFeedQuery_WorkspaceScope(t *testing.T) {
	ctx := context.Background()
	store := newActivityStore(t)

	actorID := uuid.New()
	require.NoError(t, store.Log(ctx, types.ActivityRecord{ActorID: actorID, WorkspaceID: 3, Verb: "role.renamed"}))
	require.NoError(t, store.Log(ctx, types.ActivityRecord{ActorID: uuid.New(), WorkspaceID: 3, Verb: "role.moved"}))
	require.NoError(t, store.Log(ctx, types.ActivityRecord{ActorID: actorID, WorkspaceID: 4, Verb: "role.moved"}))

	policy := &recordingPolicy{}
	feed := NewActivityFeedQuery(store, scope.NewGuard(nil, policy))
	page, err := feed.Query(ctx, types.ActivityFilter{
		Actor: types.ActorRef{ID: actorID},
		Scope: types.ScopeFilter{WorkspaceID: 3},
	})
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	require.Equal(t, types.PolicyActionActivityRead, policy.checks[0].Action)

	policy.deny = true
	_, err = feed.Query(ctx, types.ActivityFilter{
		Actor: types.ActorRef{ID: actorID},
		Scope: types.ScopeFilter{WorkspaceID: 4},
	})
	require.ErrorIs(t, err, types.ErrUnauthorizedScope)
}

func TestActivityFeedQuery_Validation(t *testing.T) {
	_, err := NewActivityFeedQuery(nil, nil).Query(context.Background(), types.ActivityFilter{})
	require.ErrorIs(t, err, types.ErrMissingActivityRepository)

	_, err = NewActivityFeedQuery(newActivityStore(t), nil).Query(context.Background(), types.ActivityFilter{})
	require.ErrorIs(t, err, types.ErrActorRequired)
}

func newActivityStore(t *testing.T) *activity.Repository {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	sqldb, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	path := filepath.Join("..", "data", "sql", "migrations", "sqlite", "00003_workspace_activity.up.sql")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, stmt := range strings.Split(string(content), ";") {
		if stmt = strings.TrimSpace(stmt); stmt == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	store, err := activity.NewRepository(activity.RepositoryConfig{DB: db})
	require.NoError(t, err)
	return store
}
