package profile

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}

func TestRepository_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{
		DB:    db,
		Clock: fixedClock{t: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	})
	require.NoError(t, err)

	userID := uuid.New()
	actor := uuid.New()
	profile := types.UserProfile{
		UserID:      userID,
		Username:    "ada",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		DisplayName: "Initial Name",
		Email:       "ada@example.com",
		Locale:      "en",
		Metadata: map[string]any{
			"source": "import",
		},
		CreatedBy: actor,
		UpdatedBy: actor,
	}

	created, err := repo.UpsertProfile(ctx, profile)
	require.NoError(t, err)
	require.Equal(t, "Initial Name", created.DisplayName)
	require.NotZero(t, created.CreatedAt)
	require.NotZero(t, created.UpdatedAt)

	updatedProfile := *created
	updatedProfile.DisplayName = "Updated Name"
	updatedProfile.Bio = "Bio"
	updatedProfile.UpdatedBy = uuid.New()

	updated, err := repo.UpsertProfile(ctx, updatedProfile)
	require.NoError(t, err)
	require.Equal(t, "Updated Name", updated.DisplayName)
	require.Equal(t, updatedProfile.UpdatedBy, updated.UpdatedBy)
	require.Equal(t, actor, updated.CreatedBy)

	fetched, err := repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "Updated Name", fetched.DisplayName)
	require.Equal(t, "Bio", fetched.Bio)
	require.Equal(t, "Lovelace", fetched.LastName)
	require.Equal(t, "import", fetched.Metadata["source"])
}

func TestRepository_GetMissingProfile(t *testing.T) {
	db := newTestDB(t)
	applyDDL(t, db)
	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	profile, err := repo.GetProfile(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, profile)

	_, err = repo.GetProfile(context.Background(), uuid.Nil)
	require.ErrorIs(t, err, types.ErrUserIDRequired)
}

func TestRepository_CacheWrapsRepository(t *testing.T) {
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{Repository: NewRecordRepository(db)}, WithCache(true))
	require.NoError(t, err)

	_, ok := repo.profileStore.(*repositorycache.CachedRepository[*Record])
	require.True(t, ok)
}

func TestRepository_CacheDoesNotDoubleWrap(t *testing.T) {
	db := newTestDB(t)
	applyDDL(t, db)

	cacheService, err := cache.NewCacheService(cache.DefaultConfig())
	require.NoError(t, err)
	cached := repositorycache.New(NewRecordRepository(db), cacheService, cache.NewDefaultKeySerializer())

	repo, err := NewRepository(RepositoryConfig{Repository: cached}, WithCache(true), WithCacheConfig(cache.DefaultConfig()))
	require.NoError(t, err)

	stored, ok := repo.profileStore.(*repositorycache.CachedRepository[*Record])
	require.True(t, ok)
	require.Same(t, cached, stored)
}

func TestRepository_CachedUpsertIsVisible(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db}, WithCache(true))
	require.NoError(t, err)

	userID := uuid.New()
	_, err = repo.UpsertProfile(ctx, types.UserProfile{UserID: userID, DisplayName: "First", CreatedBy: userID})
	require.NoError(t, err)
	_, err = repo.GetProfile(ctx, userID)
	require.NoError(t, err)

	_, err = repo.UpsertProfile(ctx, types.UserProfile{UserID: userID, DisplayName: "Second", UpdatedBy: userID})
	require.NoError(t, err)

	fetched, err := repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "Second", fetched.DisplayName)
}

func newTestDB(t *testing.T) *bun.DB {
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

func applyDDL(t *testing.T, db *bun.DB) {
	content, err := os.ReadFile("../data/sql/migrations/sqlite/00004_user_profiles.up.sql")
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
