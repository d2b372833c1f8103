package profile

import (
	"context"
	"errors"
	"fmt"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/goliatone/go-workspaces/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed profile repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
}

type profileStore interface {
	repository.Repository[*Record]
}

// Repository implements types.ProfileRepository using Bun.
type Repository struct {
	profileStore
	clock types.Clock
}

// NewRepository constructs the default profile repository. WithCache wraps
// the record repository in a go-repository-cache decorator.
func NewRepository(cfg RepositoryConfig, opts ...RepositoryOption) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("profile: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = NewRecordRepository(cfg.DB)
	}

	options := applyRepositoryOptions(opts)
	if options.CacheEnabled {
		wrapped, err := withCache(repo, options.CacheConfig)
		if err != nil {
			return nil, err
		}
		repo = wrapped
	}

	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}

	return &Repository{
		profileStore: repo,
		clock:        clock,
	}, nil
}

// NewRecordRepository builds the plain go-repository-bun repository for
// profile rows.
func NewRecordRepository(db *bun.DB) repository.Repository[*Record] {
	return repository.NewRepository(db, repository.ModelHandlers[*Record]{
		NewRecord: func() *Record { return &Record{} },
		GetID: func(rec *Record) uuid.UUID {
			if rec == nil {
				return uuid.Nil
			}
			return rec.UserID
		},
		SetID: func(rec *Record, id uuid.UUID) {
			if rec != nil {
				rec.UserID = id
			}
		},
	})
}

func withCache(repo repository.Repository[*Record], cfg *cache.Config) (repository.Repository[*Record], error) {
	if cached, ok := repo.(*repositorycache.CachedRepository[*Record]); ok {
		return cached, nil
	}
	config := cache.DefaultConfig()
	if cfg != nil {
		config = *cfg
	}
	service, err := cache.NewCacheService(config)
	if err != nil {
		return nil, fmt.Errorf("profile: cache service: %w", err)
	}
	return repositorycache.New(repo, service, cache.NewDefaultKeySerializer()), nil
}

var _ types.ProfileRepository = (*Repository)(nil)

// GetProfile returns the profile for the user, or nil when none exists.
func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rec, err := r.Get(ctx, selectUserID(userID))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(rec), nil
}

// UpsertProfile inserts or updates the user profile.
func (r *Repository) UpsertProfile(ctx context.Context, profile types.UserProfile) (*types.UserProfile, error) {
	if profile.UserID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	now := r.clock.Now()
	rec := fromDomain(profile)
	rec.UpdatedAt = now
	if rec.UpdatedBy == uuid.Nil {
		rec.UpdatedBy = profile.CreatedBy
	}

	existing, err := r.Get(ctx, selectUserID(profile.UserID))
	switch {
	case err == nil:
		rec.CreatedAt = existing.CreatedAt
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if rec.CreatedBy == uuid.Nil {
			rec.CreatedBy = existing.CreatedBy
			if rec.CreatedBy == uuid.Nil {
				rec.CreatedBy = rec.UpdatedBy
			}
		}
		updated, err := r.Update(ctx, rec)
		if err != nil {
			return nil, err
		}
		return toDomain(updated), nil
	case repository.IsRecordNotFound(err):
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if rec.CreatedBy == uuid.Nil {
			rec.CreatedBy = rec.UpdatedBy
		}
		created, err := r.Create(ctx, rec)
		if err != nil {
			return nil, err
		}
		return toDomain(created), nil
	default:
		return nil, err
	}
}

func selectUserID(userID uuid.UUID) repository.SelectCriteria {
	return repository.SelectBy("user_id", "=", userID.String())
}

func fromDomain(profile types.UserProfile) *Record {
	return &Record{
		UserID:      profile.UserID,
		Username:    profile.Username,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
		Locale:      profile.Locale,
		Bio:         profile.Bio,
		Metadata:    cloneMap(profile.Metadata),
		CreatedAt:   profile.CreatedAt,
		CreatedBy:   profile.CreatedBy,
		UpdatedAt:   profile.UpdatedAt,
		UpdatedBy:   profile.UpdatedBy,
	}
}

func toDomain(rec *Record) *types.UserProfile {
	if rec == nil {
		return nil
	}
	return &types.UserProfile{
		UserID:      rec.UserID,
		Username:    rec.Username,
		FirstName:   rec.FirstName,
		LastName:    rec.LastName,
		DisplayName: rec.DisplayName,
		Email:       rec.Email,
		Locale:      rec.Locale,
		Bio:         rec.Bio,
		Metadata:    cloneMap(rec.Metadata),
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		CreatedBy:   rec.CreatedBy,
		UpdatedBy:   rec.UpdatedBy,
	}
}

func cloneMap(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for k, v := range origin {
		out[k] = v
	}
	return out
}
