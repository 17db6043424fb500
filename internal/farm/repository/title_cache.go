package repository

import (
	"context"
	"time"

	"vscsfarm/internal/common/cache"
)

const (
	titleKeyPrefix   = "vscs:title:"
	defaultTitleTTL  = 5 * time.Minute
	maxEmptyTitleTTL = time.Minute
	titleKindUser    = "user:"
	titleKindContest = "contest:"
)

// TitleLoader fetches a title on a cache miss.
type TitleLoader func(ctx context.Context) (string, error)

type TitleCacheRepository interface {
	UserTitle(ctx context.Context, userID string, load TitleLoader) (string, error)
	ContestTitle(ctx context.Context, contestID, userID string, load TitleLoader) (string, error)
}

// CachedTitleRepository keeps display titles in a cache.Cache. Contest titles
// depend on the caller's access, so they are keyed per user.
type CachedTitleRepository struct {
	cache    cache.Cache
	ttl      time.Duration
	emptyTTL time.Duration
}

func NewTitleCacheRepository(cacheClient cache.Cache, ttl time.Duration) TitleCacheRepository {
	if ttl <= 0 {
		ttl = defaultTitleTTL
	}
	emptyTTL := ttl
	if emptyTTL > maxEmptyTitleTTL {
		emptyTTL = maxEmptyTitleTTL
	}
	return &CachedTitleRepository{cache: cacheClient, ttl: ttl, emptyTTL: emptyTTL}
}

func (r *CachedTitleRepository) UserTitle(ctx context.Context, userID string, load TitleLoader) (string, error) {
	return r.get(ctx, titleKindUser+userID, load)
}

func (r *CachedTitleRepository) ContestTitle(ctx context.Context, contestID, userID string, load TitleLoader) (string, error) {
	return r.get(ctx, titleKindContest+contestID+":"+userID, load)
}

func (r *CachedTitleRepository) get(ctx context.Context, key string, load TitleLoader) (string, error) {
	if r.cache == nil {
		return load(ctx)
	}
	return cache.GetWithCached(ctx, r.cache, titleKeyPrefix+key, r.ttl, r.emptyTTL, load)
}
