package service

import (
	"context"

	"vscsfarm/internal/farm/repository"
	"vscsfarm/internal/platform"
)

// TitleDirectory resolves display titles shown next to each container.
type TitleDirectory interface {
	UserTitle(ctx context.Context, token, userID string) (string, error)
	ContestTitle(ctx context.Context, token, userID, contestID string) (string, error)
}

// PlatformTitles asks the platform API on behalf of the caller and keeps
// answers in an optional title cache.
type PlatformTitles struct {
	client *platform.Client
	cache  repository.TitleCacheRepository
}

// NewPlatformTitles builds a directory; a nil cache disables caching.
func NewPlatformTitles(client *platform.Client, cache repository.TitleCacheRepository) *PlatformTitles {
	return &PlatformTitles{client: client, cache: cache}
}

func (p *PlatformTitles) UserTitle(ctx context.Context, token, userID string) (string, error) {
	load := func(ctx context.Context) (string, error) {
		profile, err := p.client.WithToken(token).UserProfile(ctx, userID)
		return profile.Name, err
	}
	if p.cache == nil {
		return load(ctx)
	}
	return p.cache.UserTitle(ctx, userID, load)
}

func (p *PlatformTitles) ContestTitle(ctx context.Context, token, userID, contestID string) (string, error) {
	load := func(ctx context.Context) (string, error) {
		contest, err := p.client.WithToken(token).Contest(ctx, contestID)
		return contest.Title, err
	}
	if p.cache == nil {
		return load(ctx)
	}
	return p.cache.ContestTitle(ctx, contestID, userID, load)
}
