package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modwatch/modwatch/redapi"
)

// RedditPlatform adapts a redapi.Client to the Platform interface, translating
// HTTP status codes into the engine's error kinds.
type RedditPlatform struct {
	Client *redapi.Client
}

var _ Platform = (*RedditPlatform)(nil)

func (p *RedditPlatform) ModeratedCommunities(ctx context.Context, accountID string) ([]CommunityRef, error) {
	listing, err := p.Client.AccountModerated(ctx, accountID)
	if err != nil {
		return nil, p.mapError(err)
	}
	refs := make([]CommunityRef, 0, len(listing))
	for _, entry := range listing {
		refs = append(refs, CommunityRef{
			Name:     strings.ToLower(entry.Subreddit),
			Fullname: strings.ToLower(entry.Fullname),
		})
	}
	return refs, nil
}

func (p *RedditPlatform) CommunityInfo(ctx context.Context, name string) (*CommunityInfo, error) {
	about, err := p.Client.SubredditAbout(ctx, name)
	if err != nil {
		return nil, p.mapError(err)
	}
	info := &CommunityInfo{
		Name:        strings.ToLower(about.DisplayName),
		NSFW:        about.Over18,
		Quarantined: about.Quarantine,
	}
	if about.Subscribers != nil {
		info.Subscribers = *about.Subscribers
	}
	return info, nil
}

func (p *RedditPlatform) CommunityModerators(ctx context.Context, name string) ([]string, error) {
	mods, err := p.Client.SubredditModerators(ctx, name)
	if err != nil {
		return nil, p.mapError(err)
	}
	return mods, nil
}

func (p *RedditPlatform) CommunityVisibility(ctx context.Context, name string) (Visibility, error) {
	_, err := p.Client.SubredditAbout(ctx, name)
	switch {
	case err == nil:
		return VisibilityVisible, nil
	case redapi.IsForbidden(err):
		return VisibilityForbidden, nil
	case redapi.IsNotFound(err):
		return VisibilityNotFound, nil
	default:
		return VisibilityUnknown, err
	}
}

func (p *RedditPlatform) AccountCreatedAt(ctx context.Context, accountID string) (time.Time, error) {
	about, err := p.Client.AccountAbout(ctx, accountID)
	if err != nil {
		return time.Time{}, p.mapError(err)
	}
	return time.Unix(int64(about.CreatedUTC), 0).UTC(), nil
}

func (p *RedditPlatform) mapError(err error) error {
	switch {
	case redapi.IsForbidden(err):
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	case redapi.IsNotFound(err):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return err
	}
}
