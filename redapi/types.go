package redapi

import (
	"context"
	"fmt"
	"net/url"
)

// thing is the standard kind/data envelope the platform wraps most objects in.
type thing[T any] struct {
	Kind string `json:"kind"`
	Data T      `json:"data"`
}

// ModeratedSubreddit is one entry from a /user/{name}/moderated_subreddits listing.
type ModeratedSubreddit struct {
	// Fullname is the globally-unique id, prefixed with "t5_".
	Fullname string `json:"name"`
	// Subreddit is the display name, without the "r/" prefix.
	Subreddit   string `json:"sr"`
	Subscribers int64  `json:"subscribers"`
	Over18      bool   `json:"over_18"`
}

type AccountAbout struct {
	Name       string  `json:"name"`
	CreatedUTC float64 `json:"created_utc"`
}

type SubredditAbout struct {
	DisplayName string `json:"display_name"`
	// Subscribers is null for some subreddit states; callers should treat nil as zero.
	Subscribers   *int64 `json:"subscribers"`
	Over18        bool   `json:"over18"`
	Quarantine    bool   `json:"quarantine"`
	SubredditType string `json:"subreddit_type"`
}

type moderatorListing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []struct {
			Name string `json:"name"`
		} `json:"children"`
	} `json:"data"`
}

type wikiPage struct {
	Kind string `json:"kind"`
	Data struct {
		ContentMD string `json:"content_md"`
	} `json:"data"`
}

// AccountModerated fetches the subreddits an account moderates. Suspended and
// deleted accounts return a 404.
func (c *Client) AccountModerated(ctx context.Context, username string) ([]ModeratedSubreddit, error) {
	var listing struct {
		Kind string               `json:"kind"`
		Data []ModeratedSubreddit `json:"data"`
	}
	path := fmt.Sprintf("/user/%s/moderated_subreddits", url.PathEscape(username))
	if err := c.Get(ctx, path, nil, &listing); err != nil {
		return nil, fmt.Errorf("fetching moderated subreddits for u/%s: %w", username, err)
	}
	return listing.Data, nil
}

func (c *Client) AccountAbout(ctx context.Context, username string) (*AccountAbout, error) {
	var t thing[AccountAbout]
	path := fmt.Sprintf("/user/%s/about", url.PathEscape(username))
	if err := c.Get(ctx, path, nil, &t); err != nil {
		return nil, fmt.Errorf("fetching account u/%s: %w", username, err)
	}
	return &t.Data, nil
}

// SubredditAbout fetches subreddit metadata. Private subreddits return a 403
// and banned ones a 404; callers classify those via IsForbidden / IsNotFound.
func (c *Client) SubredditAbout(ctx context.Context, name string) (*SubredditAbout, error) {
	var t thing[SubredditAbout]
	path := fmt.Sprintf("/r/%s/about", url.PathEscape(name))
	if err := c.Get(ctx, path, nil, &t); err != nil {
		return nil, fmt.Errorf("fetching subreddit r/%s: %w", name, err)
	}
	return &t.Data, nil
}

// SubredditModerators fetches the moderator usernames of a subreddit. The
// listing is hidden (403) for subreddits the session can not view.
func (c *Client) SubredditModerators(ctx context.Context, name string) ([]string, error) {
	var listing moderatorListing
	path := fmt.Sprintf("/r/%s/about/moderators", url.PathEscape(name))
	if err := c.Get(ctx, path, nil, &listing); err != nil {
		return nil, fmt.Errorf("fetching moderators of r/%s: %w", name, err)
	}
	mods := make([]string, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		mods = append(mods, child.Name)
	}
	return mods, nil
}

// WikiPage fetches the raw markdown body of a subreddit wiki page.
func (c *Client) WikiPage(ctx context.Context, subreddit, page string) (string, error) {
	var wp wikiPage
	path := fmt.Sprintf("/r/%s/wiki/%s", url.PathEscape(subreddit), url.PathEscape(page))
	if err := c.Get(ctx, path, nil, &wp); err != nil {
		return "", fmt.Errorf("fetching wiki r/%s/wiki/%s: %w", subreddit, page, err)
	}
	return wp.Data.ContentMD, nil
}
