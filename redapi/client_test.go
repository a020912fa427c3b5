package redapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		Host:   srv.URL,
		Client: srv.Client(),
	}
}

func TestAccountModerated(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/somebot/moderated_subreddits", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("raw_json"))
		w.Write([]byte(`{"kind": "ModeratedList", "data": [
			{"name": "t5_abc", "sr": "AskStuff", "subscribers": 1000},
			{"name": "t5_def", "sr": "u_somebot"}
		]}`))
	})

	listing, err := c.AccountModerated(context.Background(), "somebot")
	require.NoError(t, err)
	require.Len(t, listing, 2)
	assert.Equal(t, "AskStuff", listing[0].Subreddit)
	assert.Equal(t, "t5_abc", listing[0].Fullname)
	assert.Equal(t, int64(1000), listing[0].Subscribers)
}

func TestSubredditAbout(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"kind": "t5", "data": {
			"display_name": "AskStuff",
			"subscribers": 4321,
			"over18": true,
			"quarantine": false,
			"subreddit_type": "public"
		}}`))
	})

	about, err := c.SubredditAbout(context.Background(), "askstuff")
	require.NoError(t, err)
	require.NotNil(t, about.Subscribers)
	assert.Equal(t, int64(4321), *about.Subscribers)
	assert.True(t, about.Over18)
}

func TestSubredditAboutNullSubscribers(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"kind": "t5", "data": {"display_name": "odd", "subscribers": null}}`))
	})

	about, err := c.SubredditAbout(context.Background(), "odd")
	require.NoError(t, err)
	assert.Nil(t, about.Subscribers)
}

func TestSubredditModerators(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/askstuff/about/moderators", r.URL.Path)
		w.Write([]byte(`{"kind": "UserList", "data": {"children": [
			{"name": "mod1"}, {"name": "mod2"}
		]}}`))
	})

	mods, err := c.SubredditModerators(context.Background(), "askstuff")
	require.NoError(t, err)
	assert.Equal(t, []string{"mod1", "mod2"}, mods)
}

func TestWikiPage(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"kind": "wikipage", "data": {"content_md": "somebot:\n  - acct\n"}}`))
	})

	body, err := c.WikiPage(context.Background(), "botwatch", "moderator_bots")
	require.NoError(t, err)
	assert.Contains(t, body, "somebot:")
}

func TestErrorPredicates(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"forbidden", http.StatusForbidden, IsForbidden},
		{"not found", http.StatusNotFound, IsNotFound},
		{"throttled", http.StatusTooManyRequests, IsThrottled},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"reason": "testing", "message": "nope"}`))
			})

			_, err := c.SubredditAbout(context.Background(), "somewhere")
			require.Error(t, err)
			assert.True(t, tc.check(err), "predicate must match through wrapping")
		})
	}
}

func TestRatelimitHeaders(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-ratelimit-remaining", "0")
		w.Header().Set("x-ratelimit-used", "600")
		w.Header().Set("x-ratelimit-reset", "120")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message": "too many requests"}`))
	})

	err := c.Get(context.Background(), "/user/whoever/about", nil, nil)
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.NotNil(t, apiErr.Ratelimit)
	assert.Equal(t, 0, apiErr.Ratelimit.Remaining)
	assert.Equal(t, 600, apiErr.Ratelimit.Used)
	assert.False(t, apiErr.Ratelimit.Reset.IsZero())
}
