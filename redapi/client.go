// Package redapi is a minimal client for the Reddit OAuth API, covering the
// handful of read endpoints the tracker needs: moderated-subreddit listings,
// account and subreddit metadata, moderator lists, and wiki pages.
package redapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIHost is the authenticated API endpoint.
	DefaultAPIHost = "https://oauth.reddit.com"

	// DefaultQPS is a conservative request rate for script-type OAuth apps.
	DefaultQPS = 1.0
)

type Client struct {
	// Client is an HTTP client to use. If not set, defaults to RobustHTTPClient().
	Client    *http.Client
	Auth      *AuthInfo
	Host      string
	UserAgent string
	// Limiter throttles outbound requests. If not set, requests are unthrottled.
	Limiter *rate.Limiter
}

type AuthInfo struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (c *Client) getClient() *http.Client {
	if c.Client == nil {
		return RobustHTTPClient()
	}
	return c.Client
}

func (c *Client) getHost() string {
	if c.Host == "" {
		return DefaultAPIHost
	}
	return c.Host
}

// APIError is the JSON error body the platform returns on non-2xx responses.
type APIError struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (ae *APIError) Error() string {
	if ae.Reason != "" {
		return fmt.Sprintf("%s: %s", ae.Reason, ae.Message)
	}
	return ae.Message
}

type Error struct {
	StatusCode int
	Wrapped    error
	Ratelimit  *RatelimitInfo
}

func (e *Error) Error() string {
	if e.Wrapped == nil {
		return fmt.Sprintf("API error %d", e.StatusCode)
	}
	if e.StatusCode == http.StatusTooManyRequests && e.Ratelimit != nil {
		return fmt.Sprintf("API error %d: %s (throttled until %s)", e.StatusCode, e.Wrapped, e.Ratelimit.Reset.Local())
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Wrapped)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

type RatelimitInfo struct {
	Used      int
	Remaining int
	Reset     time.Time
}

// IsForbidden reports whether err is an API error with status 403.
func IsForbidden(err error) bool {
	return isStatus(err, http.StatusForbidden)
}

// IsNotFound reports whether err is an API error with status 404.
func IsNotFound(err error) bool {
	return isStatus(err, http.StatusNotFound)
}

// IsThrottled reports whether err is an API error with status 429.
func IsThrottled(err error) bool {
	return isStatus(err, http.StatusTooManyRequests)
}

func isStatus(err error, code int) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.StatusCode == code
}

func errorFromHTTPResponse(resp *http.Response, err error) error {
	r := &Error{
		StatusCode: resp.StatusCode,
		Wrapped:    err,
	}
	if resp.Header.Get("x-ratelimit-remaining") != "" {
		r.Ratelimit = &RatelimitInfo{}
		if n, err := strconv.ParseFloat(resp.Header.Get("x-ratelimit-remaining"), 64); err == nil {
			r.Ratelimit.Remaining = int(n)
		}
		if n, err := strconv.ParseInt(resp.Header.Get("x-ratelimit-used"), 10, 64); err == nil {
			r.Ratelimit.Used = int(n)
		}
		if n, err := strconv.ParseInt(resp.Header.Get("x-ratelimit-reset"), 10, 64); err == nil {
			r.Ratelimit.Reset = time.Now().Add(time.Duration(n) * time.Second)
		}
	}
	return r
}

func makeParams(p map[string]any) string {
	params := url.Values{}
	// the platform escapes HTML entities in JSON bodies unless asked not to
	params.Add("raw_json", "1")
	for k, v := range p {
		if s, ok := v.([]string); ok {
			for _, v := range s {
				params.Add(k, v)
			}
		} else {
			params.Add(k, fmt.Sprint(v))
		}
	}
	return params.Encode()
}

// Get performs an authenticated GET against path (e.g. "/user/spez/about") and
// decodes the JSON response into out. Non-2xx responses are returned as *Error.
func (c *Client) Get(ctx context.Context, path string, params map[string]any, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	uri := c.getHost() + path + "?" + makeParams(params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}

	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	} else {
		req.Header.Set("User-Agent", "modwatch/"+versioninfo.Short())
	}
	if c.Auth != nil {
		req.Header.Set("Authorization", "Bearer "+c.Auth.AccessToken)
	}

	resp, err := c.getClient().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ae APIError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err != nil {
			return errorFromHTTPResponse(resp, fmt.Errorf("failed to decode error body: %w", err))
		}
		return errorFromHTTPResponse(resp, &ae)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
