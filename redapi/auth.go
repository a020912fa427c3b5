package redapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/time/rate"
)

// DefaultTokenURL is the unauthenticated endpoint for the OAuth password grant.
var DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"

var ErrNoAuthSession = errors.New("no auth session found")

const authSessionPath = "modwatch/auth-session.json"

// Credentials for a script-type OAuth app tied to a single account.
type Credentials struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
	UserAgent string `json:"user_agent"`
}

// AuthSession is the persisted login state. The credentials are kept so an
// expired token can be refreshed without prompting again.
type AuthSession struct {
	Credentials Credentials `json:"credentials"`
	Auth        AuthInfo    `json:"auth"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	ErrStr      string `json:"error"`
}

// Login performs the OAuth2 password grant and returns token info.
func Login(ctx context.Context, creds Credentials) (*AuthInfo, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, DefaultTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(creds.AppID, creds.AppSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if creds.UserAgent != "" {
		req.Header.Set("User-Agent", creds.UserAgent)
	}

	resp, err := RobustHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromHTTPResponse(resp, fmt.Errorf("token request rejected"))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	if tok.ErrStr != "" {
		return nil, fmt.Errorf("login failed: %s", tok.ErrStr)
	}

	return &AuthInfo{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresAt:   time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}, nil
}

// PersistAuthSession writes the session to the XDG state directory.
func PersistAuthSession(sess *AuthSession) error {
	fPath, err := xdg.StateFile(authSessionPath)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(fPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	authBytes, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	_, err = f.Write(authBytes)
	return err
}

// LoadAuthClient restores the persisted session, refreshing the token from the
// stored credentials if it has expired, and returns a ready-to-use client.
func LoadAuthClient(ctx context.Context, qps float64) (*Client, error) {
	fPath, err := xdg.SearchStateFile(authSessionPath)
	if err != nil {
		return nil, ErrNoAuthSession
	}

	fBytes, err := os.ReadFile(fPath)
	if err != nil {
		return nil, err
	}

	var sess AuthSession
	if err := json.Unmarshal(fBytes, &sess); err != nil {
		return nil, fmt.Errorf("parsing auth session: %w", err)
	}

	if time.Now().After(sess.Auth.ExpiresAt.Add(-1 * time.Minute)) {
		auth, err := Login(ctx, sess.Credentials)
		if err != nil {
			return nil, fmt.Errorf("refreshing auth session: %w", err)
		}
		sess.Auth = *auth
		if err := PersistAuthSession(&sess); err != nil {
			return nil, err
		}
	}

	if qps <= 0 {
		qps = DefaultQPS
	}
	return &Client{
		Auth:      &sess.Auth,
		UserAgent: sess.Credentials.UserAgent,
		Limiter:   rate.NewLimiter(rate.Limit(qps), 1),
	}, nil
}

// WipeAuthSession removes the persisted session, if any.
func WipeAuthSession() error {
	fPath, err := xdg.SearchStateFile(authSessionPath)
	if err != nil {
		return nil
	}
	return os.Remove(fPath)
}
