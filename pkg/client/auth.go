package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/usestring/splunk-mcp/pkg/types"
)

// DefaultSessionTTL is how long a Splunk session key is reused.
const DefaultSessionTTL = 5 * time.Minute

const pathLogin = "/services/auth/login"

// Authenticator decorates an outgoing request with credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, req *http.Request) error
}

// Invalidator is implemented by authenticators holding cached credentials
// that must be dropped after a 401.
type Invalidator interface {
	Invalidate()
}

// TokenCache stores session keys by credential fingerprint. Implementations
// must be safe for concurrent use.
type TokenCache interface {
	Get(key string) (string, bool)
	Set(key, token string, ttl time.Duration)
	Delete(key string)
}

// TokenAuth sends a Splunk authentication token as a bearer token.
type TokenAuth struct {
	Token string
}

func (a TokenAuth) Authenticate(_ context.Context, req *http.Request) error {
	if a.Token == "" {
		return &AuthError{Err: errors.New("api token is empty")}
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	return nil
}

// BasicAuth sends username and password on every request.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) Authenticate(_ context.Context, req *http.Request) error {
	req.SetBasicAuth(a.Username, a.Password)
	return nil
}

// DefaultLoginTimeout bounds one session login.
const DefaultLoginTimeout = 30 * time.Second

// Sessions is the state shared by the session authenticators of one service:
// the key cache and the logins in progress. Concurrent logins with the same
// credentials are made once. A nil Cache logs in before every request.
type Sessions struct {
	Cache TokenCache
	// TTL <= 0 uses DefaultSessionTTL.
	TTL time.Duration
	// LoginTimeout <= 0 uses DefaultLoginTimeout.
	LoginTimeout time.Duration

	logins singleflight.Group
}

func (s *Sessions) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultSessionTTL
	}
	return s.TTL
}

func (s *Sessions) loginTimeout() time.Duration {
	if s.LoginTimeout <= 0 {
		return DefaultLoginTimeout
	}
	return s.LoginTimeout
}

// SessionAuth exchanges username and password for a session key and reuses
// the key until it expires from the cache.
type SessionAuth struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	sessions   *Sessions
}

// NewSessionAuth creates a session authenticator. A nil sessions gives the
// authenticator state of its own, without a cache.
func NewSessionAuth(baseURL, username, password string, httpClient *http.Client, sessions *Sessions) *SessionAuth {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if sessions == nil {
		sessions = &Sessions{}
	}
	return &SessionAuth{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: httpClient,
		sessions:   sessions,
	}
}

// Authenticate sets the session key, logging in when none is cached. A
// canceled ctx stops this caller waiting but not the shared login.
func (a *SessionAuth) Authenticate(ctx context.Context, req *http.Request) error {
	key := a.key()
	cache := a.sessions.Cache

	if cache != nil {
		if token, ok := cache.Get(key); ok {
			req.Header.Set("Authorization", "Splunk "+token)
			return nil
		}
	}

	ch := a.sessions.logins.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.sessions.loginTimeout())
		defer cancel()

		token, err := login(lctx, a.httpClient, a.baseURL, a.username, a.password)
		if err != nil {
			return "", err
		}
		if cache != nil {
			cache.Set(key, token, a.sessions.ttl())
		}
		return token, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		req.Header.Set("Authorization", "Splunk "+res.Val.(string))
		return nil
	}
}

// Invalidate drops the cached session key.
func (a *SessionAuth) Invalidate() {
	if a.sessions.Cache != nil {
		a.sessions.Cache.Delete(a.key())
	}
}

func (a *SessionAuth) key() string {
	return Fingerprint(a.baseURL, a.username, a.password)
}

// Fingerprint derives a cache key from credentials without keeping them in
// the clear.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type loginResponse struct {
	SessionKey string `json:"sessionKey"`
}

func login(ctx context.Context, httpClient *http.Client, baseURL, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+pathLogin+"?output_mode=json", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("creating login request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading login response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return "", &AuthError{StatusCode: resp.StatusCode, Body: string(body), Err: NewParseError(body, err)}
	}
	if lr.SessionKey == "" {
		return "", &AuthError{StatusCode: resp.StatusCode, Body: string(body), Err: errors.New("login response has no sessionKey")}
	}
	return lr.SessionKey, nil
}

// NewAuthenticator selects the Authenticator for opts.AuthMode.
func NewAuthenticator(opts *types.Options, httpClient *http.Client, sessions *Sessions) (Authenticator, error) {
	switch opts.AuthMode {
	case types.AuthModeToken:
		return TokenAuth{Token: opts.APIToken}, nil
	case types.AuthModeBasic:
		return BasicAuth{Username: opts.Username, Password: opts.Password}, nil
	case types.AuthModeSession:
		return NewSessionAuth(opts.URL, opts.Username, opts.Password, httpClient, sessions), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", opts.AuthMode)
	}
}
