package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/usestring/splunk-mcp/pkg/types"
)

type mapCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newMapCache() *mapCache { return &mapCache{m: make(map[string]string)} }

func (c *mapCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *mapCache) Set(key, token string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = token
}

func (c *mapCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}

func TestExport_SendsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/services/search/jobs/export", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, `search index=main "8.8.8.8"`, r.PostForm.Get("search"))
		assert.Equal(t, "json", r.PostForm.Get("output_mode"))
		assert.Equal(t, "-30d", r.PostForm.Get("earliest_time"))
		assert.Equal(t, "fast", r.PostForm.Get("adhoc_search_level"))
		w.Write([]byte(`{"result":{"src_ip":"8.8.8.8"}}`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL+"/"), WithAuthenticator(TokenAuth{Token: "tok"}))
	resp, err := c.Export(context.Background(), ExportRequest{
		Search:           `search index=main "8.8.8.8"`,
		EarliestTime:     "-30d",
		AdhocSearchLevel: "fast",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"result":{"src_ip":"8.8.8.8"}}`, string(resp.Body))
}

func TestExport_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"messages":[{"type":"FATAL","text":"Unknown search command 'errorx'"}]}`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))

	resp, err := c.Export(context.Background(), ExportRequest{Search: "search errorx"}, http.StatusOK, http.StatusNotFound)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadRequest, te.StatusCode)
	assert.Equal(t, []string{"Unknown search command 'errorx'"}, te.Messages())
	assert.Contains(t, err.Error(), "Unknown search command")

	resp, err = c.Export(context.Background(), ExportRequest{Search: "search errorx"}, http.StatusOK, http.StatusBadRequest)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExport_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(WithBaseURL(url))
	_, err := c.Export(context.Background(), ExportRequest{Search: "search x"})

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Error(t, te.Err)
	assert.Zero(t, te.StatusCode)
}

func TestBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "changeme", pass)
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithAuthenticator(BasicAuth{Username: "admin", Password: "changeme"}))
	_, err := c.Export(context.Background(), ExportRequest{Search: "search x"})
	require.NoError(t, err)
}

func TestTokenAuth_Empty(t *testing.T) {
	c := New(WithBaseURL("http://127.0.0.1:1"), WithAuthenticator(TokenAuth{}))
	_, err := c.Export(context.Background(), ExportRequest{Search: "search x"})

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
}

func TestSessionAuth_CachesAndInvalidates(t *testing.T) {
	var logins, searches atomic.Int32
	var rejectNext atomic.Bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/services/auth/login":
			logins.Add(1)
			assert.Equal(t, "json", r.URL.Query().Get("output_mode"))
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "admin", r.PostForm.Get("username"))
			json.NewEncoder(w).Encode(map[string]string{"sessionKey": "key-1"})
		case "/services/search/jobs/export":
			searches.Add(1)
			assert.Equal(t, "Splunk key-1", r.Header.Get("Authorization"))
			if rejectNext.CompareAndSwap(true, false) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}
	}))
	defer srv.Close()

	cache := newMapCache()
	auth := NewSessionAuth(srv.URL, "admin", "changeme", srv.Client(), &Sessions{Cache: cache, TTL: time.Minute})
	c := New(WithBaseURL(srv.URL), WithAuthenticator(auth))

	for range 3 {
		_, err := c.Export(context.Background(), ExportRequest{Search: "search x"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), logins.Load())
	assert.Equal(t, int32(3), searches.Load())

	rejectNext.Store(true)
	_, err := c.Export(context.Background(), ExportRequest{Search: "search x"})
	require.Error(t, err)

	_, ok := cache.Get(auth.key())
	assert.False(t, ok, "401 should evict the cached session key")

	_, err = c.Export(context.Background(), ExportRequest{Search: "search x"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), logins.Load())
}

func TestSessionAuth_LoginFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bad credentials", http.StatusUnauthorized, `{"messages":[{"type":"WARN","text":"Login failed"}]}`},
		{"html body", http.StatusOK, `<html><head><title>Proxy Error</title></head></html>`},
		{"missing key", http.StatusOK, `{"other":"value"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			auth := NewSessionAuth(srv.URL, "admin", tt.name, srv.Client(), nil)
			c := New(WithBaseURL(srv.URL), WithAuthenticator(auth))

			_, err := c.Export(context.Background(), ExportRequest{Search: "search x"})
			var ae *AuthError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.status, ae.StatusCode)
			assert.Equal(t, tt.body, ae.Body)
		})
	}
}

func TestNewAuthenticator(t *testing.T) {
	a, err := NewAuthenticator(&types.Options{AuthMode: types.AuthModeToken, APIToken: "t"}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, TokenAuth{}, a)

	a, err = NewAuthenticator(&types.Options{AuthMode: types.AuthModeBasic}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, BasicAuth{}, a)

	a, err = NewAuthenticator(&types.Options{AuthMode: types.AuthModeSession, URL: "https://splunk:8089"}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &SessionAuth{}, a)

	_, err = NewAuthenticator(&types.Options{AuthMode: "kerberos"}, nil, nil)
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("u", "p"), Fingerprint("u", "p"))
	assert.NotEqual(t, Fingerprint("u", "p"), Fingerprint("up", ""))
	assert.NotContains(t, Fingerprint("admin", "changeme"), "changeme")
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"json", `{"messages":[{"type":"ERROR","text":"first"},{"type":"ERROR","text":"second"}]}`, []string{"first", "second"}},
		{"xml", `<?xml version="1.0"?><response><messages><msg type="WARN">call not properly authenticated</msg></messages></response>`, []string{"call not properly authenticated"}},
		{"no messages", `{"preview":false}`, nil},
		{"empty", ``, nil},
		{"garbage", `not json`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessages([]byte(tt.body)))
		})
	}
}

func TestNewParseError_HTMLHint(t *testing.T) {
	cause := errors.New("invalid character '<'")

	pe := NewParseError([]byte(`<html><head><title>502 Bad Gateway</title></head><body></body></html>`), cause)
	assert.Equal(t, "502 Bad Gateway", pe.Hint)
	assert.ErrorIs(t, pe, cause)
	assert.Contains(t, pe.Error(), "502 Bad Gateway")

	pe = NewParseError([]byte(`<html><body><h1>Access denied</h1></body></html>`), cause)
	assert.Equal(t, "Access denied", pe.Hint)

	pe = NewParseError([]byte(`{"truncated`), cause)
	assert.Empty(t, pe.Hint)
}

func TestKVStoreDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/servicesNS/nobody/appA/storage/collections/data/coll1", r.URL.Path)
		assert.JSONEq(t, `{"$or":[{"ip":"10.0.0.1"}]}`, r.URL.Query().Get("query"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"_key":"a1","ip":"10.0.0.1"}]`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	docs, err := c.KVStoreDocuments(context.Background(), "appA", "coll1", KVStoreQuery{
		Query: map[string]any{"$or": []map[string]any{{"ip": "10.0.0.1"}}},
		Limit: 1,
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "10.0.0.1", docs[0]["ip"])
}

func TestKVStoreDocuments_NotJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><title>Login</title></html>`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	_, err := c.KVStoreDocuments(context.Background(), "appA", "coll1", KVStoreQuery{})

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Login", pe.Hint)
}

func TestKVStoreCollections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/server/introspection/kvstore/collectionstats", r.URL.Path)
		w.Write([]byte(`{"entry":[{"content":{"data":["{\"ns\":\"search.threats\"}","{\"ns\":\"appA.coll.v2\"}","{\"count\":1}"]}}]}`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	got, err := c.KVStoreCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.AppCollection{
		{App: "search", Collection: "threats"},
		{App: "appA", Collection: "coll.v2"},
	}, got)
}

func TestWithLimiter_BoundsInFlight(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
	}))
	defer srv.Close()

	limiter := semaphore.NewWeighted(2)
	a := New(WithBaseURL(srv.URL), WithLimiter(limiter))
	b := New(WithBaseURL(srv.URL), WithLimiter(limiter))

	var wg sync.WaitGroup
	for i := range 8 {
		c := a
		if i%2 == 1 {
			c = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Export(context.Background(), ExportRequest{Search: "search x"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), peak.Load())
}

func TestWithLimiter_ContextCanceled(t *testing.T) {
	limiter := semaphore.NewWeighted(1)
	require.NoError(t, limiter.Acquire(context.Background(), 1))
	defer limiter.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(WithBaseURL("http://127.0.0.1:1"), WithLimiter(limiter))
	_, err := c.Export(ctx, ExportRequest{Search: "search x"})

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionAuth_CanceledCallerKeepsSharedLogin(t *testing.T) {
	var logins atomic.Int32
	loginStarted := make(chan struct{})
	releaseLogin := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/services/auth/login":
			if logins.Add(1) == 1 {
				close(loginStarted)
			}
			<-releaseLogin
			json.NewEncoder(w).Encode(map[string]string{"sessionKey": "key-1"})
		case "/services/search/jobs/export":
			assert.Equal(t, "Splunk key-1", r.Header.Get("Authorization"))
		}
	}))
	defer srv.Close()

	sessions := &Sessions{Cache: newMapCache()}
	newClient := func() *Client {
		auth := NewSessionAuth(srv.URL, "admin", "changeme", srv.Client(), sessions)
		return New(WithBaseURL(srv.URL), WithAuthenticator(auth))
	}

	ctx, cancel := context.WithCancel(context.Background())
	canceledErr := make(chan error, 1)
	go func() {
		_, err := newClient().Export(ctx, ExportRequest{Search: "search x"})
		canceledErr <- err
	}()

	<-loginStarted
	otherErr := make(chan error, 1)
	go func() {
		_, err := newClient().Export(context.Background(), ExportRequest{Search: "search x"})
		otherErr <- err
	}()

	cancel()
	assert.ErrorIs(t, <-canceledErr, context.Canceled)

	close(releaseLogin)
	require.NoError(t, <-otherErr)
	assert.Equal(t, int32(1), logins.Load())
}
