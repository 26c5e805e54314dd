package mcpsrv

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/splunk-mcp/internal/cache"
	"github.com/usestring/splunk-mcp/internal/config"
	"github.com/usestring/splunk-mcp/pkg/types"
)

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	st, ct := mcp.NewInMemoryTransports()
	_, err := s.MCPServer().Connect(ctx, st, nil)
	require.NoError(t, err)

	cs, err := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0"}, nil).Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestNewServer_Extensions(t *testing.T) {
	var logins atomic.Int32
	splunk := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/services/auth/login":
			logins.Add(1)
			fmt.Fprint(w, `{"sessionKey":"key-1"}`)
		default:
			assert.Equal(t, "Splunk key-1", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer splunk.Close()

	tokens := cache.NewTokenCache(4, time.Minute)

	s, err := NewServer(
		WithConfig(&config.Config{LogLevel: "error"}),
		WithHTTPClient(splunk.Client()),
		WithTokenCache(tokens),
		WithDefaultOptions(types.RawOptions{
			URL:          splunk.URL,
			AuthMode:     string(types.AuthModeSession),
			Username:     "admin",
			Password:     "changeme",
			SearchString: `index=main "{{ENTITY}}"`,
		}),
		WithPrompt(
			&mcp.Prompt{Name: "triage_ip", Description: "Look an IP up in Splunk"},
			func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
				return &mcp.GetPromptResult{
					Messages: []*mcp.PromptMessage{{
						Role:    "user",
						Content: &mcp.TextContent{Text: "Run splunk_lookup for " + req.Params.Arguments["ip"]},
					}},
				}, nil
			},
		),
		WithResourceTemplate(
			&mcp.ResourceTemplate{Name: "sightings", URITemplate: "splunk://sightings/{value}", MIMEType: "application/json"},
			func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
				return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{URI: req.Params.URI, Text: "[]"}}}, nil
			},
		),
	)
	require.NoError(t, err)
	defer s.Close()

	cs := connect(t, s)
	ctx := context.Background()

	prompts, err := cs.ListPrompts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, prompts.Prompts, 1)
	assert.Equal(t, "triage_ip", prompts.Prompts[0].Name)

	got, err := cs.GetPrompt(ctx, &mcp.GetPromptParams{Name: "triage_ip", Arguments: map[string]string{"ip": "8.8.8.8"}})
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "Run splunk_lookup for 8.8.8.8", got.Messages[0].Content.(*mcp.TextContent).Text)

	templates, err := cs.ListResourceTemplates(ctx, nil)
	require.NoError(t, err)
	require.Len(t, templates.ResourceTemplates, 1)
	assert.Equal(t, "splunk://sightings/{value}", templates.ResourceTemplates[0].URITemplate)

	resources, err := cs.ListResources(ctx, nil)
	require.NoError(t, err)
	var uris []string
	for _, r := range resources.Resources {
		uris = append(uris, r.URI)
	}
	assert.ElementsMatch(t, []string{"splunk://options/schema", "splunk://options/defaults"}, uris)

	// The default options carry the session credentials and the shared cache
	// keeps the key between lookups.
	entities := []types.Entity{{Value: "8.8.8.8", Types: []string{"IPv4"}}}
	for range 2 {
		results, err := s.Deps().Lookup.Lookup(ctx, entities, types.RawOptions{})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].IsMiss())
	}
	assert.Equal(t, int32(1), logins.Load())
	assert.Equal(t, 1, tokens.Len())
}
