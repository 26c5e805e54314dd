package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/splunk-mcp/internal/logging"
	"github.com/usestring/splunk-mcp/internal/lookup"
	"github.com/usestring/splunk-mcp/internal/mcp/tools"
	"github.com/usestring/splunk-mcp/pkg/types"
)

func connect(t *testing.T, s *Server) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	st, ct := sdkmcp.NewInMemoryTransports()
	_, err := s.MCPServer().Connect(ctx, st, nil)
	require.NoError(t, err)

	cs, err := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "0"}, nil).Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	splunk := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(splunk.Close)

	svc := lookup.New(lookup.Config{
		HTTPClient: splunk.Client(),
		Defaults: types.RawOptions{
			URL:          splunk.URL,
			APIToken:     "secret-token",
			SearchString: `index=main "{{ENTITY}}"`,
		},
	})
	s, err := NewServer(&tools.Deps{Lookup: svc}, WithBuiltinTools())
	require.NoError(t, err)
	return s
}

func TestNewServer_RequiresDeps(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)
	_, err = NewServer(&tools.Deps{})
	assert.Error(t, err)
}

func TestServer_ListTools(t *testing.T) {
	cs := connect(t, newTestServer(t))

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"splunk_lookup", "splunk_search", "splunk_validate_options"}, names)
}

func TestServer_CallLookup(t *testing.T) {
	cs := connect(t, newTestServer(t))

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name: "splunk_lookup",
		Arguments: map[string]any{
			"entities": []map[string]any{{"value": "8.8.8.8", "types": []string{"IPv4"}}},
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	out, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, out["misses"])
}

func TestServer_Resources(t *testing.T) {
	cs := connect(t, newTestServer(t))

	schema, err := cs.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: URIOptionsSchema})
	require.NoError(t, err)
	require.Len(t, schema.Contents, 1)
	assert.Contains(t, schema.Contents[0].Text, `"searchType"`)

	defaults, err := cs.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: URIOptionsDefaults})
	require.NoError(t, err)
	require.Len(t, defaults.Contents, 1)
	assert.Contains(t, defaults.Contents[0].Text, logging.Redacted)
	assert.NotContains(t, defaults.Contents[0].Text, "secret-token")
}
