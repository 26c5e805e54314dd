// Package tools contains MCP tool implementations for Splunk lookups.
package tools

import (
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/splunk-mcp/internal/rowcompact"
	"github.com/usestring/splunk-mcp/pkg/types"
)

// MIME type constant.
const MimeJSON = "application/json"

// MakeJSONToolResult creates a CallToolResult with JSON text content.
func MakeJSONToolResult(v any) (*sdkmcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: string(b)},
		},
	}, nil
}

// EntityResult is the tool view of one entity's lookup result.
type EntityResult struct {
	Entity             types.Entity `json:"entity"`
	Miss               bool         `json:"miss"`
	SearchType         string       `json:"search_type,omitempty"`
	SearchQuery        string       `json:"search_query,omitempty"`
	SearchAppQuery     string       `json:"search_app_query,omitempty"`
	OpenInSplunkURL    string       `json:"open_in_splunk_url,omitempty"`
	SearchSyntaxErrors []string     `json:"search_syntax_errors,omitzero"`
	Rows               []types.Row  `json:"rows,omitzero"`
	Tags               []types.Tag  `json:"tags,omitzero"`
}

// NewEntityResult converts a lookup result for output. Rows are compacted
// unless fullRows is set.
func NewEntityResult(r *types.EntityLookupResult, fullRows bool) EntityResult {
	rows := r.Rows
	if !fullRows {
		rows = rowcompact.Rows(rows, nil)
	}
	return EntityResult{
		Entity:             r.Entity,
		Miss:               r.IsMiss(),
		SearchType:         string(r.SearchType),
		SearchQuery:        r.SearchQuery,
		SearchAppQuery:     r.SearchAppQuery,
		OpenInSplunkURL:    r.OpenInSplunkURL,
		SearchSyntaxErrors: r.SearchSyntaxErrors,
		Rows:               rows,
		Tags:               r.Tags,
	}
}

// rawOptions dereferences optional tool options.
func rawOptions(o *types.RawOptions) types.RawOptions {
	if o == nil {
		return types.RawOptions{}
	}
	return *o
}
