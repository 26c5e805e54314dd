package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/splunk-mcp/pkg/types"
)

// SearchInput is the input for splunk_search.
type SearchInput struct {
	Query    string            `json:"query" jsonschema:"SPL query; a leading search command is added when missing"`
	Options  *types.RawOptions `json:"options,omitempty" jsonschema:"connection options applied over the server defaults; maxResults caps the rows"`
	FullRows bool              `json:"full_rows,omitempty" jsonschema:"return rows untrimmed"`
}

// SearchOutput is the output for splunk_search.
type SearchOutput struct {
	Result EntityResult `json:"result"`
}

// ToolSearch runs a user-typed SPL query.
func ToolSearch(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, SearchOutput, error) {
		result, err := d.Lookup.Search(ctx, input.Query, rawOptions(input.Options))
		if err != nil {
			return nil, SearchOutput{}, WrapSplunkError(err)
		}
		return nil, SearchOutput{Result: NewEntityResult(result, input.FullRows)}, nil
	}
}
