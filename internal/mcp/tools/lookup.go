package tools

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/splunk-mcp/pkg/types"
)

// MaxLookupEntities caps the entities accepted by one splunk_lookup call.
const MaxLookupEntities = 500

// LookupInput is the input for splunk_lookup.
type LookupInput struct {
	Entities []types.Entity    `json:"entities" jsonschema:"observables to look up, each with a value and optional types such as IPv4 or hash"`
	Options  *types.RawOptions `json:"options,omitempty" jsonschema:"lookup options applied over the server defaults"`
	FullRows bool              `json:"full_rows,omitempty" jsonschema:"return rows untrimmed; by default long values and multivalue fields are shortened"`
}

// LookupOutput is the output for splunk_lookup.
type LookupOutput struct {
	Results []EntityResult `json:"results,omitzero"`
	Hits    int            `json:"hits"`
	Misses  int            `json:"misses"`
}

// ToolLookup looks entities up in Splunk.
func ToolLookup(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input LookupInput) (*sdkmcp.CallToolResult, LookupOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input LookupInput) (*sdkmcp.CallToolResult, LookupOutput, error) {
		if len(input.Entities) == 0 {
			return nil, LookupOutput{}, ErrInvalidInput("entities is required")
		}
		if len(input.Entities) > MaxLookupEntities {
			return nil, LookupOutput{}, ErrInvalidInput("too many entities in one lookup")
		}
		for _, e := range input.Entities {
			if strings.TrimSpace(e.Value) == "" {
				return nil, LookupOutput{}, ErrInvalidInput("entity value must not be empty")
			}
		}

		results, err := d.Lookup.Lookup(ctx, input.Entities, rawOptions(input.Options))
		if err != nil {
			return nil, LookupOutput{}, WrapSplunkError(err)
		}

		output := LookupOutput{Results: make([]EntityResult, len(results))}
		for i := range results {
			output.Results[i] = NewEntityResult(&results[i], input.FullRows)
			if output.Results[i].Miss {
				output.Misses++
			} else {
				output.Hits++
			}
		}
		return nil, output, nil
	}
}
