package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/splunk-mcp/pkg/types"
)

// ValidateOptionsInput is the input for splunk_validate_options.
type ValidateOptionsInput struct {
	Options types.RawOptions `json:"options" jsonschema:"lookup options to check; server defaults fill unset fields"`
}

// ValidateOptionsOutput is the output for splunk_validate_options.
type ValidateOptionsOutput struct {
	Valid  bool                    `json:"valid"`
	Errors []types.ValidationError `json:"errors,omitzero"`
}

// ToolValidateOptions checks options offline and against Splunk.
func ToolValidateOptions(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateOptionsInput) (*sdkmcp.CallToolResult, ValidateOptionsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateOptionsInput) (*sdkmcp.CallToolResult, ValidateOptionsOutput, error) {
		errs := d.Lookup.ValidateOptions(ctx, input.Options)
		if errs == nil {
			errs = []types.ValidationError{}
		}
		return nil, ValidateOptionsOutput{Valid: len(errs) == 0, Errors: errs}, nil
	}
}
