package mcpsrv

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/splunk-mcp/internal/mcp/tools"
)

// AddTool is [sdkmcp.AddTool] plus a startup check of the output type: a
// slice field that would encode as null, or a json.RawMessage field, makes it
// panic with the field to fix. Custom tools registered through WithTool and
// WithDepsTool go through it.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	tools.AddTool(srv, t, h)
}
