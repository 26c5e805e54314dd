// Package mcpsrv provides an extensible MCP server for Splunk entity lookups.
//
// The server exposes three builtin tools: splunk_lookup (batched observable
// lookups), splunk_search (one user-typed SPL query) and
// splunk_validate_options (offline and live option checks), plus the
// splunk://options/schema and splunk://options/defaults resources.
//
// # Basic Usage
//
// Connection settings come from SPLUNK_* environment variables and the
// optional SPLUNK_OPTIONS_FILE:
//
//	server, err := mcpsrv.NewServer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Add custom tools using MCP SDK types directly:
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithTool(&mcp.Tool{Name: "my_tool", Description: "My tool"}, myHandler),
//	)
//
// Tools that need to run lookups use WithDepsTool and the Lookup service in
// Deps.
//
// # Configuration
//
// Options override the environment:
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithDefaultOptions(types.RawOptions{
//	        SearchString: `index=main "{{ENTITY}}" | head 10`,
//	    }),
//	)
package mcpsrv
