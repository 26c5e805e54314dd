package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "splunk_lookup",
		Description: "Look up observables (IPs, hashes, domains, emails, CVEs) in Splunk. Entities are batched into composite searches and each result lists the rows that mention that entity. miss=true means Splunk had no data for it. Options override the server defaults; searchType selects standard, metaSearch, indexDiscovery or kvStore.",
	}, ToolLookup(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "splunk_search",
		Description: "Run one SPL query typed by the user. A leading 'search' is added unless the query starts with a generating command such as tstats or inputlookup, and the rows are capped at maxResults. A query Splunk rejects comes back with search_syntax_errors instead of failing.",
	}, ToolSearch(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "splunk_validate_options",
		Description: "Check lookup options before using them: schema, required fields, credentials and search string are tested, including one live lookup against Splunk. Each error names the option to fix. For kvStore, missing collections or fields are answered with the ones available.",
	}, ToolValidateOptions(d))
}
