package tools

import (
	"github.com/usestring/splunk-mcp/internal/config"
	"github.com/usestring/splunk-mcp/internal/lookup"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Lookup *lookup.Service
	Config *config.Config
}
