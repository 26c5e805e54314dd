package mcpsrv

import (
	"github.com/usestring/splunk-mcp/internal/config"
	"github.com/usestring/splunk-mcp/internal/lookup"
)

// Deps contains the dependencies available to custom tools.
// Custom tools run lookups through the same service as the builtin tools.
type Deps struct {
	Lookup *lookup.Service
	Config *config.Config
}
