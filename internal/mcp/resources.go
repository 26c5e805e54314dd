package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/splunk-mcp/internal/logging"
	"github.com/usestring/splunk-mcp/internal/mcp/tools"
	"github.com/usestring/splunk-mcp/internal/validate"
	"github.com/usestring/splunk-mcp/pkg/types"
)

// Resource URIs.
const (
	URIOptionsSchema   = "splunk://options/schema"
	URIOptionsDefaults = "splunk://options/defaults"
)

// registerResources registers the static option resources.
func (s *Server) registerResources() error {
	schema, err := validate.OptionsSchemaJSON()
	if err != nil {
		return fmt.Errorf("building options schema: %w", err)
	}

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         URIOptionsSchema,
		Name:        "Lookup Options Schema",
		Description: "JSON Schema of the options accepted by splunk_lookup, splunk_search and splunk_validate_options.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.6,
		},
	}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
		return &sdkmcp.ReadResourceResult{
			Contents: []*sdkmcp.ResourceContents{
				{URI: req.Params.URI, MIMEType: tools.MimeJSON, Text: string(schema)},
			},
		}, nil
	})

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         URIOptionsDefaults,
		Name:        "Default Lookup Options",
		Description: "Options the server applies when a call leaves them unset. Credentials are redacted.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.4,
		},
	}, s.handleResourceDefaults)

	return nil
}

func (s *Server) handleResourceDefaults(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	defaults := s.deps.Lookup.Options(types.RawOptions{})
	for _, secret := range []*string{&defaults.APIToken, &defaults.Password} {
		if *secret != "" {
			*secret = logging.Redacted
		}
	}
	return toResourceResult(req.Params.URI, defaults)
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
