package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/usestring/splunk-mcp/internal/validate"
	"github.com/usestring/splunk-mcp/pkg/types"
)

// OptionsFileError reports schema violations in the options file.
type OptionsFileError struct {
	Path   string
	Errors []types.ValidationError
}

func (e *OptionsFileError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Key + ": " + ve.Message
	}
	return fmt.Sprintf("invalid options file %s: %s", e.Path, strings.Join(msgs, "; "))
}

// LoadOptionsFile reads default lookup options from a YAML (or JSON) file.
// Unknown keys and wrongly typed values are rejected.
func LoadOptionsFile(path string) (types.RawOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.RawOptions{}, fmt.Errorf("reading options file: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.RawOptions{}, fmt.Errorf("parsing options file %s: %w", path, err)
	}
	if doc == nil {
		return types.RawOptions{}, nil
	}

	// Round-trip through JSON so the schema sees JSON types.
	b, err := json.Marshal(doc)
	if err != nil {
		return types.RawOptions{}, fmt.Errorf("encoding options file %s: %w", path, err)
	}
	var jsonDoc any
	if err := json.Unmarshal(b, &jsonDoc); err != nil {
		return types.RawOptions{}, fmt.Errorf("decoding options file %s: %w", path, err)
	}
	if errs := validate.CheckDocument(jsonDoc); len(errs) > 0 {
		return types.RawOptions{}, &OptionsFileError{Path: path, Errors: errs}
	}

	var raw types.RawOptions
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return types.RawOptions{}, fmt.Errorf("parsing options file %s: %w", path, err)
	}
	return raw, nil
}

// DefaultOptions builds the lookup options used when a caller supplies none:
// the options file, overridden by the SPLUNK_* connection variables.
func (c *Config) DefaultOptions() (types.RawOptions, error) {
	var raw types.RawOptions
	if c.OptionsFile != "" {
		var err error
		if raw, err = LoadOptionsFile(c.OptionsFile); err != nil {
			return types.RawOptions{}, err
		}
	}

	return raw.Merge(types.RawOptions{
		URL:      c.SplunkURL,
		AuthMode: c.AuthMode,
		APIToken: c.APIToken,
		Username: c.Username,
		Password: c.Password,
	}), nil
}
