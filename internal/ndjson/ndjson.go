// Package ndjson decodes the newline-delimited JSON bodies streamed by the
// Splunk export endpoint.
package ndjson

import (
	"bytes"
	"encoding/json"

	"github.com/usestring/splunk-mcp/pkg/client"
	"github.com/usestring/splunk-mcp/pkg/types"
)

type line struct {
	Result map[string]any `json:"result"`
}

// Parse decodes body into the rows that carry a non-empty result object,
// in order, without structural duplicates. Preview and lastrow markers are
// dropped, so a body with no hits yields an empty, non-nil slice.
// A body that is not newline-delimited JSON objects yields a
// *client.ParseError.
func Parse(body []byte) ([]types.Row, error) {
	rows := make([]types.Row, 0)

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return rows, nil
	}

	var parts [][]byte
	for _, l := range bytes.Split(trimmed, []byte("\n")) {
		if l = bytes.TrimSpace(l); len(l) > 0 {
			parts = append(parts, l)
		}
	}

	doc := make([]byte, 0, len(trimmed)+2)
	doc = append(doc, '[')
	doc = append(doc, bytes.Join(parts, []byte(","))...)
	doc = append(doc, ']')

	var lines []line
	if err := json.Unmarshal(doc, &lines); err != nil {
		return nil, client.NewParseError(body, err)
	}

	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if len(l.Result) == 0 {
			continue
		}
		key, err := json.Marshal(l.Result)
		if err != nil {
			return nil, client.NewParseError(body, err)
		}
		if seen[string(key)] {
			continue
		}
		seen[string(key)] = true
		rows = append(rows, types.Row{Result: l.Result})
	}
	return rows, nil
}
