// Package rowcompact shortens Splunk result rows for display: long field
// values such as _raw are truncated and multivalue fields are trimmed.
package rowcompact

import (
	"fmt"

	"github.com/usestring/splunk-mcp/pkg/types"
)

// Options controls row compaction.
type Options struct {
	MaxValues    int // Trim multivalue fields to N values (0 = no limit)
	MaxStringLen int // Truncate values longer than N bytes (0 = no limit)
	MaxRows      int // Keep the first N rows of a result (0 = no limit)
}

// Default values for compaction options.
const (
	DefaultMaxValues    = 10
	DefaultMaxStringLen = 1000
	DefaultMaxRows      = 0
)

// DefaultOptions returns the default compaction settings.
func DefaultOptions() *Options {
	return &Options{
		MaxValues:    DefaultMaxValues,
		MaxStringLen: DefaultMaxStringLen,
		MaxRows:      DefaultMaxRows,
	}
}

// Rows returns compacted copies of rows; the input is not modified.
// A nil input stays nil so lookup misses keep their shape.
// If opts is nil, DefaultOptions() is used.
func Rows(rows []types.Row, opts *Options) []types.Row {
	if rows == nil {
		return nil
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	n := len(rows)
	if opts.MaxRows > 0 && n > opts.MaxRows {
		n = opts.MaxRows
	}
	out := make([]types.Row, n)
	for i := range n {
		out[i] = types.Row{Result: compactResult(rows[i].Result, opts)}
	}
	return out
}

func compactResult(result map[string]any, opts *Options) map[string]any {
	if result == nil {
		return nil
	}
	out := make(map[string]any, len(result))
	for k, v := range result {
		out[k] = compactValue(v, opts)
	}
	return out
}

func compactValue(v any, opts *Options) any {
	switch val := v.(type) {
	case string:
		return compactString(val, opts)
	case []any:
		return compactValues(val, opts)
	case map[string]any:
		return compactResult(val, opts)
	default:
		return v
	}
}

func compactString(s string, opts *Options) string {
	if opts.MaxStringLen <= 0 || len(s) <= opts.MaxStringLen {
		return s
	}
	remaining := len(s) - opts.MaxStringLen
	return s[:opts.MaxStringLen] + fmt.Sprintf("... (%d more chars)", remaining)
}

// compactValues trims a multivalue field and notes how many values were cut.
func compactValues(vals []any, opts *Options) []any {
	keep := len(vals)
	if opts.MaxValues > 0 && keep > opts.MaxValues {
		keep = opts.MaxValues
	}

	out := make([]any, keep, keep+1)
	for i := range keep {
		out[i] = compactValue(vals[i], opts)
	}
	if keep < len(vals) {
		out = append(out, fmt.Sprintf("... (%d more values)", len(vals)-keep))
	}
	return out
}
