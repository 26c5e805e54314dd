// Package query provides JQ-based extraction of values from Splunk JSON bodies.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/itchyny/gojq"
)

// Query is a compiled JQ expression.
type Query struct {
	expression string
	code       *gojq.Code
}

// Compile parses and compiles a JQ expression.
func Compile(expression string) (*Query, error) {
	parsed, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}

	return &Query{expression: expression, code: code}, nil
}

// MustCompile is like Compile but panics on error. Use it for package-level
// expressions only.
func MustCompile(expression string) *Query {
	q, err := Compile(expression)
	if err != nil {
		panic(err)
	}
	return q
}

// String returns the source expression.
func (q *Query) String() string {
	return q.expression
}

// Run executes the query against a JSON document and returns every non-nil
// value it yields, deduplicated, in output order.
func (q *Query) Run(data []byte) ([]any, error) {
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("invalid JSON data: %w", err)
	}
	return q.RunValue(input)
}

// RunValue executes the query against an already decoded value.
func (q *Query) RunValue(input any) ([]any, error) {
	values := make([]any, 0)
	seen := make(map[string]bool)

	iter := q.code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}

		if err, isErr := v.(error); isErr {
			return values, errors.New(formatJQError(q.expression, err))
		}

		if v == nil {
			continue
		}

		key := valueKey(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, v)
	}

	return values, nil
}

// Strings runs the query and renders each value as a string. Empty strings
// are dropped.
func (q *Query) Strings(data []byte) ([]string, error) {
	values, err := q.Run(data)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := Stringify(v); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Stringify renders a decoded JSON value for display. Multivalue fields are
// joined with ", ".
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := Stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

// formatJQError creates a readable message for JQ execution errors.
//
// Runtime JQ errors are plain errors without typed wrappers in gojq, so string
// matching is used for the hints. Only display text depends on it.
func formatJQError(label string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("%s: query halted", label)
		}
		return fmt.Sprintf("%s: query halted with: %v", label, haltErr.Value())
	}

	errStr := err.Error()

	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the path may not exist in this response)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	}

	return fmt.Sprintf("%s: %s%s", label, errStr, hint)
}

// valueKey creates a string key for deduplication.
func valueKey(v any) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case float64:
		return fmt.Sprintf("n:%v", val)
	case bool:
		return fmt.Sprintf("b:%v", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("?:%v", val)
		}
		return "j:" + string(b)
	}
}
