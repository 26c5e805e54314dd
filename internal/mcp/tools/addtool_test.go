package tools

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/usestring/splunk-mcp/pkg/types"
)

func TestCheckOutputSchema(t *testing.T) {
	type nilResults struct {
		Results []EntityResult `json:"results"`
	}
	type omitzeroResults struct {
		Results []EntityResult `json:"results,omitzero"`
	}
	type omitemptyTags struct {
		Tags []types.Tag `json:"tags,omitempty"`
	}
	type counts struct {
		Hits   int `json:"hits"`
		Misses int `json:"misses"`
	}
	type pointerSlice struct {
		Rows *[]types.Row `json:"rows"`
	}
	type anySlice struct {
		Rows []any `json:"rows,omitzero"`
	}
	type rawField struct {
		Body json.RawMessage `json:"body,omitempty"`
	}
	type rawSlice struct {
		Bodies []json.RawMessage `json:"bodies,omitzero"`
	}
	type rawNested struct {
		Inner struct {
			Schema json.RawMessage `json:"schema,omitempty"`
		} `json:"inner"`
	}

	tests := []struct {
		name   string
		check  func()
		panics bool
	}{
		{"nil slice without omitzero", func() { CheckOutputSchema[nilResults]("t") }, true},
		{"omitzero slice", func() { CheckOutputSchema[omitzeroResults]("t") }, false},
		{"omitempty slice", func() { CheckOutputSchema[omitemptyTags]("t") }, false},
		{"scalars only", func() { CheckOutputSchema[counts]("t") }, false},
		{"untyped any", func() { CheckOutputSchema[any]("t") }, false},
		{"pointer to slice", func() { CheckOutputSchema[pointerSlice]("t") }, false},
		{"slice of any", func() { CheckOutputSchema[anySlice]("t") }, false},
		{"raw message field", func() { CheckOutputSchema[rawField]("t") }, true},
		{"raw message slice", func() { CheckOutputSchema[rawSlice]("t") }, true},
		{"nested raw message", func() { CheckOutputSchema[rawNested]("t") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.panics {
				assert.Panics(t, tt.check)
			} else {
				assert.NotPanics(t, tt.check)
			}
		})
	}
}

func TestRawJSONPaths(t *testing.T) {
	type inner struct {
		Raw json.RawMessage
	}
	type outer struct {
		A inner
		B []json.RawMessage
		C map[string]json.RawMessage
	}

	assert.ElementsMatch(t, []string{"A.Raw", "B.[]", "C.[value]"}, rawJSONPaths(reflect.TypeFor[outer]()))
	assert.Empty(t, rawJSONPaths(reflect.TypeFor[types.EntityLookupResult]()))
}
