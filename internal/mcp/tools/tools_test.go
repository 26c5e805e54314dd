package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/splunk-mcp/internal/lookup"
	"github.com/usestring/splunk-mcp/pkg/client"
	"github.com/usestring/splunk-mcp/pkg/types"
)

func newDeps(t *testing.T, export http.HandlerFunc) *Deps {
	t.Helper()
	srv := httptest.NewServer(export)
	t.Cleanup(srv.Close)

	return &Deps{
		Lookup: lookup.New(lookup.Config{
			HTTPClient: srv.Client(),
			Defaults: types.RawOptions{
				URL:          srv.URL,
				APIToken:     "token",
				SearchString: `index=main "{{ENTITY}}"`,
			},
		}),
	}
}

func TestToolLookup(t *testing.T) {
	d := newDeps(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"result":{"src_ip":"8.8.8.8"}}`)
	})

	_, out, err := ToolLookup(d)(context.Background(), nil, LookupInput{
		Entities: []types.Entity{{Value: "8.8.8.8"}, {Value: "1.1.1.1"}},
	})
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.False(t, out.Results[0].Miss)
	assert.True(t, out.Results[1].Miss)
	assert.Equal(t, 1, out.Hits)
	assert.Equal(t, 1, out.Misses)
}

func TestToolLookup_InvalidInput(t *testing.T) {
	d := newDeps(t, func(w http.ResponseWriter, _ *http.Request) {})

	tests := []struct {
		name     string
		entities []types.Entity
	}{
		{"none", nil},
		{"blank value", []types.Entity{{Value: "  "}}},
		{"too many", make([]types.Entity, MaxLookupEntities+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ToolLookup(d)(context.Background(), nil, LookupInput{Entities: tt.entities})

			var coded *CodedError
			require.ErrorAs(t, err, &coded)
			assert.Equal(t, ErrCodeInvalidInput, coded.Code)
		})
	}
}

func TestToolSearch(t *testing.T) {
	var search string
	d := newDeps(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		search = r.PostForm.Get("search")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"messages":[{"type":"FATAL","text":"Unknown search command 'errorx'"}]}`)
	})

	_, out, err := ToolSearch(d)(context.Background(), nil, SearchInput{Query: "index=main | errorx"})
	require.NoError(t, err)
	assert.Equal(t, "search index=main | errorx | head 10", search)
	assert.Equal(t, []string{"Unknown search command 'errorx'"}, out.Result.SearchSyntaxErrors)
	assert.False(t, out.Result.Miss)
}

func TestToolValidateOptions(t *testing.T) {
	d := newDeps(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, out, err := ToolValidateOptions(d)(context.Background(), nil, ValidateOptionsInput{})
	require.NoError(t, err)
	assert.False(t, out.Valid)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, types.OptionAPIToken, out.Errors[0].Key)
}

func TestWrapSplunkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"options", &lookup.OptionsError{Errors: []types.ValidationError{{Key: "url", Message: "bad"}}}, ErrCodeInvalidInput},
		{"empty query", lookup.ErrEmptyQuery, ErrCodeInvalidInput},
		{"deadline", fmt.Errorf("group 0: %w", context.DeadlineExceeded), ErrCodeTimeout},
		{"auth", &client.AuthError{StatusCode: 401}, ErrCodeAuth},
		{"forbidden", &client.TransportError{StatusCode: 403}, ErrCodeAuth},
		{"parse", &client.ParseError{Err: errors.New("invalid character")}, ErrCodeParse},
		{"status", &client.TransportError{StatusCode: 502}, ErrCodeTransport},
		{"other", errors.New("connection refused"), ErrCodeTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var coded *CodedError
			require.ErrorAs(t, WrapSplunkError(tt.err), &coded)
			assert.Equal(t, tt.want, coded.Code)
		})
	}
	assert.NoError(t, WrapSplunkError(nil))
}

func TestOutputSchemas(t *testing.T) {
	assert.NotPanics(t, func() {
		CheckOutputSchema[LookupOutput]("splunk_lookup")
		CheckOutputSchema[SearchOutput]("splunk_search")
		CheckOutputSchema[ValidateOptionsOutput]("splunk_validate_options")
	})
}
