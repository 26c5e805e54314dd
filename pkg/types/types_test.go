package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntity_IsDirectSearch(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
		want   bool
	}{
		{"user initiated search", Entity{Value: "index=main", Types: []string{TypeDirectSearch}, IsUserInitiated: true}, true},
		{"type is case-insensitive", Entity{Value: "x", Types: []string{"Custom.SplunkSearch"}, IsUserInitiated: true}, true},
		{"not user initiated", Entity{Value: "x", Types: []string{TypeDirectSearch}}, false},
		{"observable", Entity{Value: "8.8.8.8", Types: []string{"IPv4"}, IsUserInitiated: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entity.IsDirectSearch())
		})
	}
}

func TestEntityLookupResult_IsMiss(t *testing.T) {
	assert.True(t, (&EntityLookupResult{}).IsMiss())
	assert.False(t, (&EntityLookupResult{Rows: []Row{}}).IsMiss())
}

func TestRawOptions_Merge(t *testing.T) {
	base := RawOptions{URL: "https://a:8089", APIToken: "t", MaxResults: 5, SearchString: "s"}

	got := base.Merge(RawOptions{URL: "https://b:8089", MaxSummaryTags: 3})

	assert.Equal(t, "https://b:8089", got.URL)
	assert.Equal(t, "t", got.APIToken)
	assert.Equal(t, 5, got.MaxResults)
	assert.Equal(t, 3, got.MaxSummaryTags)
	assert.Equal(t, "s", got.SearchString)
	assert.Equal(t, "https://a:8089", base.URL)
}

func TestRawOptions_MergeCredentials(t *testing.T) {
	base := RawOptions{URL: "https://a:8089", APIToken: "env-token"}

	tests := []struct {
		name     string
		override RawOptions
		want     RawOptions
	}{
		{
			name:     "no credentials keeps defaults",
			override: RawOptions{SearchString: "s"},
			want:     RawOptions{URL: "https://a:8089", APIToken: "env-token", SearchString: "s"},
		},
		{
			name:     "session replaces token",
			override: RawOptions{AuthMode: "session", Username: "admin", Password: "pw"},
			want:     RawOptions{URL: "https://a:8089", AuthMode: "session", Username: "admin", Password: "pw"},
		},
		{
			name:     "username and password alone",
			override: RawOptions{Username: "admin", Password: "pw"},
			want:     RawOptions{URL: "https://a:8089", Username: "admin", Password: "pw"},
		},
		{
			name:     "new token",
			override: RawOptions{APIToken: "call-token"},
			want:     RawOptions{URL: "https://a:8089", APIToken: "call-token"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Merge(tt.override))
		})
	}
}

func TestAppCollection_String(t *testing.T) {
	assert.Equal(t, "search:threats", AppCollection{App: "search", Collection: "threats"}.String())
}

func TestToAny(t *testing.T) {
	v, err := ToAny(EntityLookupResult{Entity: Entity{Value: "8.8.8.8"}, Rows: []Row{}})
	require.NoError(t, err)

	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{}, m["rows"])
	assert.NotContains(t, m, "tags")
}
