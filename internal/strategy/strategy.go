// Package strategy implements the query strategies a lookup can run: one
// composite export search per entity group, an index discovery search, a KV
// store collection search, and a user-typed direct search.
package strategy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/usestring/splunk-mcp/internal/spl"
	"github.com/usestring/splunk-mcp/pkg/client"
	"github.com/usestring/splunk-mcp/pkg/types"
)

// Searcher is the part of the Splunk client strategies depend on.
type Searcher interface {
	Export(ctx context.Context, r client.ExportRequest, expected ...int) (*client.Response, error)
	KVStoreDocuments(ctx context.Context, app, collection string, q client.KVStoreQuery) ([]map[string]any, error)
}

// Strategy runs one entity group. Implementations return exactly one result
// per entity, in input order, or an error for the whole group.
type Strategy interface {
	Run(ctx context.Context, group []types.Entity) ([]types.EntityLookupResult, error)
}

// New returns the strategy for opts.SearchType, routing direct searches to
// Direct.
func New(c Searcher, opts *types.Options) (Strategy, error) {
	var def Strategy
	switch opts.SearchType {
	case types.SearchModeStandard, "":
		def = &Standard{Client: c, Options: opts}
	case types.SearchModeMetaSearch, types.SearchModeIndexDiscovery:
		def = &Meta{Client: c, Options: opts}
	case types.SearchModeKvStore:
		def = &KvStore{Client: c, Options: opts}
	default:
		return nil, fmt.Errorf("unknown search type %q", opts.SearchType)
	}
	return Router{Direct: &Direct{Client: c, Options: opts}, Default: def}, nil
}

// Router sends a group made of a single direct search to Direct and every
// other group to Default.
type Router struct {
	Direct  Strategy
	Default Strategy
}

func (r Router) Run(ctx context.Context, group []types.Entity) ([]types.EntityLookupResult, error) {
	if len(group) == 1 && group[0].IsDirectSearch() {
		return r.Direct.Run(ctx, group)
	}
	return r.Default.Run(ctx, group)
}

// newResults prepares one result per entity with the per-entity query text
// produced by queryFor.
func newResults(group []types.Entity, mode types.SearchMode, opts *types.Options, queryFor func(types.Entity) string) []types.EntityLookupResult {
	results := make([]types.EntityLookupResult, len(group))
	for i, e := range group {
		q := queryFor(e)
		results[i] = types.EntityLookupResult{
			Entity:         e,
			SearchType:     mode,
			SearchQuery:    q,
			SearchAppQuery: appQuery(opts, e, q),
		}
	}
	return results
}

func appQuery(opts *types.Options, e types.Entity, fallback string) string {
	if opts.SearchAppQueryString == "" {
		return fallback
	}
	return spl.Query(opts.SearchAppQueryString, e.Value)
}

func logUnattributed(mode types.SearchMode, group []types.Entity, rows int, unattributed uint64) {
	if unattributed == 0 {
		return
	}
	slog.Debug("rows not attributed to any entity",
		slog.String("search_type", string(mode)),
		slog.Int("entities", len(group)),
		slog.Int("rows", rows),
		slog.Uint64("unattributed", unattributed),
	)
}
