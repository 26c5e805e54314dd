package strategy

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/splunk-mcp/internal/reconcile"
	"github.com/usestring/splunk-mcp/pkg/client"
	"github.com/usestring/splunk-mcp/pkg/types"
)

// Fields added to every KV store row.
const (
	FieldFoundInKVStore    = "Found_In_KV_Store"
	FieldKVStoreApp        = "KV_Store_App_Name"
	FieldKVStoreCollection = "KV_Store_Collection_Name"
)

// KvStore looks the group up in every configured KV store collection with a
// single $or filter per collection.
type KvStore struct {
	Client  Searcher
	Options *types.Options

	// MergeWith, when set, also runs that strategy for the group. Entities
	// with KV store rows get them ahead of its rows; the others keep its
	// result unchanged.
	MergeWith Strategy
}

func (k *KvStore) Run(ctx context.Context, group []types.Entity) ([]types.EntityLookupResult, error) {
	var prior []types.EntityLookupResult
	if k.MergeWith != nil {
		var err error
		if prior, err = k.MergeWith.Run(ctx, group); err != nil {
			return nil, err
		}
	}

	rows, err := k.fetch(ctx, group)
	if err != nil {
		return nil, err
	}

	results := newResults(group, types.SearchModeKvStore, k.Options, func(types.Entity) string { return "" })

	a := reconcile.Reconciler{Match: &reconcile.Containment{}, EmptyIsHit: prior == nil}.Reconcile(group, rows)
	logUnattributed(types.SearchModeKvStore, group, len(rows), a.Unattributed)

	for i := range results {
		if prior == nil {
			results[i].Rows = a.Rows[i]
			continue
		}
		if a.Rows[i] == nil {
			results[i] = prior[i]
			continue
		}
		merged := prior[i]
		merged.Rows = slices.Concat(a.Rows[i], prior[i].Rows)
		results[i] = merged
	}
	return results, nil
}

// fetch queries every collection concurrently and returns the tagged
// documents in collection order. The client's limiter bounds the requests.
func (k *KvStore) fetch(ctx context.Context, group []types.Entity) ([]types.Row, error) {
	collections := k.Options.KvStoreCollections
	perCollection := make([][]types.Row, len(collections))
	q := client.KVStoreQuery{Query: Filter(k.Options.KvStoreSearchFields, group)}

	g, ctx := errgroup.WithContext(ctx)

	for i, ac := range collections {
		g.Go(func() error {
			docs, err := k.Client.KVStoreDocuments(ctx, ac.App, ac.Collection, q)
			if err != nil {
				return fmt.Errorf("kvStore search: %w", err)
			}
			rows := make([]types.Row, 0, len(docs))
			for _, d := range docs {
				rows = append(rows, tagDocument(d, ac))
			}
			perCollection[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []types.Row
	for _, r := range perCollection {
		rows = append(rows, r...)
	}
	return rows, nil
}

// Filter builds the KV store query matching any entity in any field.
func Filter(fields []string, group []types.Entity) map[string]any {
	clauses := make([]map[string]any, 0, len(fields)*len(group))
	for _, f := range fields {
		for _, e := range group {
			clauses = append(clauses, map[string]any{f: e.Value})
		}
	}
	return map[string]any{"$or": clauses}
}

func tagDocument(doc map[string]any, ac types.AppCollection) types.Row {
	result := map[string]any{
		FieldFoundInKVStore:    true,
		FieldKVStoreApp:        ac.App,
		FieldKVStoreCollection: ac.Collection,
	}
	maps.Copy(result, doc)
	return types.Row{Result: result}
}
