package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/usestring/splunk-mcp/internal/query"
	"github.com/usestring/splunk-mcp/pkg/types"
)

const pathCollectionStats = "/services/server/introspection/kvstore/collectionstats"

// KVStoreQuery filters a KV store collection.
type KVStoreQuery struct {
	// Query is marshaled to JSON, e.g. {"$or":[{"ip":"10.0.0.1"}]}.
	Query any
	Limit int
}

// KVStoreDocuments fetches the documents of app/collection matching q.
func (c *Client) KVStoreDocuments(ctx context.Context, app, collection string, q KVStoreQuery) ([]map[string]any, error) {
	path := "/servicesNS/nobody/" + url.PathEscape(app) + "/storage/collections/data/" + url.PathEscape(collection)

	params := url.Values{}
	params.Set("output_mode", "json")
	if q.Query != nil {
		b, err := json.Marshal(q.Query)
		if err != nil {
			return nil, fmt.Errorf("encoding KV store query: %w", err)
		}
		params.Set("query", string(b))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	resp, err := c.do(ctx, http.MethodGet, path, params, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("querying KV store %s:%s: %w", app, collection, err)
	}

	var docs []map[string]any
	if err := json.Unmarshal(resp.Body, &docs); err != nil {
		return nil, NewParseError(resp.Body, err)
	}
	return docs, nil
}

// collectionNamespaces pulls "app.collection" namespaces out of
// collectionstats. Splunk encodes each data item as a JSON string.
var collectionNamespaces = query.MustCompile(
	`.entry[]?.content.data[]? | (if type == "string" then fromjson? else . end) | .ns? // empty`,
)

// KVStoreCollections lists every KV store collection visible to the caller.
func (c *Client) KVStoreCollections(ctx context.Context) ([]types.AppCollection, error) {
	params := url.Values{}
	params.Set("output_mode", "json")

	resp, err := c.do(ctx, http.MethodGet, pathCollectionStats, params, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("listing KV store collections: %w", err)
	}

	namespaces, err := collectionNamespaces.Strings(resp.Body)
	if err != nil {
		return nil, NewParseError(resp.Body, err)
	}

	out := make([]types.AppCollection, 0, len(namespaces))
	for _, ns := range namespaces {
		app, collection, ok := strings.Cut(ns, ".")
		if !ok {
			continue
		}
		out = append(out, types.AppCollection{App: app, Collection: collection})
	}
	return out, nil
}
