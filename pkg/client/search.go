package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const pathExport = "/services/search/jobs/export"

// ExportRequest is a one-shot search on the export endpoint.
type ExportRequest struct {
	Search       string
	EarliestTime string
	// AdhocSearchLevel is "fast" for metasearch queries.
	AdhocSearchLevel string
}

// Export runs a search and returns the raw newline-delimited JSON body.
// expected lists the statuses that are not errors; it defaults to 200.
// On an unexpected status the response is returned together with a
// *TransportError.
func (c *Client) Export(ctx context.Context, r ExportRequest, expected ...int) (*Response, error) {
	if len(expected) == 0 {
		expected = []int{http.StatusOK}
	}

	params := url.Values{}
	params.Set("search", r.Search)
	params.Set("output_mode", "json")
	if r.EarliestTime != "" {
		params.Set("earliest_time", r.EarliestTime)
	}
	if r.AdhocSearchLevel != "" {
		params.Set("adhoc_search_level", r.AdhocSearchLevel)
	}

	resp, err := c.do(ctx, http.MethodPost, pathExport, params, expected...)
	if err != nil {
		return resp, fmt.Errorf("running export search: %w", err)
	}
	return resp, nil
}
