package types

// Row is one hit returned by Splunk: the "result" object of an export line,
// or a KV store document wrapped the same way.
type Row struct {
	Result map[string]any `json:"result"`
}

// Tag is one summary tag. A tag without Field is the "+N more" sentinel.
type Tag struct {
	Field string `json:"field,omitempty"`
	Value string `json:"value"`
}

// EntityLookupResult is the lookup outcome for one input entity.
//
// Rows == nil means Splunk had no data for the entity (a miss). An empty,
// non-nil Rows means the search ran and legitimately returned zero hits; only
// direct searches and KV store searches produce that shape.
type EntityLookupResult struct {
	Entity             Entity     `json:"entity"`
	SearchType         SearchMode `json:"search_type,omitempty"`
	SearchQuery        string     `json:"search_query,omitempty"`
	SearchAppQuery     string     `json:"search_app_query,omitempty"`
	OpenInSplunkURL    string     `json:"open_in_splunk_url,omitempty"`
	SearchSyntaxErrors []string   `json:"search_syntax_errors,omitzero"`
	Rows               []Row      `json:"rows,omitzero"`
	Tags               []Tag      `json:"tags,omitzero"`
}

// IsMiss reports whether the result carries no data for its entity.
func (r *EntityLookupResult) IsMiss() bool {
	return r.Rows == nil
}
