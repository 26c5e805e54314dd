package reconcile

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/splunk-mcp/internal/query"
	"github.com/usestring/splunk-mcp/pkg/types"
)

var printer = message.NewPrinter(language.English)

// SummaryTags collects the non-empty values of fields across rows, row by
// row, deduplicated by (field, value). When limit > 0 and more tags exist, the
// list is cut to limit and a "+N more" tag without a field is appended.
func SummaryTags(rows []types.Row, fields []string, limit int) []types.Tag {
	if len(rows) == 0 || len(fields) == 0 {
		return nil
	}

	type key struct{ field, value string }
	seen := make(map[key]bool)
	var tags []types.Tag

	for _, r := range rows {
		for _, f := range fields {
			v := query.Stringify(r.Result[f])
			if v == "" {
				continue
			}
			k := key{f, v}
			if seen[k] {
				continue
			}
			seen[k] = true
			tags = append(tags, types.Tag{Field: f, Value: v})
		}
	}

	if limit > 0 && len(tags) > limit {
		more := len(tags) - limit
		tags = append(tags[:limit:limit], types.Tag{Value: printer.Sprintf("+%d more", more)})
	}
	return tags
}
