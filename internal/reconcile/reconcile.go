// Package reconcile attributes the rows of a multi-entity Splunk response
// back to the entities whose subsearches produced them.
package reconcile

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/usestring/splunk-mcp/internal/query"
	"github.com/usestring/splunk-mcp/pkg/types"
)

var nonWordRe = regexp.MustCompile(`[^\w]`)

// Normalize lowercases s and drops everything but letters, digits and
// underscores.
func Normalize(s string) string {
	return strings.ToLower(nonWordRe.ReplaceAllString(s, ""))
}

// Matcher decides whether a row belongs to an entity. Prepare is called once
// per response so per-row work can be shared across entities.
type Matcher interface {
	Prepare(rows []types.Row)
	Match(entity types.Entity, row int) bool
}

// Containment matches rows whose normalized JSON text contains the
// normalized entity value. "1.1" therefore also matches a row holding
// "11.1.1.2"; batching entities into one query trades that precision for
// fewer round trips. An entity that normalizes to "" matches nothing.
type Containment struct {
	texts []string
}

func (c *Containment) Prepare(rows []types.Row) {
	c.texts = make([]string, len(rows))
	for i, r := range rows {
		c.texts[i] = Normalize(rowText(r))
	}
}

func (c *Containment) Match(entity types.Entity, row int) bool {
	needle := Normalize(entity.Value)
	if needle == "" {
		return false
	}
	return strings.Contains(c.texts[row], needle)
}

// FieldEquals matches rows whose Field equals the entity value, ignoring
// case. Value maps the entity to the value written into the row by the
// search; it defaults to Entity.Value.
type FieldEquals struct {
	Field string
	Value func(types.Entity) string

	values []string
}

func (f *FieldEquals) Prepare(rows []types.Row) {
	f.values = make([]string, len(rows))
	for i, r := range rows {
		f.values[i] = query.Stringify(r.Result[f.Field])
	}
}

func (f *FieldEquals) Match(entity types.Entity, row int) bool {
	want := entity.Value
	if f.Value != nil {
		want = f.Value(entity)
	}
	return f.values[row] != "" && strings.EqualFold(f.values[row], want)
}

// Reconciler assigns rows to entities.
type Reconciler struct {
	Match Matcher
	// EmptyIsHit makes an entity without rows yield an empty, non-nil slice
	// instead of nil.
	EmptyIsHit bool
}

// Assignment is the outcome of one Reconcile call.
type Assignment struct {
	// Rows holds one entry per input entity, in input order. A nil entry
	// means no row was attributed to that entity.
	Rows [][]types.Row
	// Unattributed counts rows that matched no entity.
	Unattributed uint64
}

// Reconcile attributes rows to entities. A row may be attributed to several
// entities.
func (r Reconciler) Reconcile(entities []types.Entity, rows []types.Row) Assignment {
	out := Assignment{Rows: make([][]types.Row, len(entities))}

	r.Match.Prepare(rows)

	attributed := roaring.New()
	for i, e := range entities {
		hits := roaring.New()
		for j := range rows {
			if r.Match.Match(e, j) {
				hits.Add(uint32(j))
			}
		}
		attributed.Or(hits)

		if hits.IsEmpty() {
			if r.EmptyIsHit {
				out.Rows[i] = []types.Row{}
			}
			continue
		}

		matched := make([]types.Row, 0, hits.GetCardinality())
		it := hits.Iterator()
		for it.HasNext() {
			matched = append(matched, rows[it.Next()])
		}
		out.Rows[i] = matched
	}

	if len(rows) > 0 {
		all := roaring.New()
		all.AddRange(0, uint64(len(rows)))
		all.AndNot(attributed)
		out.Unattributed = all.GetCardinality()
	}
	return out
}

// rowText renders a row the way it is compared against entity values.
func rowText(r types.Row) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return ""
	}
	return buf.String()
}
