// Package spl builds the Splunk Search Processing Language strings sent to the
// export endpoint. It only detects and rewrites leading commands; it does not
// parse SPL.
package spl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/usestring/splunk-mcp/pkg/types"
)

// Placeholder is replaced by the entity value in search templates. It is
// matched case-insensitively.
const Placeholder = "{{ENTITY}}"

var (
	placeholderRe = regexp.MustCompile(`(?i)\{\{ENTITY\}\}`)
	newlineRe     = regexp.MustCompile(`\r\n|\n|\r`)
	searchWordRe  = regexp.MustCompile(`(?i)^search(\s+|$)`)
)

// leadingCommands start a valid search on their own and must not be
// prefixed with "search".
var leadingCommands = []string{
	"|",
	"`",
	"metasearch",
	"tstats",
	"mstats",
	"inputlookup",
	"inputcsv",
	"makeresults",
	"rest",
	"datamodel",
	"dbinspect",
	"eventcount",
	"metadata",
	"multisearch",
	"savedsearch",
	"loadjob",
	"from",
}

// metaTail reduces metasearch events to one row per (index, sourcetype).
const metaTail = ` | dedup index, sourcetype` +
	` | stats values(sourcetype) AS sourcetype by index` +
	` | mvexpand sourcetype` +
	` | eval entity="%s"` +
	` | table index, sourcetype, entity`

// Clean removes CR and LF sequences.
func Clean(value string) string {
	return newlineRe.ReplaceAllString(value, "")
}

// Escape makes value safe to place inside a double-quoted SPL literal.
func Escape(value string) string {
	v := Clean(value)
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}

// Strip removes newlines and double quotes from value.
func Strip(value string) string {
	return strings.ReplaceAll(Clean(value), `"`, "")
}

// HasLeadingCommand reports whether query already starts with a command
// that Splunk accepts at the start of a search.
func HasLeadingCommand(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, cmd := range leadingCommands {
		if !strings.HasPrefix(q, cmd) {
			continue
		}
		if cmd == "|" || cmd == "`" {
			return true
		}
		rest := q[len(cmd):]
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
			return true
		}
	}
	return false
}

// StripSearch removes a leading "search" keyword, if any.
func StripSearch(query string) string {
	q := strings.TrimSpace(query)
	return strings.TrimSpace(searchWordRe.ReplaceAllString(q, ""))
}

// EnsureSearchPrefix returns query starting with exactly one "search"
// keyword, unless it starts with another leading command.
func EnsureSearchPrefix(query string) string {
	q := StripSearch(query)
	if HasLeadingCommand(q) {
		return q
	}
	return "search " + q
}

// Rewrite substitutes every placeholder in template with value, which must
// already be escaped.
func Rewrite(template, value string) string {
	return placeholderRe.ReplaceAllLiteralString(template, value)
}

// Query builds the single-entity search for template.
func Query(template, value string) string {
	return EnsureSearchPrefix(Rewrite(template, Escape(value)))
}

// Compose unions searches into one request: the first search as is, every
// other as an append subsearch.
func Compose(searches []string) string {
	var b strings.Builder
	for i, s := range searches {
		if i == 0 {
			b.WriteString(s)
			continue
		}
		b.WriteString(" | append [ ")
		b.WriteString(s)
		b.WriteString(" ]")
	}
	return b.String()
}

// Build composes the multi-entity search for template.
func Build(template string, entities []types.Entity) string {
	searches := make([]string, len(entities))
	for i, e := range entities {
		searches[i] = Query(template, e.Value)
	}
	return Compose(searches)
}

// Direct prepares a user-typed search, capping it at maxResults rows when
// maxResults > 0. Line breaks become spaces.
func Direct(query string, maxResults int) string {
	q := EnsureSearchPrefix(newlineRe.ReplaceAllString(query, " "))
	if maxResults > 0 {
		q += fmt.Sprintf(" | head %d", maxResults)
	}
	return q
}

// MetaQuery builds the index/sourcetype discovery search for one value.
// match is the clause after the generating command; empty selects the
// default for mode.
func MetaQuery(mode types.SearchMode, match, value string) string {
	v := Strip(value)

	var head string
	if mode == types.SearchModeMetaSearch {
		if match == "" {
			match = types.DefaultMetaSearchMatch
		}
		head = "| metasearch " + trimCommand(match, "metasearch")
	} else {
		if match == "" {
			match = types.DefaultIndexDiscoveryMatch
		}
		head = "search " + trimCommand(match, "search")
	}

	return Rewrite(head, v) + fmt.Sprintf(metaTail, v)
}

// BuildMeta composes the discovery search for every entity.
func BuildMeta(mode types.SearchMode, match string, entities []types.Entity) string {
	searches := make([]string, len(entities))
	for i, e := range entities {
		searches[i] = MetaQuery(mode, match, e.Value)
	}
	return Compose(searches)
}

func trimCommand(match, command string) string {
	m := strings.TrimSpace(match)
	m = strings.TrimSpace(strings.TrimPrefix(m, "|"))
	if len(m) >= len(command) && strings.EqualFold(m[:len(command)], command) {
		rest := m[len(command):]
		if rest == "" || rest[0] == ' ' {
			return strings.TrimSpace(rest)
		}
	}
	return m
}
