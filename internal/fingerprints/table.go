// Package fingerprints holds the Known-Header Table: header names that belong
// to the C/C++ standard library (or the platform) and therefore never map to
// an installable package.
package fingerprints

import (
	_ "embed"
	"sort"
	"strings"
	"sync"
)

//go:embed headers.txt
var headersTxt string

// Table is an immutable set of header names.
type Table struct {
	headers map[string]bool
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in table, parsed once from the embedded list.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = &Table{headers: parse(headersTxt)}
	})
	return defaultTable
}

// parse reads one header per line; blank lines and '#' comments are ignored.
func parse(src string) map[string]bool {
	headers := map[string]bool{}
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		headers[line] = true
	}
	return headers
}

// With returns a copy of t extended with extra header names.
func (t *Table) With(extra ...string) *Table {
	headers := make(map[string]bool, len(t.headers)+len(extra))
	for h := range t.headers {
		headers[h] = true
	}
	for _, h := range extra {
		if h = strings.TrimSpace(h); h != "" {
			headers[h] = true
		}
	}
	return &Table{headers: headers}
}

// Contains reports whether include exactly matches a known header.
func (t *Table) Contains(include string) bool {
	return t.headers[include]
}

// Len returns the number of headers in the table.
func (t *Table) Len() int { return len(t.headers) }

// Headers returns the table contents in sorted order.
func (t *Table) Headers() []string {
	out := make([]string, 0, len(t.headers))
	for h := range t.headers {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
