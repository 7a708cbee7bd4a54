package includes

import (
	"sort"
	"strings"

	"github.com/StinkyLord/cpp-depfinder/internal/fingerprints"
)

// FilterStdlib drops tokens that exactly match an entry of table and returns
// the rest deduplicated and sorted.
func FilterStdlib(tokens []string, table *fingerprints.Table) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if table.Contains(t) || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// FilterLocal drops tokens whose final path segment is the bare name of a
// file present in the scanned tree. has reports that presence.
func FilterLocal(tokens []string, has func(name string) bool) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if has(lastSegment(t)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func lastSegment(token string) string {
	if i := strings.LastIndexByte(token, '/'); i >= 0 {
		return token[i+1:]
	}
	return token
}

// Normalize maps a header token to a lowercase candidate package name:
//
//  1. with a '/', keep what precedes the first '/';
//  2. otherwise with a '.', keep what precedes the first '.';
//  3. otherwise keep the whole token;
//  4. if the kept part ends with a digit, cut it at its first digit;
//  5. lowercase.
//
// "lib2foo3" becomes "lib", not "lib2foo". A token made only of digits
// normalizes to "".
func Normalize(token string) string {
	name := token
	if i := strings.IndexByte(name, '/'); i >= 0 {
		name = name[:i]
	} else if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	if n := len(name); n > 0 && isDigit(name[n-1]) {
		name = name[:strings.IndexFunc(name, func(r rune) bool { return r >= '0' && r <= '9' })]
	}
	return strings.ToLower(name)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Candidates normalizes every token and returns the distinct names sorted.
func Candidates(tokens []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		name := Normalize(t)
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
