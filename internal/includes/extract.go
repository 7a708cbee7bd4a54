// Package includes turns scanned source files into candidate package names:
// it extracts #include tokens, drops standard and project-local headers and
// normalizes what is left into package names.
package includes

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedInclude is wrapped by every ParseError.
var ErrMalformedInclude = errors.New("malformed include directive")

// Form is the delimiter style of an include directive.
type Form int

const (
	// Angle is #include <...>.
	Angle Form = iota
	// Quoted is #include "...".
	Quoted
)

func (f Form) String() string {
	if f == Angle {
		return "angle"
	}
	return "quoted"
}

// Token is the raw header name found inside one include directive.
type Token struct {
	Raw  string
	Form Form
	Line int // 1-based
}

// ParseError reports an include directive whose header name could not be
// delimited.
type ParseError struct {
	Path string
	Line int
	Text string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s:%d: %v: %q", e.Path, e.Line, ErrMalformedInclude, e.Text)
	}
	return fmt.Sprintf("line %d: %v: %q", e.Line, ErrMalformedInclude, e.Text)
}

func (e *ParseError) Unwrap() error { return ErrMalformedInclude }

const directive = "#include"

// isDirective reports whether line starts with an include directive. Leading
// whitespace is ignored; "#include_next" and directives that appear after
// other tokens on the line are not matched.
func isDirective(line string) bool {
	line = strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(line, directive) {
		return false
	}
	rest := line[len(directive):]
	if rest == "" {
		return true
	}
	switch rest[0] {
	case ' ', '\t', '<', '"':
		return true
	}
	return false
}

// parseToken extracts the header name from a directive line. When the line
// contains '<', the name lies between the first '<' and the first '>' after
// it; otherwise between the first and the last '"'.
func parseToken(line string) (string, Form, bool) {
	if start := strings.IndexByte(line, '<'); start >= 0 {
		end := strings.IndexByte(line[start+1:], '>')
		if end < 0 {
			return "", Angle, false
		}
		return line[start+1 : start+1+end], Angle, true
	}
	start := strings.IndexByte(line, '"')
	end := strings.LastIndexByte(line, '"')
	if start < 0 || end <= start {
		return "", Quoted, false
	}
	return line[start+1 : end], Quoted, true
}

// Extract returns one token per include directive in content, in line order.
// Malformed directives are returned as *ParseError values alongside the
// tokens that did parse; path is only used to label those errors.
func Extract(path, content string) ([]Token, []error) {
	var (
		tokens []Token
		errs   []error
	)

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if !isDirective(line) {
			continue
		}
		raw, form, ok := parseToken(line)
		if !ok {
			errs = append(errs, &ParseError{Path: path, Line: lineNo, Text: strings.TrimSpace(line)})
			continue
		}
		tokens = append(tokens, Token{Raw: raw, Form: form, Line: lineNo})
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, fmt.Errorf("reading %s: %w", path, err))
	}
	return tokens, errs
}
