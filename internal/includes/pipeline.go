package includes

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/StinkyLord/cpp-depfinder/internal/fingerprints"
	"github.com/StinkyLord/cpp-depfinder/internal/model"
)

// Policy decides what happens to a malformed include directive. One policy
// applies to every file of a run.
type Policy int

const (
	// PolicyFail aborts the run on the first malformed directive.
	PolicyFail Policy = iota
	// PolicySkip logs a warning and drops the directive.
	PolicySkip
)

func (p Policy) String() string {
	if p == PolicySkip {
		return "skip"
	}
	return "fail"
}

// ParsePolicy parses "fail" or "skip".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "fail", "":
		return PolicyFail, nil
	case "skip":
		return PolicySkip, nil
	}
	return PolicyFail, fmt.Errorf("unknown malformed-include policy %q (want fail or skip)", s)
}

// Pipeline chains extraction, the stdlib and local-file filters and the
// normalizer.
type Pipeline struct {
	Table       *fingerprints.Table
	OnMalformed Policy
	Logger      *log.Logger
}

// Result keeps every intermediate set so callers can explain the outcome.
type Result struct {
	Raw        []string        // distinct raw tokens, sorted
	Includes   []model.Include // distinct (header, form) pairs, sorted
	External   []string        // after the stdlib filter
	Remaining  []string        // after the local-file filter
	Candidates []string        // normalized package names, sorted and distinct
	Skipped    int             // malformed directives dropped under PolicySkip
	Unreadable int             // files whose content could not be read line by line
}

// Run computes the candidate package names for a scanned tree.
//
// A file whose content cannot be split into lines contributes nothing and
// is counted in Unreadable, whatever the policy.
func (p *Pipeline) Run(scan *model.ScanResult) (*Result, error) {
	table := p.Table
	if table == nil {
		table = fingerprints.Default()
	}
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}

	res := &Result{}
	var all []string
	forms := map[model.Include]bool{}
	for _, f := range scan.Files {
		tokens, errs := Extract(f.Path, f.Content)
		if err := readError(errs); err != nil {
			logger.Warn("skipping unreadable file", "file", f.Path, "err", err)
			res.Unreadable++
			continue
		}
		for _, err := range errs {
			var perr *ParseError
			errors.As(err, &perr)
			if p.OnMalformed == PolicyFail {
				return nil, err
			}
			logger.Warn("skipping malformed include", "file", perr.Path, "line", perr.Line, "text", perr.Text)
			res.Skipped++
		}
		for _, t := range tokens {
			all = append(all, t.Raw)
			forms[model.Include{Header: t.Raw, Form: t.Form.String()}] = true
		}
	}

	res.Raw = distinctSorted(all)
	res.Includes = sortedIncludes(forms)
	res.External = FilterStdlib(all, table)
	res.Remaining = FilterLocal(res.External, scan.HasName)
	res.Candidates = Candidates(res.Remaining)

	logger.Debug("includes resolved",
		"known_headers", table.Len(),
		"unreadable", res.Unreadable,
		"raw", len(res.Raw),
		"external", len(res.External),
		"remaining", len(res.Remaining),
		"candidates", len(res.Candidates))
	return res, nil
}

// readError returns the first error in errs that is not a *ParseError.
func readError(errs []error) error {
	for _, err := range errs {
		var perr *ParseError
		if !errors.As(err, &perr) {
			return err
		}
	}
	return nil
}

func sortedIncludes(set map[model.Include]bool) []model.Include {
	out := make([]model.Include, 0, len(set))
	for inc := range set {
		out = append(out, inc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Header != out[j].Header {
			return out[i].Header < out[j].Header
		}
		return out[i].Form < out[j].Form
	})
	return out
}

func distinctSorted(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
