// Package model defines the values passed between the dependency-resolution stages.
package model

import "sort"

// SourceFile is one C/C++ source or header file collected by the scanner.
type SourceFile struct {
	Path    string // Slash-separated path relative to the scan root
	Content string // Full text content
	Name    string // Bare filename (path stripped of directories)
}

// ScanResult is the output of a directory scan.
type ScanResult struct {
	Files []SourceFile
	Names []string // Sorted, deduplicated bare filenames of Files
}

// HasName reports whether a file with the given bare name was scanned.
func (r *ScanResult) HasName(name string) bool {
	i := sort.SearchStrings(r.Names, name)
	return i < len(r.Names) && r.Names[i] == name
}

// Include is one distinct header name together with the delimiter style it
// was written with ("angle" or "quoted").
type Include struct {
	Header string `json:"header" yaml:"header"`
	Form   string `json:"form" yaml:"form"`
}

// Hit records that a backend found a candidate package.
type Hit struct {
	Backend string `json:"backend" yaml:"backend"`
	Package string `json:"package" yaml:"package"`
}

// BackendStatus describes what happened to one backend during a run.
type BackendStatus struct {
	Name             string `json:"name" yaml:"name"`
	InstalledAtStart bool   `json:"installedAtStart" yaml:"installed_at_start"`
	Bootstrapped     bool   `json:"bootstrapped,omitempty" yaml:"bootstrapped,omitempty"`
	BootstrapError   string `json:"bootstrapError,omitempty" yaml:"bootstrap_error,omitempty"`
	CleanedUp        bool   `json:"cleanedUp,omitempty" yaml:"cleaned_up,omitempty"`
}

// Queried reports whether the backend took part in package queries.
func (s BackendStatus) Queried() bool {
	return s.InstalledAtStart || s.Bootstrapped
}

// Resolution is the outcome of querying every backend for every candidate.
//
// Every candidate appears in exactly one of Found or NotFound. A candidate
// found by several backends lists all of them, in backend discovery order.
type Resolution struct {
	Candidates []string            `json:"candidates" yaml:"candidates"`
	Hits       []Hit               `json:"hits" yaml:"hits"`
	Found      map[string][]string `json:"found" yaml:"found"`
	NotFound   []string            `json:"notFound" yaml:"not_found"`
	Backends   []BackendStatus     `json:"backends" yaml:"backends"`
}

// Partition fills Found and NotFound from Candidates and Hits.
func (r *Resolution) Partition() {
	r.Found = map[string][]string{}
	for _, h := range r.Hits {
		r.Found[h.Package] = appendUnique(r.Found[h.Package], h.Backend)
	}
	r.NotFound = []string{}
	for _, c := range r.Candidates {
		if _, ok := r.Found[c]; !ok {
			r.NotFound = append(r.NotFound, c)
		}
	}
}

// FoundNames returns the found candidates in sorted order.
func (r *Resolution) FoundNames() []string {
	names := make([]string, 0, len(r.Found))
	for n := range r.Found {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func appendUnique(slice []string, s string) []string {
	for _, v := range slice {
		if v == s {
			return slice
		}
	}
	return append(slice, s)
}
