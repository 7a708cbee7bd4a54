package includes

import (
	"bufio"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StinkyLord/cpp-depfinder/internal/fingerprints"
	"github.com/StinkyLord/cpp-depfinder/internal/logging"
	"github.com/StinkyLord/cpp-depfinder/internal/model"
)

// ============================================================
// Extract
// ============================================================

func TestExtract_Forms(t *testing.T) {
	src := `#include <stdio.h>
#include "mylocal.h"
  #include <fmt/core.h>
	#include "sub/dir/x.hpp"
#include<boost/asio.hpp>
`
	tokens, errs := Extract("a.c", src)
	require.Empty(t, errs)
	require.Len(t, tokens, 5)

	assert.Equal(t, Token{Raw: "stdio.h", Form: Angle, Line: 1}, tokens[0])
	assert.Equal(t, Token{Raw: "mylocal.h", Form: Quoted, Line: 2}, tokens[1])
	assert.Equal(t, "fmt/core.h", tokens[2].Raw)
	assert.Equal(t, "sub/dir/x.hpp", tokens[3].Raw)
	assert.Equal(t, "boost/asio.hpp", tokens[4].Raw)
}

func TestExtract_IgnoresNonDirectives(t *testing.T) {
	src := `// #include <commented.h>
int x; #include <midline.h>
#include_next <next.h>
#define INCLUDE <nope.h>
#  include <spaced.h>
#pragma once
`
	tokens, errs := Extract("a.c", src)
	assert.Empty(t, errs)
	assert.Empty(t, tokens)
}

func TestExtract_AngleUsesFirstClosingBracket(t *testing.T) {
	tokens, errs := Extract("a.c", `#include <a.h> // see <b.h>`)
	require.Empty(t, errs)
	require.Len(t, tokens, 1)
	assert.Equal(t, "a.h", tokens[0].Raw)
}

func TestExtract_QuotedUsesLastQuote(t *testing.T) {
	tokens, errs := Extract("a.c", `#include "a.h" /* "x" */`)
	require.Empty(t, errs)
	require.Len(t, tokens, 1)
	assert.Equal(t, `a.h" /* "x`, tokens[0].Raw)
}

func TestExtract_Malformed(t *testing.T) {
	src := "#include <unterminated.h\n#include \"half.h\n#include FOO_HEADER\n#include\n#include <ok.h>\n"
	tokens, errs := Extract("src/a.c", src)

	require.Len(t, tokens, 1)
	assert.Equal(t, "ok.h", tokens[0].Raw)

	require.Len(t, errs, 4)
	for i, err := range errs {
		assert.True(t, errors.Is(err, ErrMalformedInclude))
		var perr *ParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "src/a.c", perr.Path)
		assert.Equal(t, i+1, perr.Line)
	}
	assert.Contains(t, errs[0].Error(), "src/a.c:1")
}

// ============================================================
// Filters
// ============================================================

func TestFilterStdlib_RemovesKnownHeadersRegardlessOfForm(t *testing.T) {
	table := fingerprints.Default()
	for _, h := range table.Headers() {
		for _, src := range []string{"#include <" + h + ">", `#include "` + h + `"`} {
			tokens, errs := Extract("a.c", src)
			require.Empty(t, errs)
			require.Len(t, tokens, 1)
			assert.Empty(t, FilterStdlib([]string{tokens[0].Raw}, table), "header %q via %q", h, src)
		}
	}
}

func TestFilterStdlib_DedupAndSort(t *testing.T) {
	got := FilterStdlib([]string{"zlib.h", "stdio.h", "fmt/core.h", "zlib.h", "vector"}, fingerprints.Default())
	assert.Equal(t, []string{"fmt/core.h", "zlib.h"}, got)
}

func TestFilterLocal(t *testing.T) {
	scan := &model.ScanResult{Names: []string{"config.h", "mylocal.h"}}
	got := FilterLocal([]string{"fmt/core.h", "mylocal.h", "project/sub/config.h", "zlib.h"}, scan.HasName)
	assert.Equal(t, []string{"fmt/core.h", "zlib.h"}, got)
}

func TestFilterLocal_MatchesOnlyFinalSegment(t *testing.T) {
	scan := &model.ScanResult{Names: []string{"fmt"}}
	got := FilterLocal([]string{"fmt/core.h"}, scan.HasName)
	assert.Equal(t, []string{"fmt/core.h"}, got)
}

// ============================================================
// Normalize
// ============================================================

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"foo/bar.h", "foo"},
		{"foo/baz.h", "foo"},
		{"zlib.h", "zlib"},
		{"sdl2/SDL.h", "sdl"},
		{"SDL2/SDL.h", "sdl"},
		{"9", ""},
		{"123.h", ""},
		{"zlib1.h", "zlib"},
		{"lib2foo3", "lib"},      // cut at the first digit, not the trailing run
		{"lib2foo.h", "lib2foo"}, // no trailing digit, nothing cut
		{"Eigen/Dense", "eigen"},
		{"boost/asio.hpp", "boost"},
		{"GL/gl.h", "gl"},
		{"noext", "noext"},
		{"a.b.c", "a"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestCandidates_SortedAndDistinct(t *testing.T) {
	tokens := []string{"foo/bar.h", "zlib.h", "foo2.h", "ZLIB/x.h", "abc.h", "foo/baz.h"}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(tokens), func(a, b int) { tokens[a], tokens[b] = tokens[b], tokens[a] })
		got := Candidates(tokens)
		assert.Equal(t, []string{"abc", "foo", "zlib"}, got)
		assert.True(t, sort.StringsAreSorted(got))
	}
}

func TestCandidates_EmptyNameSurvives(t *testing.T) {
	assert.Equal(t, []string{"", "fmt"}, Candidates([]string{"9", "fmt/core.h", "42"}))
}

// ============================================================
// Pipeline
// ============================================================

func newPipeline(policy Policy) *Pipeline {
	return &Pipeline{Table: fingerprints.Default(), OnMalformed: policy, Logger: logging.Discard()}
}

func TestPipeline_LocalAndStdlibOnly(t *testing.T) {
	scan := &model.ScanResult{
		Files: []model.SourceFile{
			{Path: "a.c", Name: "a.c", Content: "#include <stdio.h>\n#include \"mylocal.h\"\n"},
			{Path: "mylocal.h", Name: "mylocal.h", Content: ""},
		},
		Names: []string{"a.c", "mylocal.h"},
	}

	res, err := newPipeline(PolicyFail).Run(scan)
	require.NoError(t, err)
	assert.Equal(t, []string{"mylocal.h", "stdio.h"}, res.Raw)
	assert.Equal(t, []string{"mylocal.h"}, res.External)
	assert.Empty(t, res.Remaining)
	assert.Empty(t, res.Candidates)
}

func TestPipeline_ExternalHeader(t *testing.T) {
	scan := &model.ScanResult{
		Files: []model.SourceFile{{Path: "a.c", Name: "a.c", Content: "#include <fmt/core.h>\n"}},
		Names: []string{"a.c"},
	}
	res, err := newPipeline(PolicyFail).Run(scan)
	require.NoError(t, err)
	assert.Equal(t, []string{"fmt"}, res.Candidates)
}

func TestPipeline_MalformedPolicies(t *testing.T) {
	scan := &model.ScanResult{
		Files: []model.SourceFile{{Path: "a.c", Name: "a.c", Content: "#include <broken\n#include <zlib.h>\n"}},
		Names: []string{"a.c"},
	}

	_, err := newPipeline(PolicyFail).Run(scan)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedInclude)

	res, err := newPipeline(PolicySkip).Run(scan)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"zlib"}, res.Candidates)
}

func TestPipeline_OverlongLineSkipsFile(t *testing.T) {
	huge := "#include <sdl.h>\n" + strings.Repeat("x", 17<<20) + "\n#include <png.h>\n"
	scan := &model.ScanResult{
		Files: []model.SourceFile{
			{Path: "blob.c", Name: "blob.c", Content: huge},
			{Path: "b.c", Name: "b.c", Content: "#include <zlib.h>\n"},
		},
		Names: []string{"b.c", "blob.c"},
	}

	_, errs := Extract("blob.c", huge)
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[len(errs)-1], bufio.ErrTooLong)

	for _, policy := range []Policy{PolicyFail, PolicySkip} {
		res, err := newPipeline(policy).Run(scan)
		require.NoError(t, err, policy.String())
		assert.Equal(t, 1, res.Unreadable)
		assert.Zero(t, res.Skipped)
		assert.Equal(t, []string{"zlib.h"}, res.Raw)
		assert.Equal(t, []string{"zlib"}, res.Candidates)
	}
}

func TestPipeline_IncludesKeepForm(t *testing.T) {
	scan := &model.ScanResult{
		Files: []model.SourceFile{
			{Path: "a.c", Name: "a.c", Content: "#include \"fmt/core.h\"\n#include <zlib.h>\n"},
			{Path: "b.c", Name: "b.c", Content: "#include <fmt/core.h>\n#include <zlib.h>\n"},
		},
		Names: []string{"a.c", "b.c"},
	}

	res, err := newPipeline(PolicyFail).Run(scan)
	require.NoError(t, err)
	assert.Equal(t, []model.Include{
		{Header: "fmt/core.h", Form: "angle"},
		{Header: "fmt/core.h", Form: "quoted"},
		{Header: "zlib.h", Form: "angle"},
	}, res.Includes)
	assert.Equal(t, []string{"fmt/core.h", "zlib.h"}, res.Raw)
}

func TestPipeline_Idempotent(t *testing.T) {
	scan := &model.ScanResult{
		Files: []model.SourceFile{
			{Path: "a.cpp", Name: "a.cpp", Content: "#include <boost/asio.hpp>\n#include <SDL2/SDL.h>\n#include <vector>\n"},
			{Path: "b.cpp", Name: "b.cpp", Content: "#include <zlib.h>\n#include \"b.h\"\n"},
		},
		Names: []string{"a.cpp", "b.cpp"},
	}
	p := newPipeline(PolicyFail)
	first, err := p.Run(scan)
	require.NoError(t, err)
	second, err := p.Run(scan)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"b", "boost", "sdl", "zlib"}, first.Candidates)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("skip")
	require.NoError(t, err)
	assert.Equal(t, PolicySkip, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFail, p)

	_, err = ParsePolicy("ignore")
	assert.Error(t, err)
}
