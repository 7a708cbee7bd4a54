// Package scanner walks a project tree and collects the C/C++ source and
// header files the include extractor works on.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/StinkyLord/cpp-depfinder/internal/model"
)

// Options controls a scan.
type Options struct {
	// Workers bounds the number of files read concurrently.
	// Zero means GOMAXPROCS.
	Workers int

	// Exclude lists directory basenames that are not descended into.
	// The root itself is never excluded.
	Exclude []string
}

// Scanner collects source files below a root.
type Scanner struct {
	opts    Options
	exclude map[string]bool
	logger  *log.Logger
}

// New creates a Scanner. A nil logger falls back to log.Default().
func New(opts Options, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	exclude := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		exclude[name] = true
	}
	return &Scanner{opts: opts, exclude: exclude, logger: logger}
}

// IsSourceFile reports whether a filename has a C/C++ source or header
// extension. Any extension containing ".c" or ".h" qualifies, so .cpp, .hpp,
// .cc and .hh match, and so do .cmake and .cs.
func IsSourceFile(name string) bool {
	// A leading dot alone (".h") is a hidden file, not an extension.
	if strings.LastIndex(name, ".") <= 0 {
		return false
	}
	ext := path.Ext(name)
	return strings.Contains(ext, ".c") || strings.Contains(ext, ".h")
}

// ScanDir scans the directory tree rooted at root on the local filesystem.
// A root that is missing or not a directory yields an empty result and a
// warning.
func (s *Scanner) ScanDir(ctx context.Context, root string) (*model.ScanResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		s.logger.Warn("source directory is not readable, nothing to scan", "dir", root, "err", err)
		return emptyResult(), nil
	}
	if !info.IsDir() {
		s.logger.Warn("source path is not a directory, nothing to scan", "path", root)
		return emptyResult(), nil
	}
	return s.Scan(ctx, os.DirFS(root))
}

func emptyResult() *model.ScanResult {
	return &model.ScanResult{Files: []model.SourceFile{}, Names: []string{}}
}

// Scan walks fsys from its root. Unreadable files and directories, the root
// included, are skipped; the scan only fails when ctx is done.
func (s *Scanner) Scan(ctx context.Context, fsys fs.FS) (*model.ScanResult, error) {
	var paths []string

	walkErr := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d == nil {
				s.logger.Warn("source root is not readable, nothing to scan", "err", err)
				return nil
			}
			s.logger.Debug("skipping unreadable path", "path", p, "err", err)
			if d.IsDir() && p != "." {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != "." && s.exclude[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if IsSourceFile(d.Name()) {
			paths = append(paths, p)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking source tree: %w", walkErr)
	}

	files, err := s.readAll(ctx, fsys, paths)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		name := path.Base(p)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)

	s.logger.Debug("scan finished", "files", len(files), "names", len(names))
	return &model.ScanResult{Files: files, Names: names}, nil
}

// readAll reads every path concurrently and returns the readable ones in
// walk order.
func (s *Scanner) readAll(ctx context.Context, fsys fs.FS, paths []string) ([]model.SourceFile, error) {
	workers := s.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	slots := make([]*model.SourceFile, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, p)
			if err != nil {
				s.logger.Debug("skipping unreadable file", "path", p, "err", err)
				return nil
			}
			slots[i] = &model.SourceFile{Path: p, Content: string(data), Name: path.Base(p)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reading source files: %w", err)
	}

	files := make([]model.SourceFile, 0, len(slots))
	for _, f := range slots {
		if f != nil {
			files = append(files, *f)
		}
	}
	return files, nil
}
