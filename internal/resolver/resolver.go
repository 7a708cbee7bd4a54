// Package resolver asks every package-manager backend about every candidate
// package and partitions the candidates into found and not found.
package resolver

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/StinkyLord/cpp-depfinder/internal/managers"
	"github.com/StinkyLord/cpp-depfinder/internal/model"
)

// Resolver drives the backend queries for one run.
type Resolver struct {
	Registry *managers.Registry

	// Bootstrap enables installing missing backends and querying the ones
	// whose install succeeded.
	Bootstrap bool

	// Progress receives the "Checking ..." lines. Nil discards them.
	Progress io.Writer

	Logger *log.Logger
}

func (r *Resolver) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

func (r *Resolver) progress() io.Writer {
	if r.Progress == nil {
		return io.Discard
	}
	return r.Progress
}

// Resolve queries the backends for candidates.
//
// Installed backends are queried first, in registry order. Missing backends
// are only queried after a bootstrap that leaves them usable, even if the
// install itself reported an error. Within a backend, candidates
// are queried in sorted order and a hit never stops the other backends from
// being asked. The empty candidate is never sent to a backend.
func (r *Resolver) Resolve(ctx context.Context, candidates []string) (*model.Resolution, error) {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	res := &model.Resolution{Candidates: sorted, Hits: []model.Hit{}}
	status := map[string]*model.BackendStatus{}

	installed, missing := r.Registry.Detect(ctx)
	for _, b := range r.Registry.Backends() {
		res.Backends = append(res.Backends, model.BackendStatus{Name: b.Name()})
	}
	for i := range res.Backends {
		status[res.Backends[i].Name] = &res.Backends[i]
	}
	for _, b := range installed {
		status[b.Name()].InstalledAtStart = true
	}

	for _, b := range installed {
		if err := r.queryAll(ctx, b, sorted, res); err != nil {
			return nil, err
		}
	}

	if len(missing) > 0 {
		names := backendNames(missing)
		if !r.Bootstrap {
			r.logger().Info("bootstrap disabled, skipping missing package managers", "missing", names)
		} else {
			r.logger().Info("downloading missing package managers", "missing", names)
			var ready []managers.Backend
			for _, b := range missing {
				if err := b.Install(ctx); err != nil {
					status[b.Name()].BootstrapError = err.Error()
					if !b.Installed(ctx) {
						r.logger().Error("package manager unavailable for this run", "backend", b.Name(), "err", err)
						continue
					}
					r.logger().Warn("install reported an error but the package manager is usable", "backend", b.Name(), "err", err)
				}
				status[b.Name()].Bootstrapped = true
				ready = append(ready, b)
			}
			for _, b := range ready {
				if err := r.queryAll(ctx, b, sorted, res); err != nil {
					return nil, err
				}
			}
		}
	}

	res.Partition()
	return res, nil
}

func (r *Resolver) queryAll(ctx context.Context, b managers.Backend, candidates []string, res *model.Resolution) error {
	w := r.progress()
	for _, pkg := range candidates {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("resolving packages: %w", err)
		}
		if pkg == "" {
			continue
		}
		fmt.Fprintf(w, "Checking %s for '%s'...\n", b.Name(), pkg)
		if b.Query(ctx, pkg) {
			res.Hits = append(res.Hits, model.Hit{Backend: b.Name(), Package: pkg})
		}
	}
	fmt.Fprintln(w)
	return nil
}

// Cleanup removes backends installed into the working tree during this
// run, recording the outcome in res. Failures are logged, not returned.
func (r *Resolver) Cleanup(ctx context.Context, res *model.Resolution) {
	for _, b := range r.Registry.Backends() {
		c, ok := b.(managers.Cleaner)
		if !ok {
			continue
		}
		removed, err := c.Cleanup(ctx)
		if err != nil {
			r.logger().Warn("cleanup failed", "backend", b.Name(), "err", err)
			continue
		}
		if !removed {
			continue
		}
		r.logger().Info("removed local install", "backend", b.Name())
		for i := range res.Backends {
			if res.Backends[i].Name == b.Name() {
				res.Backends[i].CleanedUp = true
			}
		}
	}
}

func backendNames(bs []managers.Backend) []string {
	names := make([]string, 0, len(bs))
	for _, b := range bs {
		names = append(names, b.Name())
	}
	return names
}
