// Package managers abstracts the package-manager tools (vcpkg, Conan,
// pkg-config) that candidate packages are looked up in.
//
// Every backend answers three questions: is the tool installed, does it know
// a package, and can it install itself. Lookups never fail loudly: a tool
// that cannot be started or answers with an error simply has not found the
// package.
package managers

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Backend is one package-manager tool.
type Backend interface {
	// Name returns the display name used in progress and report lines.
	Name() string

	// Installed reports whether the tool is usable right now.
	Installed(ctx context.Context) bool

	// Query reports whether the tool knows a package called pkg.
	Query(ctx context.Context, pkg string) bool

	// Install bootstraps the tool itself. It is a no-op when the tool is
	// already present.
	Install(ctx context.Context) error
}

// Cleaner is implemented by backends that can remove an install they made
// during the current run.
type Cleaner interface {
	Cleanup(ctx context.Context) (bool, error)
}

// Env is the shared context every backend runs in.
type Env struct {
	Runner  Runner
	WorkDir string // directory holding a self-managed vcpkg clone
	GOOS    string
	Logger  *log.Logger

	// QueryTimeout bounds a single package query. Zero means no limit.
	QueryTimeout time.Duration

	// VcpkgRepo is the git URL cloned when vcpkg is bootstrapped.
	VcpkgRepo string

	// Progress receives installer output. Nil discards it.
	Progress io.Writer
}

// DefaultVcpkgRepo is the upstream vcpkg repository.
const DefaultVcpkgRepo = "https://github.com/microsoft/vcpkg.git"

func (e Env) withDefaults() Env {
	if e.Runner == nil {
		e.Runner = ExecRunner{}
	}
	if e.WorkDir == "" {
		e.WorkDir = "."
	}
	if e.GOOS == "" {
		e.GOOS = runtime.GOOS
	}
	if e.Logger == nil {
		e.Logger = log.Default()
	}
	if e.VcpkgRepo == "" {
		e.VcpkgRepo = DefaultVcpkgRepo
	}
	return e
}

// onPath reports whether file is found on PATH.
func (e Env) onPath(file string) bool {
	_, err := e.Runner.LookPath(file)
	return err == nil
}

// query runs a lookup command. ok is false when the process could not run;
// the failure is logged and never returned.
func (e Env) query(ctx context.Context, backend string, cmd Command) (Output, bool) {
	if e.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.QueryTimeout)
		defer cancel()
	}
	out, err := e.Runner.Run(ctx, cmd)
	if err != nil {
		e.Logger.Debug("query failed", "backend", backend, "cmd", cmd.Name, "args", strings.Join(cmd.Args, " "), "err", err)
		return out, false
	}
	return out, true
}

// install runs an installer step with its output streamed to Progress.
func (e Env) install(ctx context.Context, backend string, cmd Command) error {
	if e.Progress != nil {
		cmd.Passthrough = e.Progress
	}
	out, err := e.Runner.Run(ctx, cmd)
	if err != nil {
		return &Error{Op: "install", Backend: backend, Err: fmt.Errorf("running %s: %w", cmd.Name, err)}
	}
	if !out.Success() {
		return &Error{Op: "install", Backend: backend, Err: fmt.Errorf("%s %s exited with status %d", cmd.Name, strings.Join(cmd.Args, " "), out.ExitCode)}
	}
	return nil
}

// Known backend names in discovery order.
const (
	NameVcpkg     = "vcpkg"
	NameConan     = "Conan"
	NamePkgConfig = "pkg-config"
)

// Names returns every known backend name in discovery order.
func Names() []string {
	return []string{NameVcpkg, NameConan, NamePkgConfig}
}

// Canonical maps a user-supplied backend name (case-insensitive) to its
// display name.
func Canonical(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case strings.ToLower(NameVcpkg):
		return NameVcpkg, nil
	case strings.ToLower(NameConan):
		return NameConan, nil
	case strings.ToLower(NamePkgConfig), "pkgconfig":
		return NamePkgConfig, nil
	}
	return "", fmt.Errorf("%w: %q (known: %s)", ErrUnknownBackend, name, strings.Join(Names(), ", "))
}

// New builds the backend called name (case-insensitive).
func New(name string, env Env) (Backend, error) {
	canonical, err := Canonical(name)
	if err != nil {
		return nil, err
	}
	env = env.withDefaults()
	switch canonical {
	case NameVcpkg:
		return &Vcpkg{env: env}, nil
	case NameConan:
		return &Conan{env: env}, nil
	default:
		return &PkgConfig{env: env}, nil
	}
}

// Registry is the ordered set of backends a run uses.
type Registry struct {
	backends []Backend
}

// NewRegistry builds backends for names in the order given, which becomes
// the discovery order. With no names every known backend is used.
// Duplicates are ignored.
func NewRegistry(env Env, names ...string) (*Registry, error) {
	if len(names) == 0 {
		names = Names()
	}
	r := &Registry{}
	seen := map[string]bool{}
	for _, n := range names {
		b, err := New(n, env)
		if err != nil {
			return nil, err
		}
		if seen[b.Name()] {
			continue
		}
		seen[b.Name()] = true
		r.backends = append(r.backends, b)
	}
	return r, nil
}

// NewRegistryFrom wraps already constructed backends.
func NewRegistryFrom(backends ...Backend) *Registry {
	return &Registry{backends: backends}
}

// Backends returns the backends in discovery order.
func (r *Registry) Backends() []Backend {
	return r.backends
}

// Detect splits the backends into installed and missing. Call it once per
// run; the answer is not cached by the backends themselves.
func (r *Registry) Detect(ctx context.Context) (installed, missing []Backend) {
	for _, b := range r.backends {
		if b.Installed(ctx) {
			installed = append(installed, b)
		} else {
			missing = append(missing, b)
		}
	}
	return installed, missing
}
