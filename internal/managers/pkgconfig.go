package managers

import (
	"context"
	"fmt"
)

// PkgConfig looks packages up with `pkg-config --cflags`; the exit status is
// the answer.
type PkgConfig struct {
	env Env
}

func (p *PkgConfig) Name() string { return NamePkgConfig }

func (p *PkgConfig) Installed(ctx context.Context) bool {
	return p.env.onPath("pkg-config")
}

func (p *PkgConfig) Query(ctx context.Context, pkg string) bool {
	out, ok := p.env.query(ctx, p.Name(), Command{Name: "pkg-config", Args: []string{"--cflags", pkg}})
	return ok && out.Success()
}

// Install uses the platform package manager: apt-get on Linux, Homebrew on
// macOS. Other platforms are not automated.
func (p *PkgConfig) Install(ctx context.Context) error {
	var cmd Command
	switch p.env.GOOS {
	case "linux":
		p.env.Logger.Info("installing pkg-config via apt")
		cmd = Command{Name: "sudo", Args: []string{"apt-get", "install", "-y", "pkg-config"}}
	case "darwin":
		p.env.Logger.Info("installing pkg-config via Homebrew")
		cmd = Command{Name: "brew", Args: []string{"install", "pkg-config"}}
	default:
		return &Error{Op: "install", Backend: p.Name(), Err: fmt.Errorf("%w: %s", ErrPlatformNotSupported, p.env.GOOS)}
	}
	if err := p.env.install(ctx, p.Name(), cmd); err != nil {
		return err
	}
	p.env.Logger.Info("pkg-config installed successfully")
	return nil
}
