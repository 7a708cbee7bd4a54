package managers

import (
	"bytes"
	"context"
	"fmt"
)

// Conan looks packages up with `conan search`.
//
// A search counts as a hit only if conan exits cleanly and its output holds
// no "ERROR" marker; older Conan releases report a missing remote package on
// stdout with status 0.
type Conan struct {
	env Env
}

func (c *Conan) Name() string { return NameConan }

func (c *Conan) Installed(ctx context.Context) bool {
	return c.env.onPath("conan")
}

func (c *Conan) Query(ctx context.Context, pkg string) bool {
	out, ok := c.env.query(ctx, c.Name(), Command{Name: "conan", Args: []string{"search", pkg}})
	return ok && out.Success() && !bytes.Contains(out.Stdout, []byte("ERROR"))
}

// Install uses pip. It needs a working pip and does nothing when
// `conan --version` already succeeds.
func (c *Conan) Install(ctx context.Context) error {
	if out, err := c.env.Runner.Run(ctx, Command{Name: "pip", Args: []string{"--version"}}); err != nil || !out.Success() {
		return &Error{Op: "install", Backend: c.Name(), Err: fmt.Errorf("%w: Python and pip are required to install Conan", ErrPrerequisiteMissing)}
	}
	if out, err := c.env.Runner.Run(ctx, Command{Name: "conan", Args: []string{"--version"}}); err == nil && out.Success() {
		c.env.Logger.Info("Conan is already installed")
		return nil
	}

	c.env.Logger.Info("installing Conan")
	if err := c.env.install(ctx, c.Name(), Command{Name: "pip", Args: []string{"install", "--user", "conan"}}); err != nil {
		return err
	}
	c.env.Logger.Info("Conan installed successfully")
	return nil
}
