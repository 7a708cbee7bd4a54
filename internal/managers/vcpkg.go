package managers

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
)

// Vcpkg looks packages up with `vcpkg search`. It is installed when a vcpkg
// clone sits in the working directory or vcpkg is on PATH; bootstrapping
// clones the upstream repository into the working directory.
type Vcpkg struct {
	env Env

	// cloned is set when Install created the local clone in this run.
	cloned bool
}

func (v *Vcpkg) Name() string { return NameVcpkg }

func (v *Vcpkg) localDir() string {
	return filepath.Join(v.env.WorkDir, "vcpkg")
}

func (v *Vcpkg) localExe() string {
	exe := filepath.Join(v.localDir(), "vcpkg")
	if v.env.GOOS == "windows" {
		exe += ".exe"
	}
	return exe
}

func (v *Vcpkg) Installed(ctx context.Context) bool {
	return v.env.Runner.IsDir(v.localDir()) || v.env.onPath("vcpkg")
}

// Query succeeds when the search exits cleanly and its output names pkg.
// The executable of a local clone is preferred; a clone that was never
// bootstrapped falls back to vcpkg on PATH.
func (v *Vcpkg) Query(ctx context.Context, pkg string) bool {
	exe := "vcpkg"
	if v.env.Runner.IsFile(v.localExe()) {
		exe = v.localExe()
	}
	out, ok := v.env.query(ctx, v.Name(), Command{Name: exe, Args: []string{"search", pkg}, Dir: v.env.WorkDir})
	return ok && out.Success() && bytes.Contains(out.Stdout, []byte(pkg))
}

// Install clones vcpkg into the working directory and runs its bootstrap
// script. An existing clone is left alone.
func (v *Vcpkg) Install(ctx context.Context) error {
	dir := v.localDir()
	if v.env.Runner.IsDir(dir) {
		v.env.Logger.Info("vcpkg is already installed", "dir", dir)
		return nil
	}
	if !v.env.onPath("git") {
		return &Error{Op: "install", Backend: v.Name(), Err: fmt.Errorf("%w: git is required to clone vcpkg", ErrPrerequisiteMissing)}
	}

	v.env.Logger.Info("cloning vcpkg", "repo", v.env.VcpkgRepo, "dir", dir)
	if err := v.env.install(ctx, v.Name(), Command{Name: "git", Args: []string{"clone", v.env.VcpkgRepo, dir}, Dir: v.env.WorkDir}); err != nil {
		return err
	}
	v.cloned = true

	v.env.Logger.Info("bootstrapping vcpkg")
	bootstrap := Command{Name: "sh", Args: []string{filepath.Join(dir, "bootstrap-vcpkg.sh")}, Dir: v.env.WorkDir}
	if v.env.GOOS == "windows" {
		bootstrap = Command{Name: "cmd", Args: []string{"/C", filepath.Join(dir, "bootstrap-vcpkg.bat")}, Dir: v.env.WorkDir}
	}
	if err := v.env.install(ctx, v.Name(), bootstrap); err != nil {
		return err
	}
	v.env.Logger.Info("vcpkg installed successfully")
	return nil
}

// Cleanup removes the clone made by Install in this run. A clone that
// existed before the run is never touched.
func (v *Vcpkg) Cleanup(ctx context.Context) (bool, error) {
	if !v.cloned {
		return false, nil
	}
	if err := v.env.Runner.RemoveAll(v.localDir()); err != nil {
		return false, &Error{Op: "cleanup", Backend: v.Name(), Err: err}
	}
	v.cloned = false
	return true, nil
}
