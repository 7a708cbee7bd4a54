package managers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Command is one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string

	// Passthrough, when set, receives stdout and stderr as they are produced
	// instead of having them captured. Used for long-running installers.
	Passthrough io.Writer
}

// Output is what a finished process produced.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports a zero exit status.
func (o Output) Success() bool { return o.ExitCode == 0 }

// Runner is the boundary to the operating system. Backends never touch
// os/exec or the filesystem directly so tests can substitute a fake.
type Runner interface {
	// LookPath searches PATH for an executable.
	LookPath(file string) (string, error)

	// Run executes cmd and waits for it. A process that starts and exits
	// with a non-zero status is not an error: its status is in
	// Output.ExitCode. Errors mean the process could not be started or was
	// killed.
	Run(ctx context.Context, cmd Command) (Output, error)

	// IsDir reports whether path is an existing directory.
	IsDir(path string) bool

	// IsFile reports whether path is an existing regular file.
	IsFile(path string) bool

	// RemoveAll deletes path and everything below it.
	RemoveAll(path string) error
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct{}

func (ExecRunner) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (ExecRunner) Run(ctx context.Context, cmd Command) (Output, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir

	var stdout, stderr bytes.Buffer
	if cmd.Passthrough != nil {
		c.Stdout = cmd.Passthrough
		c.Stderr = cmd.Passthrough
	} else {
		c.Stdout = &stdout
		c.Stderr = &stderr
	}

	err := c.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		if out.ExitCode >= 0 && ctx.Err() == nil {
			return out, nil
		}
	}
	if out.ExitCode == 0 {
		out.ExitCode = -1
	}
	return out, err
}

func (ExecRunner) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (ExecRunner) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (ExecRunner) RemoveAll(path string) error { return os.RemoveAll(path) }
