package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/StinkyLord/cpp-depfinder/internal/config"
	"github.com/StinkyLord/cpp-depfinder/internal/fingerprints"
	"github.com/StinkyLord/cpp-depfinder/internal/includes"
	"github.com/StinkyLord/cpp-depfinder/internal/logging"
	"github.com/StinkyLord/cpp-depfinder/internal/managers"
	"github.com/StinkyLord/cpp-depfinder/internal/output"
	"github.com/StinkyLord/cpp-depfinder/internal/resolver"
	"github.com/StinkyLord/cpp-depfinder/internal/scanner"
)

const toolVersion = "0.3.0"

type options struct {
	configPath  string
	format      string
	output      string
	verbose     bool
	noBootstrap bool
	cleanup     bool
	backends    []string
	onMalformed string
}

// NewRootCmd builds the cpp-depfinder command running real package-manager
// tools.
func NewRootCmd() *cobra.Command {
	return newRootCmd(managers.ExecRunner{})
}

func newRootCmd(runner managers.Runner) *cobra.Command {
	var o options

	root := &cobra.Command{
		Use:   "cpp-depfinder [dir]",
		Short: "Find the packages a C/C++ project depends on",
		Long: `cpp-depfinder scans a C/C++ source tree for #include directives, drops
standard-library and project-local headers, derives a package name for each
remaining header and looks it up with the package managers it can find:
  • vcpkg       — a ./vcpkg clone or vcpkg on PATH
  • Conan       — conan on PATH
  • pkg-config  — pkg-config on PATH

Missing package managers are installed before they are queried unless
--no-bootstrap is given.

Examples:
  cpp-depfinder
  cpp-depfinder path/to/project --no-bootstrap
  cpp-depfinder . --backend vcpkg --backend conan --format json -o deps.json`,
		Args:          cobra.MaximumNArgs(1),
		Version:       toolVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logging.LevelInfo
			if o.verbose {
				level = logging.LevelDebug
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), logging.New(cmd.ErrOrStderr(), level)))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return run(cmd, runner, &o, dir)
		},
	}

	f := root.Flags()
	f.StringVar(&o.configPath, "config", "", "Config file (default .cpp-depfinder.yaml in the working directory or $HOME)")
	f.StringVarP(&o.format, "format", "f", config.DefaultFormat, "Report format: text, json, yaml or table")
	f.StringVarP(&o.output, "output", "o", "-", "Report file path (use '-' for stdout)")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Enable debug logging")
	f.BoolVar(&o.noBootstrap, "no-bootstrap", false, "Never install missing package managers")
	f.BoolVar(&o.cleanup, "cleanup", false, "Remove a vcpkg clone made by this run after reporting")
	f.StringArrayVar(&o.backends, "backend", nil, "Package manager to use (repeatable): vcpkg, conan, pkg-config")
	f.StringVar(&o.onMalformed, "on-malformed", config.DefaultOnMalformed,
		"What to do with an #include whose header name cannot be read:\n"+
			"'fail' stops the run, 'skip' logs a warning and ignores the line")

	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command, o *options) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = o.format
	}
	if flags.Changed("no-bootstrap") {
		cfg.Bootstrap = !o.noBootstrap
	}
	if flags.Changed("cleanup") {
		cfg.Cleanup = o.cleanup
	}
	if flags.Changed("backend") {
		cfg.Backends = o.backends
	}
	if flags.Changed("on-malformed") {
		cfg.Extract.OnMalformed = o.onMalformed
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, runner managers.Runner, o *options, dir string) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("cannot resolve directory %q: %w", dir, err)
	}
	logger.Debug("cpp-depfinder", "version", toolVersion, "dir", absDir)

	found, err := findCandidates(ctx, cfg, absDir)
	if err != nil {
		return err
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return fmt.Errorf("cannot determine working directory: %w", err)
		}
	}

	stdout := cmd.OutOrStdout()
	registry, err := managers.NewRegistry(managers.Env{
		Runner:       runner,
		WorkDir:      workDir,
		Logger:       logger,
		QueryTimeout: cfg.QueryTimeout,
		VcpkgRepo:    cfg.Vcpkg.Repo,
		Progress:     stdout,
	}, cfg.Backends...)
	if err != nil {
		return err
	}

	r := &resolver.Resolver{
		Registry:  registry,
		Bootstrap: cfg.Bootstrap,
		Progress:  stdout,
		Logger:    logger,
	}
	p := logging.Start(logger)
	res, err := r.Resolve(ctx, found.Candidates)
	if err != nil {
		return err
	}
	p.Done("queried package managers", "found", res.FoundNames(), "missing", len(res.NotFound))

	format, _ := output.ParseFormat(cfg.Format)
	report := &output.Report{
		Root:       absDir,
		Raw:        found.Raw,
		Includes:   found.Includes,
		External:   found.External,
		Candidates: found.Candidates,
		Skipped:    found.Skipped,
		Resolution: res,
	}
	if err := writeReport(stdout, o.output, format, report); err != nil {
		return err
	}
	if o.output != "-" && o.output != "" {
		logger.Info("report written", "path", o.output)
	}

	if cfg.Cleanup {
		r.Cleanup(ctx, res)
	}
	return nil
}

// findCandidates scans absDir and turns its includes into package names.
func findCandidates(ctx context.Context, cfg *config.Config, absDir string) (*includes.Result, error) {
	logger := logging.FromContext(ctx)

	p := logging.Start(logger)
	scan, err := scanner.New(scanner.Options{
		Workers: cfg.Scan.Workers,
		Exclude: cfg.Scan.Exclude,
	}, logger).ScanDir(ctx, absDir)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	p.Done("scanned source tree", "files", len(scan.Files))

	policy, _ := includes.ParsePolicy(cfg.Extract.OnMalformed)
	pipeline := &includes.Pipeline{
		Table:       fingerprints.Default().With(cfg.Extract.ExtraHeaders...),
		OnMalformed: policy,
		Logger:      logger,
	}
	found, err := pipeline.Run(scan)
	if err != nil {
		return nil, err
	}
	logger.Debug("include analysis",
		"raw", len(found.Raw), "external", len(found.External),
		"remaining", len(found.Remaining), "candidates", found.Candidates,
		"unreadable", found.Unreadable)
	return found, nil
}

func writeReport(stdout io.Writer, path string, format output.Format, report *output.Report) error {
	if path == "-" || path == "" {
		return output.Write(stdout, format, report)
	}
	if err := output.WriteFile(path, format, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
