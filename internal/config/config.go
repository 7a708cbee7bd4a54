// Package config loads cpp-depfinder settings from defaults, a config file,
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/StinkyLord/cpp-depfinder/internal/includes"
	"github.com/StinkyLord/cpp-depfinder/internal/managers"
	"github.com/StinkyLord/cpp-depfinder/internal/output"
)

// Config is the top-level configuration struct.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Bootstrap    bool          `mapstructure:"bootstrap"`
	Cleanup      bool          `mapstructure:"cleanup"`
	Backends     []string      `mapstructure:"backends"`
	Format       string        `mapstructure:"format"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	WorkDir      string        `mapstructure:"workdir"`
	Scan         ScanConfig    `mapstructure:"scan"`
	Extract      ExtractConfig `mapstructure:"extract"`
	Vcpkg        VcpkgConfig   `mapstructure:"vcpkg"`
}

// ScanConfig holds source-tree walking knobs.
type ScanConfig struct {
	Workers int      `mapstructure:"workers"`
	Exclude []string `mapstructure:"exclude"`
}

// ExtractConfig holds include-extraction settings.
type ExtractConfig struct {
	OnMalformed  string   `mapstructure:"on_malformed"`
	ExtraHeaders []string `mapstructure:"extra_headers"`
}

// VcpkgConfig holds settings for the self-managed vcpkg clone.
type VcpkgConfig struct {
	Repo string `mapstructure:"repo"`
}

// Default values.
const (
	DefaultBootstrap    = true
	DefaultCleanup      = false
	DefaultFormat       = string(output.FormatText)
	DefaultOnMalformed  = "fail"
	DefaultScanWorkers  = 0
	DefaultQueryTimeout = time.Duration(0)
	DefaultVcpkgRepo    = managers.DefaultVcpkgRepo
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("scan.workers must be non-negative")
	// ErrInvalidQueryTimeout indicates the query timeout is negative.
	ErrInvalidQueryTimeout = errors.New("query_timeout must be non-negative")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Scan.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.QueryTimeout < 0 {
		return ErrInvalidQueryTimeout
	}

	if _, err := output.ParseFormat(c.Format); err != nil {
		return err
	}

	if _, err := includes.ParsePolicy(c.Extract.OnMalformed); err != nil {
		return err
	}

	for _, b := range c.Backends {
		if _, err := managers.Canonical(b); err != nil {
			return fmt.Errorf("backends: %w", err)
		}
	}

	return nil
}
