// Package config provides configuration management for runbox.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/victoralfred/gowritter/safepath"
	"gopkg.in/yaml.v3"

	"github.com/victoralfred/runbox/limits"
	"github.com/victoralfred/runbox/observability"
	"github.com/victoralfred/runbox/validation"
)

// Environment variable names recognized by FromEnv.
const (
	EnvMemoryLimitBytes = "RUNBOX_MEMORY_LIMIT_BYTES"
	EnvCacheRoot        = "RUNBOX_CACHE_ROOT"
	EnvRunTimeoutMS     = "RUNBOX_RUN_TIMEOUT_MS"
	EnvRuntime          = "RUNBOX_RUNTIME"
)

// Defaults applied by DefaultConfig and Validate.
const (
	DefaultMemoryLimitBytes = 512 * 1024 * 1024
	DefaultCacheRoot        = "cache"
	DefaultRunTimeoutMS     = 30_000
	DefaultRuntime          = "node"
)

// Config is the main configuration for runbox.
type Config struct {
	// MemoryLimitBytes is the byte-valued memory limit from which the
	// worker memory ceiling is derived.
	MemoryLimitBytes int64 `yaml:"memory_limit_bytes"`

	// CacheRoot is the directory under which sandbox working directories
	// live. Falls back to a local default when unset.
	CacheRoot string `yaml:"cache_root"`

	// RunTimeoutMS is the sandbox run timeout in milliseconds.
	RunTimeoutMS int `yaml:"run_timeout_ms"`

	// Runtime is the worker runtime binary.
	Runtime string `yaml:"runtime"`

	// OldGenMB, YoungGenMB and StackMB override the derived worker memory
	// bounds individually. When zero, the bound derived from
	// MemoryLimitBytes applies, so a single setting yields the same
	// effective ceiling on all three.
	OldGenMB   int `yaml:"old_gen_mb"`
	YoungGenMB int `yaml:"young_gen_mb"`
	StackMB    int `yaml:"stack_mb"`

	// EngineFiles overrides the cleanup allow-list. When empty the
	// default engine files set applies.
	EngineFiles []string `yaml:"engine_files"`

	Telemetry observability.TelemetryConfig `yaml:"telemetry"`
	Audit     observability.AuditConfig     `yaml:"audit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MemoryLimitBytes: DefaultMemoryLimitBytes,
		CacheRoot:        DefaultCacheRoot,
		RunTimeoutMS:     DefaultRunTimeoutMS,
		Runtime:          DefaultRuntime,
		Telemetry:        observability.DefaultTelemetryConfig(),
		Audit:            observability.DefaultAuditConfig(),
	}
}

// Load reads a YAML configuration file relative to basePath, layered over
// the defaults.
func Load(basePath, file string) (Config, error) {
	cfg := DefaultConfig()

	sp, err := safepath.New(basePath)
	if err != nil {
		return cfg, fmt.Errorf("creating safe path: %w", err)
	}

	data, err := sp.ReadFile(file)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config YAML: %w", err)
	}

	return cfg, cfg.Validate()
}

// FromEnv layers environment overrides onto cfg. A .env file in the working
// directory is honored when present; real environment variables win over it.
func FromEnv(cfg Config) (Config, error) {
	// Missing .env files are fine; only explicit overrides matter.
	_ = godotenv.Load()

	if v := os.Getenv(EnvMemoryLimitBytes); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", EnvMemoryLimitBytes, err)
		}
		cfg.MemoryLimitBytes = n
	}
	if v := os.Getenv(EnvCacheRoot); v != "" {
		cfg.CacheRoot = v
	}
	if v := os.Getenv(EnvRunTimeoutMS); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", EnvRunTimeoutMS, err)
		}
		cfg.RunTimeoutMS = n
	}
	if v := os.Getenv(EnvRuntime); v != "" {
		cfg.Runtime = v
	}

	return cfg, cfg.Validate()
}

// Validate validates the configuration, clamping absent values to defaults.
func (c *Config) Validate() error {
	if c.MemoryLimitBytes <= 0 {
		c.MemoryLimitBytes = DefaultMemoryLimitBytes
	}
	if c.CacheRoot == "" {
		c.CacheRoot = DefaultCacheRoot
	}
	if c.RunTimeoutMS <= 0 {
		c.RunTimeoutMS = DefaultRunTimeoutMS
	}
	if c.Runtime == "" {
		c.Runtime = DefaultRuntime
	}
	if !validation.IsPathSafe(c.CacheRoot) {
		return fmt.Errorf("config: unsafe cache root %q", c.CacheRoot)
	}
	if c.OldGenMB < 0 || c.YoungGenMB < 0 || c.StackMB < 0 {
		return fmt.Errorf("config: memory bounds must not be negative")
	}
	return nil
}

// RunTimeout returns the run timeout as a duration.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutMS) * time.Millisecond
}

// WorkerLimits derives the worker memory bounds: the single memory limit
// fills every bound, and per-bound overrides replace individual values.
func (c *Config) WorkerLimits() limits.WorkerLimits {
	l := limits.FromBytes(c.MemoryLimitBytes)
	if c.OldGenMB > 0 {
		l.OldGenMB = c.OldGenMB
	}
	if c.YoungGenMB > 0 {
		l.YoungGenMB = c.YoungGenMB
	}
	if c.StackMB > 0 {
		l.StackMB = c.StackMB
	}
	return l
}
