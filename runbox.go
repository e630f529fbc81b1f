package runbox

import (
	"context"
	"encoding/json"

	"github.com/victoralfred/runbox/config"
	"github.com/victoralfred/runbox/engine"
	"github.com/victoralfred/runbox/sandbox"
)

// =============================================================================
// Core Types
// =============================================================================

// Sandbox is a reusable filesystem-backed execution slot. Use New to
// create one.
type Sandbox = sandbox.Sandbox

// Option configures a Sandbox.
type Option = sandbox.Option

// Config is the main configuration for runbox.
type Config = config.Config

// Engine executes operations in isolated workers.
type Engine = engine.Engine

// Result wraps an engine response with elapsed wall time and captured
// worker output.
type Result = engine.Result

// Response is the normalized result of running an operation.
type Response = engine.Response

// Status is the terminal outcome of a run.
type Status = engine.Status

// Run statuses.
const (
	StatusSuccess = engine.StatusSuccess
	StatusError   = engine.StatusError
	StatusTimeout = engine.StatusTimeout
)

// =============================================================================
// Error Variables
// =============================================================================

// Common errors returned by the library.
var (
	// ErrCacheNotReady indicates RunOperation preceded a successful
	// SetupCache.
	ErrCacheNotReady = sandbox.ErrCacheNotReady

	// ErrSpawnFailed indicates the worker process could not be started.
	ErrSpawnFailed = engine.ErrSpawnFailed

	// ErrProtocol indicates the worker violated the message protocol.
	ErrProtocol = engine.ErrProtocol
)

// =============================================================================
// Factory Functions
// =============================================================================

// New creates a sandbox slot for boxID with the given configuration.
//
// Example:
//
//	box, err := runbox.New("abc", runbox.DefaultConfig())
func New(boxID string, cfg Config, opts ...Option) (*Sandbox, error) {
	return sandbox.New(boxID, cfg, opts...)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return config.DefaultConfig()
}

// LoadConfig reads a YAML configuration file relative to basePath and
// layers environment overrides on top.
func LoadConfig(basePath, file string) (Config, error) {
	cfg, err := config.Load(basePath, file)
	if err != nil {
		return cfg, err
	}
	return config.FromEnv(cfg)
}

// LoadConfigFromEnv layers environment overrides onto the defaults, for
// deployments with no configuration file.
func LoadConfigFromEnv() (Config, error) {
	return config.FromEnv(config.DefaultConfig())
}

// =============================================================================
// Convenience Functions
// =============================================================================

// Run is a convenience function for a one-off operation: it prepares the
// slot from the snapshot, executes the operation, and cleans up. For
// repeated executions against the same slot, create a Sandbox instead.
func Run(ctx context.Context, boxID, cacheKey, cacheSource, operationType string, operation json.RawMessage) (*Result, error) {
	box, err := New(boxID, DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := box.SetupCache(ctx, cacheKey, cacheSource); err != nil {
		return nil, err
	}
	defer box.CleanUp(ctx)

	return box.RunOperation(ctx, operationType, operation)
}

// Version returns the library version.
func Version() string {
	return "1.0.0"
}
