// Package sandbox composes cache materialization, isolated execution and
// between-run cleanup into one reusable execution slot.
//
// A Sandbox is keyed by an opaque boxId and owns the working directory
// <cacheRoot>/sandbox/<boxId>. Its lifecycle is SetupCache, zero or more
// RunOperation calls, then CleanUp before the slot is reused. Calls against
// one slot must be serialized by the caller; different slots are fully
// independent.
package sandbox

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/victoralfred/runbox/cache"
	"github.com/victoralfred/runbox/config"
	"github.com/victoralfred/runbox/engine"
	"github.com/victoralfred/runbox/hooks"
	"github.com/victoralfred/runbox/observability"
	"github.com/victoralfred/runbox/validation"
)

// Sandbox is a reusable filesystem-backed execution slot.
type Sandbox struct {
	boxID string
	dir   string

	cacheKey    string
	cacheSource string
	ready       bool

	engine    *engine.Engine
	filter    *Filter
	hooks     *hooks.Registry
	logger    *zap.Logger
	telemetry observability.Telemetry
	audit     observability.AuditLogger
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sandbox) { s.logger = logger }
}

// WithTelemetry sets the telemetry provider. It is also handed to the
// engine unless WithEngine supplies a prebuilt one.
func WithTelemetry(t observability.Telemetry) Option {
	return func(s *Sandbox) { s.telemetry = t }
}

// WithAudit sets the audit logger.
func WithAudit(a observability.AuditLogger) Option {
	return func(s *Sandbox) { s.audit = a }
}

// WithHooks sets the run hook registry.
func WithHooks(r *hooks.Registry) Option {
	return func(s *Sandbox) { s.hooks = r }
}

// WithEngine replaces the engine built from the configuration.
func WithEngine(e *engine.Engine) Option {
	return func(s *Sandbox) { s.engine = e }
}

// New creates a sandbox slot for boxID under the configured cache root.
func New(boxID string, cfg config.Config, opts ...Option) (*Sandbox, error) {
	if err := validation.BoxID(boxID); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Sandbox{
		boxID: boxID,
		dir:   filepath.Join(cfg.CacheRoot, "sandbox", boxID),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	if s.telemetry == nil && (cfg.Telemetry.EnableTracing || cfg.Telemetry.EnableMetrics) {
		t, err := observability.NewTelemetry(cfg.Telemetry)
		if err != nil {
			return nil, err
		}
		s.telemetry = t
	}
	if s.audit == nil && cfg.Audit.Enabled {
		a, err := observability.NewFileAuditLogger(cfg.Audit)
		if err != nil {
			return nil, err
		}
		s.audit = a
	}

	if s.engine == nil {
		b := engine.NewBuilder().
			WithRuntime(cfg.Runtime).
			WithTimeout(cfg.RunTimeout()).
			WithLimits(cfg.WorkerLimits()).
			WithLogger(s.logger)
		if s.telemetry != nil {
			b = b.WithTelemetry(s.telemetry)
		}
		eng, err := b.Build()
		if err != nil {
			return nil, err
		}
		s.engine = eng
	}

	keep := cfg.EngineFiles
	if len(keep) == 0 {
		keep = DefaultEngineFiles()
	}
	s.filter = NewFilter(s.dir, keep, s.logger)

	return s, nil
}

// BoxID returns the slot identifier.
func (s *Sandbox) BoxID() string { return s.boxID }

// Dir returns the sandbox working directory.
func (s *Sandbox) Dir() string { return s.dir }

// CacheKey returns the key of the last successful cache setup.
func (s *Sandbox) CacheKey() string { return s.cacheKey }

// SetupCache materializes the dependency snapshot at source into the
// sandbox directory. When key and source are unchanged since the last
// successful setup the directory contents are trusted as-is and nothing is
// copied. Any I/O failure is fatal for the preparation and is returned as a
// SetupError.
func (s *Sandbox) SetupCache(ctx context.Context, key, source string) error {
	if source != "" {
		clean, err := validation.SanitizePath(source)
		if err != nil {
			return &SetupError{BoxID: s.boxID, Err: err}
		}
		source = clean
	}

	changed := !s.ready || key != s.cacheKey || source != s.cacheSource

	sync := cache.NewSynchronizer(s.dir, source, s.logger)
	if err := sync.Sync(ctx, changed); err != nil {
		s.auditEvent(ctx, &observability.AuditEvent{
			Type:     observability.AuditEventSetup,
			CacheKey: key,
			Error:    err.Error(),
		})
		return &SetupError{BoxID: s.boxID, Err: err}
	}

	s.cacheKey = key
	s.cacheSource = source
	s.ready = true

	s.logger.Debug("cache ready",
		zap.String("box_id", s.boxID),
		zap.String("cache_key", key),
		zap.Bool("copied", changed))

	s.auditEvent(ctx, &observability.AuditEvent{
		Type:     observability.AuditEventSetup,
		CacheKey: key,
	})
	return nil
}

// RunOperation executes one operation in an isolated worker bound to the
// sandbox's entry module. It requires a prior successful SetupCache and
// resolves exactly once with a structured result whose status is success,
// error, or timeout.
func (s *Sandbox) RunOperation(ctx context.Context, operationType string, operation json.RawMessage) (*engine.Result, error) {
	if !s.ready {
		return nil, ErrCacheNotReady
	}

	op := &hooks.Operation{Type: operationType, Payload: operation}
	if s.hooks != nil {
		modified, err := s.hooks.RunPre(ctx, op)
		if err != nil {
			return nil, err
		}
		op = modified
	}

	entry := filepath.Join(s.dir, EntryModule)
	result, err := s.engine.Execute(ctx, entry, op.Type, op.Payload)

	if result != nil {
		if s.telemetry != nil {
			s.telemetry.RecordRun(string(result.Response.Status), result.Seconds())
		}
		event := &observability.AuditEvent{
			Type:          observability.AuditEventRun,
			RunID:         result.RunID,
			OperationType: op.Type,
			Status:        string(result.Response.Status),
			Duration:      result.Duration,
		}
		if err != nil {
			event.Error = err.Error()
		}
		s.auditEvent(ctx, event)
	}

	if s.hooks != nil {
		if hookErr := s.hooks.RunPost(ctx, op, result, err); hookErr != nil {
			return result, hookErr
		}
	}

	return result, err
}

// CleanUp deletes everything in the sandbox directory except the engine
// files needed by the next operation. It never fails: deletion errors are
// logged and the offending entries remain as debris.
func (s *Sandbox) CleanUp(ctx context.Context) {
	s.filter.Clean(ctx)
	s.auditEvent(ctx, &observability.AuditEvent{
		Type: observability.AuditEventCleanup,
	})
}

func (s *Sandbox) auditEvent(ctx context.Context, event *observability.AuditEvent) {
	if s.audit == nil {
		return
	}
	event.Timestamp = time.Now()
	event.BoxID = s.boxID
	if err := s.audit.Log(ctx, event); err != nil {
		s.logger.Warn("writing audit event", zap.Error(err))
	}
}
