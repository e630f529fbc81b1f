package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/victoralfred/gowritter/safepath"
)

// AuditLogger records an immutable trail of sandbox lifecycle events.
type AuditLogger interface {
	// Log logs an audit event.
	Log(ctx context.Context, event *AuditEvent) error

	// Query queries audit events.
	Query(ctx context.Context, filter *AuditFilter) ([]*AuditEvent, error)

	// Close closes the audit logger.
	Close() error
}

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// AuditEventSetup is a cache setup event.
	AuditEventSetup AuditEventType = "setup"

	// AuditEventRun is an operation run event.
	AuditEventRun AuditEventType = "run"

	// AuditEventCleanup is a between-run cleanup event.
	AuditEventCleanup AuditEventType = "cleanup"
)

// AuditEvent represents an audit log entry.
type AuditEvent struct {
	Timestamp     time.Time      `json:"timestamp"`
	Type          AuditEventType `json:"type"`
	BoxID         string         `json:"box_id"`
	RunID         string         `json:"run_id,omitempty"`
	OperationType string         `json:"operation_type,omitempty"`
	CacheKey      string         `json:"cache_key,omitempty"`
	Status        string         `json:"status,omitempty"`
	Duration      time.Duration  `json:"duration,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// AuditFilter filters audit events.
type AuditFilter struct {
	// BoxID filters by sandbox slot.
	BoxID string

	// Type filters by event type.
	Type AuditEventType

	// Limit is the maximum number of events to return.
	Limit int
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled  bool
	BasePath string
	FilePath string
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:  false,
		BasePath: "/var/log",
		FilePath: "runbox/audit.log",
	}
}

// fileAuditLogger implements AuditLogger using gowritter.
type fileAuditLogger struct {
	safePath *safepath.SafePath
	config   AuditConfig
	mu       sync.Mutex
}

// NewFileAuditLogger creates a new file-based audit logger.
func NewFileAuditLogger(config AuditConfig) (AuditLogger, error) {
	sp, err := safepath.New(config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	return &fileAuditLogger{
		config:   config,
		safePath: sp,
	}, nil
}

// Log implements AuditLogger.Log.
func (l *fileAuditLogger) Log(ctx context.Context, event *AuditEvent) error {
	if !l.config.Enabled {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.safePath.AppendFile(l.config.FilePath, data, 0o644); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}

	return nil
}

// Query implements AuditLogger.Query.
func (l *fileAuditLogger) Query(ctx context.Context, filter *AuditFilter) ([]*AuditEvent, error) {
	l.mu.Lock()
	data, err := l.safePath.ReadFile(l.config.FilePath)
	l.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	var events []*AuditEvent
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var event AuditEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if filter != nil {
			if filter.BoxID != "" && event.BoxID != filter.BoxID {
				continue
			}
			if filter.Type != "" && event.Type != filter.Type {
				continue
			}
			if filter.Limit > 0 && len(events) >= filter.Limit {
				break
			}
		}
		events = append(events, &event)
	}

	return events, nil
}

// Close implements AuditLogger.Close.
func (l *fileAuditLogger) Close() error {
	return nil
}
