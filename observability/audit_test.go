package observability

import (
	"context"
	"testing"
	"time"
)

func newTestAudit(t *testing.T) AuditLogger {
	t.Helper()
	logger, err := NewFileAuditLogger(AuditConfig{
		Enabled:  true,
		BasePath: t.TempDir(),
		FilePath: "audit.log",
	})
	if err != nil {
		t.Fatalf("NewFileAuditLogger() error = %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

func TestAudit_LogAndQuery(t *testing.T) {
	logger := newTestAudit(t)
	ctx := context.Background()

	events := []*AuditEvent{
		{Timestamp: time.Now(), Type: AuditEventSetup, BoxID: "abc", CacheKey: "deps-v1"},
		{Timestamp: time.Now(), Type: AuditEventRun, BoxID: "abc", RunID: "run-1", Status: "SUCCESS"},
		{Timestamp: time.Now(), Type: AuditEventRun, BoxID: "def", RunID: "run-2", Status: "TIMEOUT"},
		{Timestamp: time.Now(), Type: AuditEventCleanup, BoxID: "abc"},
	}
	for _, e := range events {
		if err := logger.Log(ctx, e); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	got, err := logger.Query(ctx, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("Query(nil) returned %d events, want %d", len(got), len(events))
	}
	if got[1].RunID != "run-1" || got[1].Status != "SUCCESS" {
		t.Errorf("round-tripped event = %+v", got[1])
	}
}

func TestAudit_QueryFilters(t *testing.T) {
	logger := newTestAudit(t)
	ctx := context.Background()

	_ = logger.Log(ctx, &AuditEvent{Type: AuditEventSetup, BoxID: "abc"})
	_ = logger.Log(ctx, &AuditEvent{Type: AuditEventRun, BoxID: "abc"})
	_ = logger.Log(ctx, &AuditEvent{Type: AuditEventRun, BoxID: "def"})

	got, err := logger.Query(ctx, &AuditFilter{BoxID: "abc", Type: AuditEventRun})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 || got[0].BoxID != "abc" {
		t.Errorf("filtered query = %+v, want one event for abc", got)
	}

	got, err = logger.Query(ctx, &AuditFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("limited query returned %d events, want 2", len(got))
	}
}

func TestAudit_DisabledIsNoOp(t *testing.T) {
	logger, err := NewFileAuditLogger(AuditConfig{
		Enabled:  false,
		BasePath: t.TempDir(),
		FilePath: "audit.log",
	})
	if err != nil {
		t.Fatalf("NewFileAuditLogger() error = %v", err)
	}

	if err := logger.Log(context.Background(), &AuditEvent{Type: AuditEventRun}); err != nil {
		t.Errorf("Log() on disabled logger error = %v", err)
	}
	if _, err := logger.Query(context.Background(), nil); err == nil {
		t.Error("Query() found a log file that should not exist")
	}
}
