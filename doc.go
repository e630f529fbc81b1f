// Package runbox provides a sandboxed execution engine for untrusted
// operations.
//
// RunBox runs one operation at a time inside an isolated worker process
// with enforced memory ceilings and a wall-clock timeout, backed by a
// filesystem cache that supplies the worker's dependency tree. It
// coordinates three independently failing concerns: cache materialization,
// resource-limited execution, and the race between worker completion and
// the run timer, while guaranteeing that no state leaks between successive
// operations executed in the same sandbox slot.
//
// # Key Features
//
//   - Reusable sandbox slots keyed by an opaque boxId
//   - Snapshot materialization skipped when the cache key is unchanged
//   - Between-run cleanup preserving only the engine files allow-list
//   - One isolated worker per operation, first terminal event wins
//   - Structured results for success, error and timeout alike
//   - OpenTelemetry metrics and JSON-line audit logging
//
// # Basic Usage
//
//	cfg := runbox.DefaultConfig()
//	box, err := runbox.New("abc", cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := box.SetupCache(ctx, snapshotKey, snapshotPath); err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := box.RunOperation(ctx, "workflow", payload)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Response.Status, result.Stdout)
//
//	box.CleanUp(ctx)
//
// # Concurrency Model
//
// Different slots are fully independent and may run concurrently. Calls
// against one slot must be serialized by the caller: SetupCache,
// RunOperation and CleanUp for a given boxId never overlap. Scheduling and
// admission across operations belong to the caller, not this library.
//
// # Package Structure
//
//   - runbox: main entry point and convenience functions
//   - sandbox: slot lifecycle facade and retention filter
//   - engine: isolated worker execution and the message protocol
//   - cache: dependency snapshot materialization
//   - limits: worker memory ceilings
//   - config: configuration loading and validation
//   - observability: OpenTelemetry metrics and audit logging
//   - hooks: extension points for the run lifecycle
//   - validation: boxId and path sanitization
package runbox
