// Package engine spawns isolated worker processes that run one untrusted
// operation each, enforcing memory ceilings and a wall-clock timeout.
//
// A worker is an external runtime invoked with the sandbox entry module as
// its argument. It receives the operation as a JSON document on stdin and
// emits newline-delimited JSON messages on stdout: zero or more stdout and
// stderr text chunks, and exactly one terminal result message on the
// success path. The engine races worker messages against the run timer;
// the first terminal event wins and all later events are suppressed.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/victoralfred/runbox/internal/envutil"
	"github.com/victoralfred/runbox/limits"
)

// Defaults for engine construction.
const (
	// DefaultRuntime is the worker runtime binary.
	DefaultRuntime = "node"

	// DefaultTimeout is the sandbox run timeout.
	DefaultTimeout = 30 * time.Second
)

// maxMessageBytes bounds a single worker message line.
const maxMessageBytes = 8 * 1024 * 1024

// Telemetry provides tracing for engine runs. Run metrics are recorded by
// the caller from the returned result, so each run yields exactly one
// duration sample.
type Telemetry interface {
	// StartSpan starts a new trace span.
	StartSpan(ctx context.Context, name string) (context.Context, func())
}

// Engine executes operations in isolated workers. One worker is spawned per
// Execute call; no retries are performed at this layer.
type Engine struct {
	runtime     string
	timeout     time.Duration
	limits      limits.WorkerLimits
	env         map[string]string
	keepPartial bool
	logger      *zap.Logger
	telemetry   Telemetry
}

// Builder creates configured Engine instances.
type Builder struct {
	runtime     string
	timeout     time.Duration
	limits      limits.WorkerLimits
	env         map[string]string
	keepPartial bool
	logger      *zap.Logger
	telemetry   Telemetry
}

// NewBuilder creates a new engine builder.
func NewBuilder() *Builder {
	return &Builder{
		runtime: DefaultRuntime,
		timeout: DefaultTimeout,
	}
}

// WithRuntime sets the worker runtime binary.
func (b *Builder) WithRuntime(runtime string) *Builder {
	b.runtime = runtime
	return b
}

// WithTimeout sets the sandbox run timeout.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithLimits sets the worker memory ceilings.
func (b *Builder) WithLimits(l limits.WorkerLimits) *Builder {
	b.limits = l
	return b
}

// WithEnv adds environment variables for the worker on top of the minimal
// environment and the limit variables.
func (b *Builder) WithEnv(env map[string]string) *Builder {
	b.env = env
	return b
}

// WithPartialOutputOnTimeout preserves accumulated stdout/stderr on the
// timeout branch instead of discarding it. Off by default: a timed-out run
// reports empty output.
func (b *Builder) WithPartialOutputOnTimeout(keep bool) *Builder {
	b.keepPartial = keep
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithTelemetry sets the telemetry provider.
func (b *Builder) WithTelemetry(t Telemetry) *Builder {
	b.telemetry = t
	return b
}

// Build creates the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.runtime == "" {
		return nil, fmt.Errorf("engine: runtime binary is required")
	}
	if b.timeout <= 0 {
		return nil, fmt.Errorf("engine: timeout must be positive")
	}
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		runtime:     b.runtime,
		timeout:     b.timeout,
		limits:      b.limits,
		env:         b.env,
		keepPartial: b.keepPartial,
		logger:      logger,
		telemetry:   b.telemetry,
	}, nil
}

// Execute spawns a worker bound to entryPath, delivers the operation, and
// resolves exactly once with one of success, error, or timeout. Timeout and
// worker failure are reported as structured results, never as errors; the
// returned error is non-nil only when the worker could not be spawned or
// the context was canceled.
func (e *Engine) Execute(ctx context.Context, entryPath, operationType string, operation json.RawMessage) (*Result, error) {
	runID := uuid.New().String()

	if e.telemetry != nil {
		var end func()
		ctx, end = e.telemetry.StartSpan(ctx, "engine.Execute")
		defer end()
	}

	cmd := exec.Command(e.runtime, entryPath)
	cmd.Dir = filepath.Dir(entryPath)
	workerEnv := envutil.MergeEnvironment(envutil.MinimalEnvironment(), e.limits.Environ())
	workerEnv = envutil.MergeEnvironment(workerEnv, e.env)
	cmd.Env = envutil.BuildList(workerEnv)
	cmd.SysProcAttr = spawnAttr()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return e.spawnFailure(runID, entryPath, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return e.spawnFailure(runID, entryPath, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return e.spawnFailure(runID, entryPath, err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return e.spawnFailure(runID, entryPath, err)
	}

	e.logger.Debug("worker spawned",
		zap.String("run_id", runID),
		zap.String("entry", entryPath),
		zap.Int("pid", cmd.Process.Pid))

	go writeInput(stdin, operationType, operation)

	events := make(chan event)
	var readers sync.WaitGroup
	readers.Add(2)
	go readMessages(stdout, events, &readers)
	go readStderr(stderr, events, &readers)
	go func() {
		readers.Wait()
		err := cmd.Wait()
		events <- event{kind: eventExit, err: err}
		close(events)
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	var stdoutBuf, stderrBuf strings.Builder
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Exit event is always delivered before close; treat a
				// closed channel as a silent exit regardless.
				return e.finish(runID, start, Response{Status: StatusError, Response: emptyPayload},
					stdoutBuf.String(), stderrBuf.String()), nil
			}
			switch ev.kind {
			case eventStdout:
				stdoutBuf.WriteString(ev.text)
			case eventStderr:
				stderrBuf.WriteString(ev.text)
			case eventResult:
				kill(cmd)
				go drain(events)
				return e.finish(runID, start, ev.resp,
					stdoutBuf.String(), stderrBuf.String()), nil
			case eventFailure:
				e.logger.Warn("worker failed",
					zap.String("run_id", runID),
					zap.Error(ev.err))
				kill(cmd)
				go drain(events)
				return e.finish(runID, start, Response{Status: StatusError, Response: emptyPayload},
					stdoutBuf.String(), stderrBuf.String()), nil
			case eventExit:
				// Exited without delivering a result message.
				if ev.err != nil {
					e.logger.Warn("worker exited without result",
						zap.String("run_id", runID),
						zap.Error(ev.err))
				}
				return e.finish(runID, start, Response{Status: StatusError, Response: emptyPayload},
					stdoutBuf.String(), stderrBuf.String()), nil
			}

		case <-timer.C:
			kill(cmd)
			go drain(events)
			out, errOut := "", ""
			if e.keepPartial {
				out, errOut = stdoutBuf.String(), stderrBuf.String()
			}
			return e.finish(runID, start, Response{Status: StatusTimeout, Response: emptyPayload},
				out, errOut), nil

		case <-ctx.Done():
			kill(cmd)
			go drain(events)
			return e.finish(runID, start, Response{Status: StatusError, Response: emptyPayload},
				stdoutBuf.String(), stderrBuf.String()), ctx.Err()
		}
	}
}

// finish builds the execution result.
func (e *Engine) finish(runID string, start time.Time, resp Response, stdout, stderr string) *Result {
	result := &Result{
		RunID:    runID,
		Response: resp,
		Duration: time.Since(start),
		Stdout:   stdout,
		Stderr:   stderr,
	}

	e.logger.Debug("run resolved",
		zap.String("run_id", runID),
		zap.String("status", string(resp.Status)),
		zap.Float64("seconds", result.Seconds()))

	return result
}

// spawnFailure reports a worker that never started as a structured error
// result alongside the spawn error.
func (e *Engine) spawnFailure(runID, entryPath string, err error) (*Result, error) {
	spawnErr := &SpawnError{Runtime: e.runtime, Entry: entryPath, Err: err}
	result := &Result{
		RunID:    runID,
		Response: Response{Status: StatusError, Response: emptyPayload},
		Stderr:   spawnErr.Error(),
	}
	return result, spawnErr
}

// writeInput delivers the initial worker input on stdin and closes it.
// Write errors are tolerated: a worker that never reads stdin is still a
// valid worker until it fails to produce a result.
func writeInput(stdin io.WriteCloser, operationType string, operation json.RawMessage) {
	defer stdin.Close()
	enc := json.NewEncoder(stdin)
	_ = enc.Encode(workerInput{OperationType: operationType, Operation: operation})
}

// readMessages decodes newline-delimited worker messages from the
// structured output channel and forwards them as events.
func readMessages(r io.Reader, events chan<- event, wg *sync.WaitGroup) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxMessageBytes)

	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var msg workerMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			events <- event{kind: eventFailure, err: fmt.Errorf("%w: %v", ErrProtocol, err)}
			continue
		}

		switch msg.Type {
		case messageStdout, messageStderr:
			var text string
			if err := json.Unmarshal(msg.Message, &text); err != nil {
				events <- event{kind: eventFailure, err: fmt.Errorf("%w: %v", ErrProtocol, err)}
				continue
			}
			kind := eventStdout
			if msg.Type == messageStderr {
				kind = eventStderr
			}
			events <- event{kind: kind, text: text}

		case messageResult:
			var resp Response
			if err := json.Unmarshal(msg.Message, &resp); err != nil {
				events <- event{kind: eventFailure, err: fmt.Errorf("%w: %v", ErrProtocol, err)}
				continue
			}
			if resp.Response == nil {
				resp.Response = emptyPayload
			}
			events <- event{kind: eventResult, resp: resp}

		default:
			events <- event{kind: eventFailure, err: fmt.Errorf("%w: unknown message type %q", ErrProtocol, msg.Type)}
		}
	}

	if err := sc.Err(); err != nil {
		events <- event{kind: eventFailure, err: fmt.Errorf("%w: %v", ErrProtocol, err)}
	}
}

// readStderr folds raw process stderr into the stderr accumulator. Runtime
// crash output (aborts, OOM kills) arrives here rather than as structured
// messages. A read error (oversized line included) ends the stream with a
// note in the accumulator rather than truncating it silently.
func readStderr(r io.Reader, events chan<- event, wg *sync.WaitGroup) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxMessageBytes)
	for sc.Scan() {
		events <- event{kind: eventStderr, text: sc.Text() + "\n"}
	}
	if err := sc.Err(); err != nil {
		events <- event{kind: eventStderr, text: fmt.Sprintf("[stderr read aborted: %v]\n", err)}
	}
}

// drain consumes remaining events after the terminal outcome so the reader
// and waiter goroutines can finish.
func drain(events <-chan event) {
	for range events {
	}
}
