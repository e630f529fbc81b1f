package engine

import (
	"encoding/json"
	"time"
)

// Status is the normalized outcome of running an operation.
type Status string

// Engine response statuses. Exactly one is reached per run.
const (
	// StatusSuccess indicates the worker delivered a result message.
	StatusSuccess Status = "SUCCESS"

	// StatusError indicates the worker crashed, violated the message
	// protocol, or exited without delivering a result.
	StatusError Status = "ERROR"

	// StatusTimeout indicates the run timeout fired before any terminal
	// worker event. Timeouts are expected outcomes, not failures.
	StatusTimeout Status = "TIMEOUT"
)

// emptyPayload is the response payload synthesized when the worker produced
// none (timeout and error branches).
var emptyPayload = json.RawMessage(`{}`)

// Response is the normalized result of running an operation: a status plus
// an opaque payload owned by the operation's domain.
type Response struct {
	Status   Status          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// Result wraps an engine response with elapsed wall time and the output the
// worker emitted while running. One Result is produced per Execute call.
type Result struct {
	// RunID uniquely identifies this execution attempt.
	RunID string

	// Response is the terminal engine response, synthesized by the engine
	// when the worker failed to produce one.
	Response Response

	// Duration is the wall time from spawn to terminal resolution.
	Duration time.Duration

	// Stdout is the accumulated standard-output text, in arrival order.
	Stdout string

	// Stderr is the accumulated standard-error text, in arrival order.
	// Ordering between Stdout and Stderr is not guaranteed.
	Stderr string
}

// Seconds reports the elapsed wall time in fractional seconds.
func (r *Result) Seconds() float64 {
	return r.Duration.Seconds()
}

// Success returns true if the worker completed normally.
func (r *Result) Success() bool {
	return r.Response.Status == StatusSuccess
}
