package engine

import "encoding/json"

// Worker message types on the structured output channel.
const (
	messageStdout = "stdout"
	messageStderr = "stderr"
	messageResult = "result"
)

// workerInput is the initial input delivered to the worker on stdin.
type workerInput struct {
	OperationType string          `json:"operationType"`
	Operation     json.RawMessage `json:"operation"`
}

// workerMessage is one newline-delimited JSON message emitted by the worker.
// For stdout/stderr messages the payload is a text chunk; for the terminal
// result message it is an engine response.
type workerMessage struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
}

// eventKind discriminates events competing for the terminal outcome.
type eventKind int

const (
	eventStdout eventKind = iota
	eventStderr
	eventResult
	eventFailure
	eventExit
)

// event is one occurrence in the race between worker messages, worker
// failure, and worker exit. The run timer competes separately in the
// Execute select loop.
type event struct {
	kind eventKind
	text string
	resp Response
	err  error
}
