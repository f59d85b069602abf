package model

import "time"

// Progress event types emitted on the progress sink.
const (
	EventRunStart   = "run_start"
	EventSeedDone   = "seed_done"
	EventRoundStart = "round_start"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventAnswer     = "answer"
	EventFallback   = "fallback"
	EventRunError   = "run_error"
	EventRunDone    = "run_done"
)

// ProgressEvent is one observability record, serialized as a single JSON
// line. Losing these events must never affect run correctness.
type ProgressEvent struct {
	Time      time.Time      `json:"time"`
	Type      string         `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}
