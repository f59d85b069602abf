package model

import (
	"encoding/json"
	"time"
)

// RunRecord is one persisted run in the local history store. Result holds
// the full RunResult document as emitted, so `history show` reproduces the
// exact output line.
type RunRecord struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	ProjectID string          `json:"project_id"`
	Query     string          `json:"query"`
	Success   bool            `json:"success"`
	Answer    *string         `json:"answer"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}
