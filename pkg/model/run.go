package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Memory retrieval profiles accepted by the knowledge service.
const (
	MemoryModeFast     = "fast"
	MemoryModeBalanced = "balanced"
	MemoryModeDeep     = "deep"
)

// HistoryTurn is one prior conversation turn forwarded by the caller.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RunConfig holds everything a single run needs. It is provided by the
// caller; the run never reads configuration from anywhere else.
type RunConfig struct {
	SessionID string        `json:"session_id"`
	ProjectID string        `json:"project_id"`
	Query     string        `json:"query"`
	History   []HistoryTurn `json:"history,omitempty"`

	// Knowledge service
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`

	// Feature toggles
	DryRun        bool   `json:"dry_run"`        // retrieval only, no synthesis
	IncludeAssets bool   `json:"include_assets"` // seed retrieval includes linked assets
	MemoryMode    string `json:"memory_mode,omitempty"`
	EvidenceLimit int    `json:"evidence_limit,omitempty"`
	MaxTokens     int    `json:"max_tokens,omitempty"`

	// Model provider
	ProviderKind    string `json:"provider_kind,omitempty"` // "claude" or "gemini"
	ProviderModel   string `json:"provider_model,omitempty"`
	ProviderAPIKey  string `json:"provider_api_key,omitempty"`
	ProviderBaseURL string `json:"provider_base_url,omitempty"`
}

// Validate checks the required run parameters. All must be non-empty after
// trimming, otherwise the whole run fails fast.
func (c *RunConfig) Validate() error {
	if strings.TrimSpace(c.SessionID) == "" {
		return goerr.New("session_id is required")
	}
	if strings.TrimSpace(c.ProjectID) == "" {
		return goerr.New("project_id is required")
	}
	if strings.TrimSpace(c.Query) == "" {
		return goerr.New("query is required")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return goerr.New("knowledge service base URL is required")
	}
	return nil
}

// SynthesisDisabled reports whether the conversation loop should be skipped,
// and why.
func (c *RunConfig) SynthesisDisabled() (bool, string) {
	if c.DryRun {
		return true, "synthesis disabled: dry-run requested, retrieval only"
	}
	if strings.TrimSpace(c.ProviderAPIKey) == "" {
		return true, "synthesis disabled: no model credential configured"
	}
	return false, ""
}
