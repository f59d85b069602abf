package model

// ProviderInfo identifies which model provider served a run. Model is empty
// until the provider has disclosed the concrete model version.
type ProviderInfo struct {
	Kind  string `json:"kind"`
	Model string `json:"model,omitempty"`
}

// RunResult is the single machine-readable artifact of a run. Exactly one of
// these is emitted per process, even on fatal failure.
type RunResult struct {
	Success   bool         `json:"success"`
	SessionID string       `json:"sessionId"`
	ProjectID string       `json:"projectId"`
	Query     string       `json:"query"`
	Provider  ProviderInfo `json:"provider"`
	Retrieved *EvidenceSet `json:"retrieved"`
	Answer    *string      `json:"answer"`
	Notes     []string     `json:"notes"`
	Error     string       `json:"error,omitempty"`
}
