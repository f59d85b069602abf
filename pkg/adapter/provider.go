package adapter

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// Block types of a conversation transcript.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// ContentBlock is one element of a message: free text, a tool invocation
// requested by the model, or a tool result fed back to it.
type ContentBlock struct {
	Type string `json:"type"`

	// BlockText
	Text string `json:"text,omitempty"`

	// BlockToolUse
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// BlockToolResult
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// Message is one turn of the transcript.
type Message struct {
	Role    string         `json:"role"` // "user" or "assistant"
	Content []ContentBlock `json:"content"`
}

// ToolSpec describes a callable tool advertised to the model.
type ToolSpec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// GenerateRequest is one round-trip to the model provider.
type GenerateRequest struct {
	Model     string
	MaxTokens int
	System    string
	Messages  []Message
	Tools     []ToolSpec
}

// GenerateResponse carries the model's content blocks and the concrete model
// version that served the request.
type GenerateResponse struct {
	Content    []ContentBlock
	Model      string
	StopReason string
}

// HasToolUse reports whether any block requests a tool invocation.
func (r *GenerateResponse) HasToolUse() bool {
	for _, b := range r.Content {
		if b.Type == BlockToolUse {
			return true
		}
	}
	return false
}

// Text concatenates all text blocks.
func (r *GenerateResponse) Text() string {
	out := ""
	for _, b := range r.Content {
		if b.Type == BlockText {
			if out != "" {
				out += "\n"
			}
			out += b.Text
		}
	}
	return out
}

// Provider is the model-provider interface: one request/response call per
// round, no streaming.
type Provider interface {
	// Kind returns the provider family name recorded in the run result.
	Kind() string

	// Generate sends the transcript and tool schemas, returning content
	// blocks (text and/or tool-use requests).
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}
