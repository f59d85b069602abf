package adapter

import (
	"context"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
)

const (
	defaultClaudeBaseURL = "https://api.anthropic.com"
	defaultClaudeModel   = "claude-sonnet-4-5"
	anthropicVersion     = "2023-06-01"
)

// ClaudeClient implements Provider against the Anthropic Messages API.
type ClaudeClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// ClaudeOption configures a ClaudeClient.
type ClaudeOption func(*ClaudeClient)

// WithClaudeModel overrides the default model.
func WithClaudeModel(model string) ClaudeOption {
	return func(c *ClaudeClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithClaudeBaseURL overrides the API endpoint, mainly for tests.
func WithClaudeBaseURL(baseURL string) ClaudeOption {
	return func(c *ClaudeClient) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithClaudeHTTPClient overrides the underlying HTTP client.
func WithClaudeHTTPClient(hc *http.Client) ClaudeOption {
	return func(c *ClaudeClient) {
		c.client = hc
	}
}

// NewClaude creates a Claude provider client.
func NewClaude(apiKey string, opts ...ClaudeOption) (*ClaudeClient, error) {
	if apiKey == "" {
		return nil, goerr.New("claude API key is required")
	}

	c := &ClaudeClient{
		apiKey:  apiKey,
		baseURL: defaultClaudeBaseURL,
		model:   defaultClaudeModel,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *ClaudeClient) Kind() string { return "claude" }

// Wire shapes for the Messages API. ContentBlock is not marshaled directly
// because each block type carries only its own fields on the wire.
type claudeTextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeToolUseBlock struct {
	Type  string         `json:"type"`
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

type claudeToolResultBlock struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content []any  `json:"content"`
}

type claudeTool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []claudeMessage `json:"messages"`
	Tools     []claudeTool    `json:"tools,omitempty"`
}

type claudeResponse struct {
	Content    []ContentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
}

func (c *ClaudeClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	wire := claudeRequest{
		Model:     model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
	}
	for _, msg := range req.Messages {
		wire.Messages = append(wire.Messages, toClaudeMessage(msg))
	}
	for _, t := range req.Tools {
		wire.Tools = append(wire.Tools, claudeTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}

	header := http.Header{}
	header.Set("x-api-key", c.apiKey)
	header.Set("anthropic-version", anthropicVersion)

	var resp claudeResponse
	err := requestJSON(ctx, c.client, &httpRequest{
		Method: http.MethodPost,
		URL:    c.baseURL + "/v1/messages",
		Header: header,
		Body:   wire,
	}, &resp)
	if err != nil {
		return nil, goerr.Wrap(err, "claude request failed", goerr.V("model", model))
	}

	return &GenerateResponse{
		Content:    resp.Content,
		Model:      resp.Model,
		StopReason: resp.StopReason,
	}, nil
}

func toClaudeMessage(msg Message) claudeMessage {
	out := claudeMessage{Role: msg.Role}
	for _, b := range msg.Content {
		switch b.Type {
		case BlockText:
			out.Content = append(out.Content, claudeTextBlock{Type: BlockText, Text: b.Text})
		case BlockToolUse:
			input := b.Input
			if input == nil {
				input = map[string]any{}
			}
			out.Content = append(out.Content, claudeToolUseBlock{
				Type: BlockToolUse, ID: b.ID, Name: b.Name, Input: input,
			})
		case BlockToolResult:
			out.Content = append(out.Content, claudeToolResultBlock{
				Type: BlockToolResult, ToolUseID: b.ToolUseID,
				Content: b.Content, IsError: b.IsError,
			})
		}
	}
	return out
}
