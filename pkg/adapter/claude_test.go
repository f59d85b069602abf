package adapter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/gt"
	"github.com/pajamadot/recall/pkg/adapter"
)

func TestClaudeGenerate(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/v1/messages")
		gt.Equal(t, r.Header.Get("x-api-key"), "key")
		gt.Equal(t, r.Header.Get("anthropic-version"), "2023-06-01")
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_, _ = w.Write([]byte(`{
			"content": [
				{"type":"text","text":"let me check"},
				{"type":"tool_use","id":"tu_1","name":"search_evidence","input":{"query":"crash"}}
			],
			"model": "claude-sonnet-4-5-20250929",
			"stop_reason": "tool_use"
		}`))
	}))
	defer srv.Close()

	client, err := adapter.NewClaude("key", adapter.WithClaudeBaseURL(srv.URL))
	gt.NoError(t, err)
	gt.Equal(t, client.Kind(), "claude")

	resp, err := client.Generate(context.Background(), &adapter.GenerateRequest{
		MaxTokens: 512,
		System:    "answer from evidence only",
		Messages: []adapter.Message{
			{Role: "user", Content: []adapter.ContentBlock{{Type: adapter.BlockText, Text: "why did PIE crash"}}},
		},
		Tools: []adapter.ToolSpec{
			{
				Name:        "search_evidence",
				Description: "search the memory pool",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"query": {Type: "string"},
					},
					Required: []string{"query"},
				},
			},
		},
	})
	gt.NoError(t, err)

	gt.Equal(t, gotBody["model"], "claude-sonnet-4-5")
	gt.Equal(t, gotBody["max_tokens"], any(float64(512)))
	gt.Equal(t, gotBody["system"], "answer from evidence only")
	tools := gotBody["tools"].([]any)
	gt.A(t, tools).Length(1)
	tool := tools[0].(map[string]any)
	gt.Equal(t, tool["name"], "search_evidence")
	gt.NotNil(t, tool["input_schema"])

	gt.Equal(t, resp.Model, "claude-sonnet-4-5-20250929")
	gt.True(t, resp.HasToolUse())
	gt.Equal(t, resp.Text(), "let me check")
	gt.A(t, resp.Content).Length(2)
	gt.Equal(t, resp.Content[1].Name, "search_evidence")
	gt.Equal(t, resp.Content[1].Input["query"], "crash")
}

func TestClaudeToolResultWireShape(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"done"}],"model":"m","stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	client, err := adapter.NewClaude("key", adapter.WithClaudeBaseURL(srv.URL))
	gt.NoError(t, err)

	_, err = client.Generate(context.Background(), &adapter.GenerateRequest{
		MaxTokens: 128,
		Messages: []adapter.Message{
			{Role: "assistant", Content: []adapter.ContentBlock{
				{Type: adapter.BlockToolUse, ID: "tu_1", Name: "list_assets", Input: map[string]any{}},
			}},
			{Role: "user", Content: []adapter.ContentBlock{
				{Type: adapter.BlockToolResult, ToolUseID: "tu_1", Name: "list_assets", Content: `{"ok":false,"error":"boom"}`, IsError: true},
			}},
		},
	})
	gt.NoError(t, err)

	messages := gotBody["messages"].([]any)
	gt.A(t, messages).Length(2)

	toolResult := messages[1].(map[string]any)["content"].([]any)[0].(map[string]any)
	gt.Equal(t, toolResult["type"], "tool_result")
	gt.Equal(t, toolResult["tool_use_id"], "tu_1")
	gt.Equal(t, toolResult["is_error"], true)
	// the tool name is transcript-internal and must not leak onto the wire
	_, hasName := toolResult["name"]
	gt.False(t, hasName)
}

func TestClaudeModelOverrideCarriesForward(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel = body["model"].(string)
		_, _ = w.Write([]byte(`{"content":[],"model":"m","stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	client, err := adapter.NewClaude("key", adapter.WithClaudeBaseURL(srv.URL), adapter.WithClaudeModel("claude-opus-4-1"))
	gt.NoError(t, err)

	_, err = client.Generate(context.Background(), &adapter.GenerateRequest{
		MaxTokens: 128,
		Model:     "claude-sonnet-4-5-20250929",
	})
	gt.NoError(t, err)
	gt.Equal(t, gotModel, "claude-sonnet-4-5-20250929")
}
