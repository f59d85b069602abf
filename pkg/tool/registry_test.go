package tool_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/pajamadot/recall/pkg/tool"
)

type fakeTool struct {
	name    string
	payload any
	err     error
	calls   int
}

func (f *fakeTool) Spec() adapter.ToolSpec {
	return adapter.ToolSpec{
		Name:        f.name,
		Description: "fake",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}
}

func (f *fakeTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	f.calls++
	return f.payload, f.err
}

func TestDispatchSuccess(t *testing.T) {
	ft := &fakeTool{name: "echo", payload: map[string]any{"value": 42}}
	registry := tool.New(ft)

	result := registry.Dispatch(context.Background(), "echo", nil)
	gt.False(t, result.IsError())
	gt.Equal(t, ft.calls, 1)

	var decoded map[string]any
	gt.NoError(t, json.Unmarshal([]byte(result.Content()), &decoded))
	gt.Equal(t, decoded["ok"], true)
	gt.Equal(t, decoded["data"].(map[string]any)["value"], any(float64(42)))
}

func TestDispatchToolFailureBecomesErrorResult(t *testing.T) {
	ft := &fakeTool{name: "broken", err: goerr.New("asset is not readable yet")}
	registry := tool.New(ft)

	result := registry.Dispatch(context.Background(), "broken", map[string]any{"x": 1})
	gt.True(t, result.IsError())

	var decoded map[string]any
	gt.NoError(t, json.Unmarshal([]byte(result.Content()), &decoded))
	gt.Equal(t, decoded["ok"], false)
	gt.S(t, decoded["error"].(string)).Contains("not readable")
}

func TestDispatchUnknownTool(t *testing.T) {
	registry := tool.New(&fakeTool{name: "known"})

	result := registry.Dispatch(context.Background(), "nope", nil)
	gt.True(t, result.IsError())
	gt.S(t, result.ErrMsg).Contains("unknown tool")
}

func TestSpecsKeepRegistrationOrder(t *testing.T) {
	registry := tool.New(
		&fakeTool{name: "b"},
		&fakeTool{name: "a"},
		&fakeTool{name: "c"},
	)

	specs := registry.Specs()
	gt.A(t, specs).Length(3)
	gt.Equal(t, specs[0].Name, "b")
	gt.Equal(t, specs[1].Name, "a")
	gt.Equal(t, specs[2].Name, "c")
	gt.Equal(t, registry.Names(), []string{"b", "a", "c"})
}
