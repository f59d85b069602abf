package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/pajamadot/recall/pkg/utils/logging"
)

// Result is the outcome of one dispatched tool call. It is always well
// formed: failures are carried as an error payload, never as a Go error.
type Result struct {
	Name    string
	Payload any
	ErrMsg  string
}

// IsError reports whether the call failed.
func (r *Result) IsError() bool { return r.ErrMsg != "" }

// Content serializes the result for the transcript.
func (r *Result) Content() string {
	var body any
	if r.IsError() {
		body = map[string]any{"ok": false, "error": r.ErrMsg}
	} else {
		body = map[string]any{"ok": true, "data": r.Payload}
	}

	data, err := json.Marshal(body)
	if err != nil {
		// payloads are built from plain values, so this should not happen
		return fmt.Sprintf(`{"ok":false,"error":"unserializable tool result: %s"}`, err)
	}
	return string(data)
}

// Registry manages the available tools and owns the dispatch boundary: no
// failure inside a tool escapes Dispatch.
type Registry struct {
	tools map[string]Tool
	order []string
}

// New creates a registry with the given tools.
func New(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		spec := t.Spec()
		if _, exists := r.tools[spec.Name]; exists {
			continue
		}
		r.tools[spec.Name] = t
		r.order = append(r.order, spec.Name)
	}
	return r
}

// Specs returns all tool declarations in registration order.
func (r *Registry) Specs() []adapter.ToolSpec {
	specs := make([]adapter.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].Spec())
	}
	return specs
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Dispatch executes the named tool. Validation errors, transport failures and
// business rejections all come back as an error Result; unknown tool names
// are handled the same way.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) *Result {
	t, ok := r.tools[name]
	if !ok {
		return &Result{Name: name, ErrMsg: fmt.Sprintf("unknown tool: %s", name)}
	}

	payload, err := t.Execute(ctx, args)
	if err != nil {
		logging.From(ctx).Debug("tool call failed", "tool", name, "error", err)
		return &Result{Name: name, ErrMsg: err.Error()}
	}
	return &Result{Name: name, Payload: payload}
}
