package tool

import (
	"context"

	"github.com/pajamadot/recall/pkg/adapter"
)

// Tool is one named, schema-described capability the model may invoke.
type Tool interface {
	// Spec returns the tool declaration advertised to the model.
	Spec() adapter.ToolSpec

	// Execute runs the tool. A returned error is converted into an error
	// tool-result at the dispatch boundary; it never aborts the run.
	Execute(ctx context.Context, args map[string]any) (any, error)
}
