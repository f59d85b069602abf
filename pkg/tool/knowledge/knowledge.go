// Package knowledge implements the callable tools backed by the
// knowledge-retrieval service.
package knowledge

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/tool"
)

// All returns every knowledge tool bound to the given per-run client, in the
// order they are advertised to the model.
func All(c *tool.Client) []tool.Tool {
	return []tool.Tool{
		NewSearchEvidence(c),
		NewReadAssetText(c),
		NewListAssets(c),
		NewRecordMemory(c),
		NewAttachAssetToMemory(c),
		NewListArtifacts(c),
		NewIndexArtifactPageIndex(c),
		NewReadDocumentNode(c),
	}
}

// parseArgs decodes the model-provided arguments into a typed input struct.
func parseArgs(args map[string]any, out any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal tool arguments")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return goerr.Wrap(err, "invalid tool arguments")
	}
	return nil
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampConfidence(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0.5
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func truncateText(s string, limit int) (string, bool) {
	runes := []rune(s)
	if len(runes) <= limit {
		return s, false
	}
	return string(runes[:limit]), true
}
