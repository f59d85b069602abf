package knowledge

import (
	"context"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/pajamadot/recall/pkg/model"
	"github.com/pajamadot/recall/pkg/tool"
)

type readDocumentNodeInput struct {
	ArtifactID string `json:"artifact_id"`
	NodeID     string `json:"node_id"`
}

// ReadDocumentNode reads one page-index node and merges it into the evidence
// pool, so nodes read on demand become citable exactly like search hits.
type ReadDocumentNode struct {
	client *tool.Client
}

// NewReadDocumentNode creates the read_document_node tool.
func NewReadDocumentNode(c *tool.Client) *ReadDocumentNode {
	return &ReadDocumentNode{client: c}
}

func (r *ReadDocumentNode) Spec() adapter.ToolSpec {
	return adapter.ToolSpec{
		Name: "read_document_node",
		Description: "Read one node of an artifact's page index. " +
			"The node becomes citable as [doc:<artifact>#<node>].",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"artifact_id": {
					Type:        "string",
					Description: "Artifact the node belongs to",
				},
				"node_id": {
					Type:        "string",
					Description: "Node id from search results or the page index",
				},
			},
			Required: []string{"artifact_id", "node_id"},
		},
	}
}

func (r *ReadDocumentNode) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in readDocumentNodeInput
	if err := parseArgs(args, &in); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.ArtifactID) == "" {
		return nil, goerr.New("artifact_id must not be empty")
	}
	if strings.TrimSpace(in.NodeID) == "" {
		return nil, goerr.New("node_id must not be empty")
	}

	key := tool.CacheKey("read_document_node", in)
	node, err := tool.Cached(r.client.Cache, key, func() (*adapter.DocumentNode, error) {
		return r.client.Knowledge.GetDocumentNode(ctx, in.ArtifactID, in.NodeID)
	})
	if err != nil {
		return nil, err
	}

	excerpt := node.Excerpt
	if excerpt == "" {
		excerpt = node.Summary
	}
	if excerpt == "" {
		excerpt, _ = truncateText(node.Content, excerptCharLimit)
	}

	r.client.Evidence.Merge(&model.EvidenceSet{
		Documents: []model.RetrievedDocument{{
			ArtifactID: node.ArtifactID,
			NodeID:     node.NodeID,
			Title:      node.Title,
			Path:       node.Path,
			Excerpt:    excerpt,
		}},
	})

	text := node.Content
	if text == "" {
		text = node.Summary
	}
	preview, truncated := truncateText(text, previewCharLimit)

	return map[string]any{
		"artifact_id": node.ArtifactID,
		"node_id":     node.NodeID,
		"title":       node.Title,
		"path":        node.Path,
		"truncated":   truncated,
		"text":        preview,
	}, nil
}
