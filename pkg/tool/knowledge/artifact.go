package knowledge

import (
	"context"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/pajamadot/recall/pkg/tool"
)

type listArtifactsInput struct {
	ProjectID string `json:"project_id"`
	Type      string `json:"type"`
	Limit     int    `json:"limit"`
}

// ListArtifacts is a pass-through listing of project artifacts.
type ListArtifacts struct {
	client *tool.Client
}

// NewListArtifacts creates the list_artifacts tool.
func NewListArtifacts(c *tool.Client) *ListArtifacts {
	return &ListArtifacts{client: c}
}

func (l *ListArtifacts) Spec() adapter.ToolSpec {
	return adapter.ToolSpec{
		Name:        "list_artifacts",
		Description: "List long documents (design docs, postmortems, GDDs) registered with the project.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project_id": {
					Type:        "string",
					Description: "Project scope (defaults to the run's project)",
				},
				"type": {
					Type:        "string",
					Description: "Filter by artifact type",
				},
				"limit": {
					Type:        "integer",
					Description: "Max artifacts to return (default 50, max 200)",
				},
			},
		},
	}
}

func (l *ListArtifacts) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in listArtifactsInput
	if err := parseArgs(args, &in); err != nil {
		return nil, err
	}

	if in.ProjectID == "" {
		in.ProjectID = l.client.ProjectID
	}
	if in.Limit == 0 {
		in.Limit = defaultListLimit
	}
	in.Limit = clampInt(in.Limit, 1, maxListLimit)

	req := &adapter.ListArtifactsRequest{
		ProjectID: in.ProjectID,
		Type:      in.Type,
		Limit:     in.Limit,
	}

	key := tool.CacheKey("list_artifacts", in)
	artifacts, err := tool.Cached(l.client.Cache, key, func() ([]adapter.Artifact, error) {
		return l.client.Knowledge.ListArtifacts(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	entries := make([]map[string]any, 0, len(artifacts))
	for _, a := range artifacts {
		entries = append(entries, map[string]any{
			"id":     a.ID,
			"type":   a.Type,
			"name":   a.Name,
			"status": a.Status,
		})
	}

	return map[string]any{
		"count":     len(entries),
		"artifacts": entries,
	}, nil
}

type indexArtifactInput struct {
	ArtifactID string `json:"artifact_id"`
	Kind       string `json:"kind"`
}

// IndexArtifactPageIndex triggers (re)building an artifact's hierarchical
// page index so its nodes can be read and cited.
type IndexArtifactPageIndex struct {
	client *tool.Client
}

// NewIndexArtifactPageIndex creates the index_artifact_pageindex tool.
func NewIndexArtifactPageIndex(c *tool.Client) *IndexArtifactPageIndex {
	return &IndexArtifactPageIndex{client: c}
}

func (i *IndexArtifactPageIndex) Spec() adapter.ToolSpec {
	return adapter.ToolSpec{
		Name: "index_artifact_pageindex",
		Description: "Build (or rebuild) the hierarchical page index of an artifact, " +
			"making its sections addressable via read_document_node.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"artifact_id": {
					Type:        "string",
					Description: "Artifact to index",
				},
				"kind": {
					Type:        "string",
					Description: "Index kind hint, e.g. markdown or pdf",
				},
			},
			Required: []string{"artifact_id"},
		},
	}
}

func (i *IndexArtifactPageIndex) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in indexArtifactInput
	if err := parseArgs(args, &in); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.ArtifactID) == "" {
		return nil, goerr.New("artifact_id must not be empty")
	}

	key := tool.CacheKey("index_artifact_pageindex", in)
	status, err := tool.Cached(i.client.Cache, key, func() (*adapter.PageIndexStatus, error) {
		return i.client.Knowledge.BuildPageIndex(ctx, in.ArtifactID, in.Kind)
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"artifact_id": status.ArtifactID,
		"status":      status.Status,
		"node_count":  status.NodeCount,
	}, nil
}
