package knowledge

import (
	"context"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/pajamadot/recall/pkg/tool"
)

const maxMemoryTags = 32

type recordMemoryInput struct {
	ProjectID  string   `json:"project_id"`
	Category   string   `json:"category"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Confidence *float64 `json:"confidence"`
}

// RecordMemory creates a durable memory. Policy requires the model to use it
// only on explicit user request; the tool itself only validates inputs.
type RecordMemory struct {
	client *tool.Client
}

// NewRecordMemory creates the record_memory tool.
func NewRecordMemory(c *tool.Client) *RecordMemory {
	return &RecordMemory{client: c}
}

func (m *RecordMemory) Spec() adapter.ToolSpec {
	minConf := 0.0
	maxConf := 1.0
	return adapter.ToolSpec{
		Name: "record_memory",
		Description: "Create a durable memory in the project's knowledge base. " +
			"Only use when the user explicitly asks to remember or record something.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project_id": {
					Type:        "string",
					Description: "Project scope (defaults to the run's project)",
				},
				"category": {
					Type:        "string",
					Description: "Memory category, e.g. bug, decision, convention",
				},
				"title": {
					Type:        "string",
					Description: "Short title",
				},
				"content": {
					Type:        "string",
					Description: "Memory body",
				},
				"tags": {
					Type:        "array",
					Description: "Up to 32 tags",
					Items:       &jsonschema.Schema{Type: "string"},
				},
				"confidence": {
					Type:        "number",
					Description: "Confidence in [0,1] (default 0.5)",
					Minimum:     &minConf,
					Maximum:     &maxConf,
				},
			},
			Required: []string{"category", "title", "content"},
		},
	}
}

func (m *RecordMemory) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in recordMemoryInput
	if err := parseArgs(args, &in); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, goerr.New("title must not be empty")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, goerr.New("content must not be empty")
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, goerr.New("category must not be empty")
	}

	projectID := in.ProjectID
	if projectID == "" {
		projectID = m.client.ProjectID
	}

	tags := in.Tags
	if len(tags) > maxMemoryTags {
		tags = tags[:maxMemoryTags]
	}

	confidence := 0.5
	if in.Confidence != nil {
		confidence = clampConfidence(*in.Confidence)
	}

	id, err := m.client.Knowledge.CreateMemory(ctx, &adapter.CreateMemoryRequest{
		ProjectID:  projectID,
		SessionID:  m.client.SessionID,
		Category:   in.Category,
		SourceType: "agent",
		Title:      in.Title,
		Content:    in.Content,
		Tags:       tags,
		Context:    map[string]any{},
		Confidence: confidence,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{"id": id}, nil
}

type attachAssetInput struct {
	MemoryID string `json:"memory_id"`
	AssetID  string `json:"asset_id"`
	Relation string `json:"relation"`
}

// AttachAssetToMemory links an existing asset to a memory.
type AttachAssetToMemory struct {
	client *tool.Client
}

// NewAttachAssetToMemory creates the attach_asset_to_memory tool.
func NewAttachAssetToMemory(c *tool.Client) *AttachAssetToMemory {
	return &AttachAssetToMemory{client: c}
}

func (a *AttachAssetToMemory) Spec() adapter.ToolSpec {
	return adapter.ToolSpec{
		Name: "attach_asset_to_memory",
		Description: "Link an existing asset to a memory as supporting evidence. " +
			"Only use when the user explicitly asks for it.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"memory_id": {
					Type:        "string",
					Description: "Memory to attach to",
				},
				"asset_id": {
					Type:        "string",
					Description: "Asset to attach",
				},
				"relation": {
					Type:        "string",
					Description: "Relation label (default attachment)",
				},
			},
			Required: []string{"memory_id", "asset_id"},
		},
	}
}

func (a *AttachAssetToMemory) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in attachAssetInput
	if err := parseArgs(args, &in); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.MemoryID) == "" {
		return nil, goerr.New("memory_id must not be empty")
	}
	if strings.TrimSpace(in.AssetID) == "" {
		return nil, goerr.New("asset_id must not be empty")
	}

	relation := in.Relation
	if relation == "" {
		relation = "attachment"
	}

	if err := a.client.Knowledge.AttachAsset(ctx, in.MemoryID, in.AssetID, relation); err != nil {
		return nil, err
	}

	return map[string]any{
		"memory_id": in.MemoryID,
		"asset_id":  in.AssetID,
		"relation":  relation,
	}, nil
}
