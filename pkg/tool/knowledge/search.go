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

const (
	maxSearchLimit   = 50
	maxSummaryMems   = 12
	maxSummaryDocs   = 8
	excerptCharLimit = 400
)

var (
	retrievalModes = map[string]bool{"auto": true, "memories": true, "documents": true, "hybrid": true}
	memoryModes    = map[string]bool{"fast": true, "balanced": true, "deep": true}
)

type searchEvidenceInput struct {
	Query            string `json:"query"`
	ProjectID        string `json:"project_id"`
	Limit            int    `json:"limit"`
	IncludeAssets    *bool  `json:"include_assets"`
	IncludeDocuments *bool  `json:"include_documents"`
	DocumentLimit    int    `json:"document_limit"`
	RetrievalMode    string `json:"retrieval_mode"`
	MemoryMode       string `json:"memory_mode"`
}

// SearchEvidence is the primary retrieval tool: it queries the knowledge
// service and merges everything it finds into the run's evidence pool.
type SearchEvidence struct {
	client *tool.Client
}

// NewSearchEvidence creates the search_evidence tool.
func NewSearchEvidence(c *tool.Client) *SearchEvidence {
	return &SearchEvidence{client: c}
}

func (s *SearchEvidence) Spec() adapter.ToolSpec {
	return adapter.ToolSpec{
		Name: "search_evidence",
		Description: "Search the project's memory pool and indexed documents. " +
			"Results are added to the run's evidence and can be cited as [mem:<id>] or [doc:<artifact>#<node>].",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Natural language search query",
				},
				"project_id": {
					Type:        "string",
					Description: "Project scope (defaults to the run's project)",
				},
				"limit": {
					Type:        "integer",
					Description: "Max memories to retrieve (default 10, max 50)",
				},
				"include_assets": {
					Type:        "boolean",
					Description: "Include assets linked to matched memories (default true)",
				},
				"include_documents": {
					Type:        "boolean",
					Description: "Include document fragments from page indexes (default true)",
				},
				"document_limit": {
					Type:        "integer",
					Description: "Max document fragments (default 8, max 50)",
				},
				"retrieval_mode": {
					Type:        "string",
					Description: "What to search (default auto)",
					Enum:        []any{"auto", "memories", "documents", "hybrid"},
				},
				"memory_mode": {
					Type:        "string",
					Description: "Retrieval effort profile (default balanced)",
					Enum:        []any{"fast", "balanced", "deep"},
				},
			},
			Required: []string{"query"},
		},
	}
}

func (s *SearchEvidence) normalize(in *searchEvidenceInput) (*adapter.RetrieveRequest, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, goerr.New("query must not be empty")
	}

	projectID := in.ProjectID
	if projectID == "" {
		projectID = s.client.ProjectID
	}

	limit := in.Limit
	if limit == 0 {
		limit = 10
	}
	limit = clampInt(limit, 1, maxSearchLimit)

	docLimit := in.DocumentLimit
	if docLimit == 0 {
		docLimit = maxSummaryDocs
	}
	docLimit = clampInt(docLimit, 1, maxSearchLimit)

	mode := in.RetrievalMode
	if mode == "" {
		mode = "auto"
	}
	if !retrievalModes[mode] {
		return nil, goerr.New("invalid retrieval_mode", goerr.V("retrieval_mode", mode))
	}

	memMode := in.MemoryMode
	if memMode == "" {
		memMode = model.MemoryModeBalanced
	}
	if !memoryModes[memMode] {
		return nil, goerr.New("invalid memory_mode", goerr.V("memory_mode", memMode))
	}

	includeAssets := true
	if in.IncludeAssets != nil {
		includeAssets = *in.IncludeAssets
	}
	includeDocs := true
	if in.IncludeDocuments != nil {
		includeDocs = *in.IncludeDocuments
	}

	return &adapter.RetrieveRequest{
		Query:            query,
		ProjectID:        projectID,
		IncludeAssets:    includeAssets,
		IncludeDocuments: includeDocs,
		DocumentLimit:    docLimit,
		RetrievalMode:    mode,
		MemoryMode:       memMode,
		DryRun:           true,
		Limit:            limit,
	}, nil
}

func (s *SearchEvidence) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in searchEvidenceInput
	if err := parseArgs(args, &in); err != nil {
		return nil, err
	}

	req, err := s.normalize(&in)
	if err != nil {
		return nil, err
	}

	key := tool.CacheKey("search_evidence", req)
	resp, err := tool.Cached(s.client.Cache, key, func() (*adapter.RetrieveResponse, error) {
		return s.client.Knowledge.Retrieve(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	// merging is idempotent by id, so replaying a cached result is safe
	s.client.Evidence.Merge(resp.ToEvidence())

	return s.summarize(resp), nil
}

// summarize builds the capped payload returned to the model. The full result
// set stays in the evidence pool regardless of the caps.
func (s *SearchEvidence) summarize(resp *adapter.RetrieveResponse) map[string]any {
	memories := make([]map[string]any, 0, len(resp.Memories))
	for i, m := range resp.Memories {
		if i >= maxSummaryMems {
			break
		}
		excerpt, _ := truncateText(m.ContentExcerpt, excerptCharLimit)
		entry := map[string]any{
			"id":         m.ID,
			"category":   m.Category,
			"title":      m.Title,
			"excerpt":    excerpt,
			"confidence": m.Confidence,
		}
		if len(m.Tags) > 0 {
			entry["tags"] = m.Tags
		}
		if assets, ok := resp.Assets[m.ID]; ok && len(assets) > 0 {
			ids := make([]string, 0, len(assets))
			for _, a := range assets {
				ids = append(ids, a.ID)
			}
			entry["linked_assets"] = ids
		}
		memories = append(memories, entry)
	}

	documents := make([]map[string]any, 0, len(resp.Documents))
	for i, d := range resp.Documents {
		if i >= maxSummaryDocs {
			break
		}
		excerpt, _ := truncateText(d.Excerpt, excerptCharLimit)
		documents = append(documents, map[string]any{
			"artifact_id": d.ArtifactID,
			"node_id":     d.NodeID,
			"title":       d.Title,
			"path":        d.Path,
			"excerpt":     excerpt,
			"score":       d.Score,
		})
	}

	return map[string]any{
		"memory_count":   len(resp.Memories),
		"document_count": len(resp.Documents),
		"memories":       memories,
		"documents":      documents,
	}
}
