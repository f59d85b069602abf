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
	minReadBytes     = 256
	maxReadBytes     = 120000
	defaultReadBytes = 16384
	previewCharLimit = 10000

	maxListLimit     = 200
	defaultListLimit = 50
)

// textLikeContentType reports whether an asset can be read as text: plain
// text, JSON, XML, YAML, TOML, script source, CSV.
func textLikeContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if strings.HasPrefix(ct, "text/") {
		return true
	}

	switch ct {
	case "application/json", "application/x-ndjson",
		"application/xml", "application/yaml", "application/x-yaml",
		"application/toml", "application/csv",
		"application/javascript", "application/ecmascript",
		"application/x-sh", "application/x-python", "application/x-lua":
		return true
	}
	return strings.HasSuffix(ct, "+json") || strings.HasSuffix(ct, "+xml") ||
		strings.HasSuffix(ct, "+yaml")
}

type readAssetTextInput struct {
	AssetID   string `json:"asset_id"`
	ByteStart int64  `json:"byte_start"`
	MaxBytes  int64  `json:"max_bytes"`
}

// ReadAssetText reads a byte range of a text-like asset and records the asset
// as directly-read evidence.
type ReadAssetText struct {
	client *tool.Client
}

// NewReadAssetText creates the read_asset_text tool.
func NewReadAssetText(c *tool.Client) *ReadAssetText {
	return &ReadAssetText{client: c}
}

func (r *ReadAssetText) Spec() adapter.ToolSpec {
	minStart := 0.0
	minBytes := float64(minReadBytes)
	maxBytes := float64(maxReadBytes)
	return adapter.ToolSpec{
		Name: "read_asset_text",
		Description: "Read a byte range of a text-like asset (logs, configs, source, CSV). " +
			"The asset becomes citable as [asset:<id>]. Fails for binary or still-uploading assets.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"asset_id": {
					Type:        "string",
					Description: "Asset id to read",
				},
				"byte_start": {
					Type:        "integer",
					Description: "Offset to start reading from (default 0)",
					Minimum:     &minStart,
				},
				"max_bytes": {
					Type:        "integer",
					Description: "How many bytes to read (default 16384)",
					Minimum:     &minBytes,
					Maximum:     &maxBytes,
				},
			},
			Required: []string{"asset_id"},
		},
	}
}

func (r *ReadAssetText) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in readAssetTextInput
	if err := parseArgs(args, &in); err != nil {
		return nil, err
	}

	assetID := strings.TrimSpace(in.AssetID)
	if assetID == "" {
		return nil, goerr.New("asset_id must not be empty")
	}
	if in.ByteStart < 0 {
		return nil, goerr.New("byte_start must be >= 0", goerr.V("byte_start", in.ByteStart))
	}

	maxBytes := in.MaxBytes
	if maxBytes == 0 {
		maxBytes = defaultReadBytes
	}
	if maxBytes < minReadBytes {
		maxBytes = minReadBytes
	}
	if maxBytes > maxReadBytes {
		maxBytes = maxReadBytes
	}

	metaKey := tool.CacheKey("asset_meta", assetID)
	asset, err := tool.Cached(r.client.Cache, metaKey, func() (*model.RetrievedAsset, error) {
		return r.client.Knowledge.GetAsset(ctx, assetID)
	})
	if err != nil {
		return nil, err
	}

	if asset.Status != "ready" {
		return nil, goerr.New("asset is not readable yet",
			goerr.V("asset_id", assetID), goerr.V("status", asset.Status))
	}
	if !textLikeContentType(asset.ContentType) {
		return nil, goerr.New("asset is not text-like",
			goerr.V("asset_id", assetID), goerr.V("content_type", asset.ContentType))
	}

	rangeKey := tool.CacheKey("asset_range", map[string]any{
		"asset_id": assetID,
		"start":    in.ByteStart,
		"length":   maxBytes,
	})
	data, err := tool.Cached(r.client.Cache, rangeKey, func() ([]byte, error) {
		return r.client.Knowledge.ReadAssetRange(ctx, assetID, in.ByteStart, maxBytes)
	})
	if err != nil {
		return nil, err
	}

	// directly read assets stay citable even without a linking memory
	r.client.Evidence.AddDirectAsset(*asset)

	text := strings.ToValidUTF8(string(data), "�")
	preview, truncated := truncateText(text, previewCharLimit)

	return map[string]any{
		"asset_id":     assetID,
		"content_type": asset.ContentType,
		"byte_size":    asset.ByteSize,
		"byte_start":   in.ByteStart,
		"bytes_read":   len(data),
		"truncated":    truncated,
		"text":         preview,
	}, nil
}

type listAssetsInput struct {
	ProjectID          string `json:"project_id"`
	Query              string `json:"q"`
	Status             string `json:"status"`
	Limit              int    `json:"limit"`
	IncludeMemoryLinks bool   `json:"include_memory_links"`
}

// ListAssets is a pass-through listing of project assets.
type ListAssets struct {
	client *tool.Client
}

// NewListAssets creates the list_assets tool.
func NewListAssets(c *tool.Client) *ListAssets {
	return &ListAssets{client: c}
}

func (l *ListAssets) Spec() adapter.ToolSpec {
	return adapter.ToolSpec{
		Name:        "list_assets",
		Description: "List project assets with optional name filter and status filter.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project_id": {
					Type:        "string",
					Description: "Project scope (defaults to the run's project)",
				},
				"q": {
					Type:        "string",
					Description: "Substring filter on the asset name",
				},
				"status": {
					Type:        "string",
					Description: "Filter by upload status",
					Enum:        []any{"pending", "uploading", "ready", "failed"},
				},
				"limit": {
					Type:        "integer",
					Description: "Max assets to return (default 50, max 200)",
				},
				"include_memory_links": {
					Type:        "boolean",
					Description: "Include which memories each asset is attached to",
				},
			},
		},
	}
}

func (l *ListAssets) Execute(ctx context.Context, args map[string]any) (any, error) {
	var in listAssetsInput
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

	req := &adapter.ListAssetsRequest{
		ProjectID:          in.ProjectID,
		Query:              in.Query,
		Status:             in.Status,
		Limit:              in.Limit,
		IncludeMemoryLinks: in.IncludeMemoryLinks,
	}

	key := tool.CacheKey("list_assets", in)
	listed, err := tool.Cached(l.client.Cache, key, func() ([]adapter.AssetListEntry, error) {
		return l.client.Knowledge.ListAssets(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	entries := make([]map[string]any, 0, len(listed))
	for _, e := range listed {
		a := e.Asset
		entry := map[string]any{
			"id":           a.ID,
			"status":       a.Status,
			"content_type": a.ContentType,
			"byte_size":    a.ByteSize,
			"name":         a.OriginalName,
		}
		if in.IncludeMemoryLinks {
			links := make([]map[string]any, 0, len(e.MemoryLinks))
			for _, link := range e.MemoryLinks {
				links = append(links, map[string]any{
					"memory_id": link.MemoryID,
					"relation":  link.Relation,
				})
			}
			entry["memory_links"] = links
		}
		entries = append(entries, entry)
	}

	return map[string]any{
		"count":  len(entries),
		"assets": entries,
	}, nil
}
