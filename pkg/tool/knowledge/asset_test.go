package knowledge_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/pajamadot/recall/pkg/model"
	"github.com/pajamadot/recall/pkg/tool/knowledge"
)

func readyAsset(id, contentType string) *model.RetrievedAsset {
	return &model.RetrievedAsset{
		ID:          id,
		ProjectID:   "proj-1",
		Status:      "ready",
		ContentType: contentType,
		ByteSize:    4096,
	}
}

func TestReadAssetText(t *testing.T) {
	stub := &stubKnowledge{
		getAsset: func(id string) (*model.RetrievedAsset, error) {
			return readyAsset(id, "text/plain"), nil
		},
		readRange: func(id string, start, length int64) ([]byte, error) {
			gt.Equal(t, start, int64(0))
			return []byte("crash log line 1\ncrash log line 2"), nil
		},
	}
	client := newTestClient(stub)
	read := knowledge.NewReadAssetText(client)

	payload, err := read.Execute(context.Background(), map[string]any{"asset_id": "a1"})
	gt.NoError(t, err)

	out := payload.(map[string]any)
	gt.S(t, out["text"].(string)).Contains("crash log line 1")
	gt.Equal(t, out["truncated"], false)

	// the asset is recorded under the sentinel key as direct evidence
	gt.A(t, client.Evidence.AssetsIndex[model.DirectAssetKey]).Length(1)
	gt.Equal(t, client.Evidence.AssetsIndex[model.DirectAssetKey][0].ID, "a1")
}

func TestReadAssetTextRejectsNonReady(t *testing.T) {
	stub := &stubKnowledge{
		getAsset: func(id string) (*model.RetrievedAsset, error) {
			asset := readyAsset(id, "text/plain")
			asset.Status = "uploading"
			return asset, nil
		},
	}
	client := newTestClient(stub)
	read := knowledge.NewReadAssetText(client)

	_, err := read.Execute(context.Background(), map[string]any{"asset_id": "a1"})
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("not readable")
	gt.Equal(t, stub.readRangeCalls, 0)
	gt.Equal(t, client.Evidence.AssetCount(), 0)
}

func TestReadAssetTextRejectsBinary(t *testing.T) {
	stub := &stubKnowledge{
		getAsset: func(id string) (*model.RetrievedAsset, error) {
			return readyAsset(id, "image/png"), nil
		},
	}
	client := newTestClient(stub)
	read := knowledge.NewReadAssetText(client)

	_, err := read.Execute(context.Background(), map[string]any{"asset_id": "a1"})
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("not text-like")
}

func TestReadAssetTextMetadataCachedAcrossRanges(t *testing.T) {
	stub := &stubKnowledge{
		getAsset: func(id string) (*model.RetrievedAsset, error) {
			return readyAsset(id, "application/json"), nil
		},
		readRange: func(id string, start, length int64) ([]byte, error) {
			return []byte(`{"part":true}`), nil
		},
	}
	client := newTestClient(stub)
	read := knowledge.NewReadAssetText(client)

	_, err := read.Execute(context.Background(), map[string]any{"asset_id": "a1"})
	gt.NoError(t, err)
	_, err = read.Execute(context.Background(), map[string]any{"asset_id": "a1", "byte_start": float64(1000)})
	gt.NoError(t, err)
	_, err = read.Execute(context.Background(), map[string]any{"asset_id": "a1"})
	gt.NoError(t, err)

	// metadata fetched once; two distinct ranges fetched once each
	gt.Equal(t, stub.getAssetCalls, 1)
	gt.Equal(t, stub.readRangeCalls, 2)
}

func TestReadAssetTextPreviewCap(t *testing.T) {
	stub := &stubKnowledge{
		getAsset: func(id string) (*model.RetrievedAsset, error) {
			return readyAsset(id, "text/csv"), nil
		},
		readRange: func(id string, start, length int64) ([]byte, error) {
			return []byte(strings.Repeat("x", 20000)), nil
		},
	}
	client := newTestClient(stub)
	read := knowledge.NewReadAssetText(client)

	payload, err := read.Execute(context.Background(), map[string]any{
		"asset_id":  "a1",
		"max_bytes": float64(20000),
	})
	gt.NoError(t, err)

	out := payload.(map[string]any)
	gt.Equal(t, out["truncated"], true)
	gt.Equal(t, len(out["text"].(string)), 10000)
}

func TestReadAssetTextValidation(t *testing.T) {
	client := newTestClient(&stubKnowledge{})
	read := knowledge.NewReadAssetText(client)

	_, err := read.Execute(context.Background(), map[string]any{"asset_id": ""})
	gt.Error(t, err)

	_, err = read.Execute(context.Background(), map[string]any{
		"asset_id":   "a1",
		"byte_start": float64(-5),
	})
	gt.Error(t, err)
}

func TestListAssetsDefaultsAndCache(t *testing.T) {
	stub := &stubKnowledge{
		listAssets: func(req *adapter.ListAssetsRequest) ([]adapter.AssetListEntry, error) {
			gt.Equal(t, req.ProjectID, "proj-1")
			gt.Equal(t, req.Limit, 50)
			return []adapter.AssetListEntry{{Asset: *readyAsset("a1", "text/plain")}}, nil
		},
	}
	client := newTestClient(stub)
	list := knowledge.NewListAssets(client)

	for i := 0; i < 2; i++ {
		payload, err := list.Execute(context.Background(), map[string]any{})
		gt.NoError(t, err)
		gt.Equal(t, payload.(map[string]any)["count"], 1)
	}
	gt.Equal(t, stub.listAssetsCalls, 1)
}

func TestListAssetsMemoryLinks(t *testing.T) {
	stub := &stubKnowledge{
		listAssets: func(req *adapter.ListAssetsRequest) ([]adapter.AssetListEntry, error) {
			entry := adapter.AssetListEntry{Asset: *readyAsset("a1", "text/plain")}
			if req.IncludeMemoryLinks {
				entry.MemoryLinks = []adapter.AssetLink{
					{MemoryID: "m1", Relation: "attachment"},
					{MemoryID: "m2", Relation: "source"},
				}
			}
			return []adapter.AssetListEntry{entry}, nil
		},
	}
	client := newTestClient(stub)
	list := knowledge.NewListAssets(client)

	payload, err := list.Execute(context.Background(), map[string]any{
		"include_memory_links": true,
	})
	gt.NoError(t, err)

	entries := payload.(map[string]any)["assets"].([]map[string]any)
	gt.A(t, entries).Length(1)
	links := entries[0]["memory_links"].([]map[string]any)
	gt.A(t, links).Length(2)
	gt.Equal(t, links[0]["memory_id"], "m1")
	gt.Equal(t, links[0]["relation"], "attachment")
	gt.Equal(t, links[1]["memory_id"], "m2")

	// without the flag the summary stays lean
	payload, err = list.Execute(context.Background(), map[string]any{})
	gt.NoError(t, err)
	entries = payload.(map[string]any)["assets"].([]map[string]any)
	_, ok := entries[0]["memory_links"]
	gt.Equal(t, ok, false)
}
