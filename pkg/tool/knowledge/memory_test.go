package knowledge_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/pajamadot/recall/pkg/tool/knowledge"
)

func TestRecordMemory(t *testing.T) {
	var got *adapter.CreateMemoryRequest
	stub := &stubKnowledge{
		createMemory: func(req *adapter.CreateMemoryRequest) (string, error) {
			got = req
			return "mem-42", nil
		},
	}
	client := newTestClient(stub)
	record := knowledge.NewRecordMemory(client)

	payload, err := record.Execute(context.Background(), map[string]any{
		"category":   "decision",
		"title":      "use forward renderer",
		"content":    "deferred breaks on mobile targets",
		"tags":       []any{"rendering", "mobile"},
		"confidence": float64(1.7),
	})
	gt.NoError(t, err)

	gt.Equal(t, payload.(map[string]any)["id"], "mem-42")
	gt.Equal(t, got.ProjectID, "proj-1")
	gt.Equal(t, got.SessionID, "sess-1")
	gt.Equal(t, got.SourceType, "agent")
	gt.Equal(t, got.Confidence, 1.0) // clamped
	gt.Equal(t, got.Tags, []string{"rendering", "mobile"})
}

func TestRecordMemoryValidation(t *testing.T) {
	stub := &stubKnowledge{}
	client := newTestClient(stub)
	record := knowledge.NewRecordMemory(client)

	testCases := map[string]map[string]any{
		"empty title":    {"category": "bug", "title": "  ", "content": "c"},
		"empty content":  {"category": "bug", "title": "t", "content": ""},
		"empty category": {"category": "", "title": "t", "content": "c"},
	}
	for name, args := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := record.Execute(context.Background(), args)
			gt.Error(t, err)
		})
	}
	gt.Equal(t, stub.createMemoryCalls, 0)
}

func TestRecordMemoryTagCap(t *testing.T) {
	var got *adapter.CreateMemoryRequest
	stub := &stubKnowledge{
		createMemory: func(req *adapter.CreateMemoryRequest) (string, error) {
			got = req
			return "mem-1", nil
		},
	}
	client := newTestClient(stub)
	record := knowledge.NewRecordMemory(client)

	tags := make([]any, 40)
	for i := range tags {
		tags[i] = "tag"
	}
	_, err := record.Execute(context.Background(), map[string]any{
		"category": "bug", "title": "t", "content": "c", "tags": tags,
	})
	gt.NoError(t, err)
	gt.A(t, got.Tags).Length(32)
}

func TestAttachAssetToMemory(t *testing.T) {
	var gotRelation string
	stub := &stubKnowledge{
		attach: func(memoryID, assetID, relation string) error {
			gotRelation = relation
			return nil
		},
	}
	client := newTestClient(stub)
	attach := knowledge.NewAttachAssetToMemory(client)

	payload, err := attach.Execute(context.Background(), map[string]any{
		"memory_id": "m1",
		"asset_id":  "a1",
	})
	gt.NoError(t, err)
	gt.Equal(t, gotRelation, "attachment")
	gt.Equal(t, payload.(map[string]any)["relation"], "attachment")

	_, err = attach.Execute(context.Background(), map[string]any{"memory_id": "m1", "asset_id": ""})
	gt.Error(t, err)
}
