package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pajamadot/recall/pkg/model"
)

func mem(id string) model.RetrievedMemory {
	return model.RetrievedMemory{ID: id, ProjectID: "p1", Category: "bug", Title: "t-" + id}
}

func doc(artifact, node string) model.RetrievedDocument {
	return model.RetrievedDocument{ArtifactID: artifact, NodeID: node, Title: node}
}

func TestMergeAppendsNewEntries(t *testing.T) {
	dst := model.NewEvidenceSet()
	dst.Merge(&model.EvidenceSet{
		Memories:  []model.RetrievedMemory{mem("m1"), mem("m2")},
		Documents: []model.RetrievedDocument{doc("a1", "n1")},
	})

	gt.Equal(t, dst.MemoryCount(), 2)
	gt.Equal(t, dst.DocumentCount(), 1)

	dst.Merge(&model.EvidenceSet{
		Memories:  []model.RetrievedMemory{mem("m2"), mem("m3")},
		Documents: []model.RetrievedDocument{doc("a1", "n1"), doc("a1", "n2")},
	})

	gt.Equal(t, dst.MemoryCount(), 3)
	gt.Equal(t, dst.DocumentCount(), 2)
	gt.Equal(t, dst.Memories[0].ID, "m1")
	gt.Equal(t, dst.Memories[1].ID, "m2")
	gt.Equal(t, dst.Memories[2].ID, "m3")
}

func TestMergeIdempotent(t *testing.T) {
	src := &model.EvidenceSet{
		Memories: []model.RetrievedMemory{mem("m1"), mem("m2")},
		AssetsIndex: map[string][]model.RetrievedAsset{
			"m1": {{ID: "a1", ProjectID: "p1", Status: "ready"}},
		},
		Documents: []model.RetrievedDocument{doc("art", "n1")},
	}

	dst := model.NewEvidenceSet()
	for i := 0; i < 3; i++ {
		dst.Merge(src)
	}

	gt.Equal(t, dst.MemoryCount(), 2)
	gt.Equal(t, dst.AssetCount(), 1)
	gt.Equal(t, dst.DocumentCount(), 1)
}

func TestMergeSelf(t *testing.T) {
	e := model.NewEvidenceSet()
	e.Merge(&model.EvidenceSet{Memories: []model.RetrievedMemory{mem("m1")}})
	e.Merge(e)
	gt.Equal(t, e.MemoryCount(), 1)
}

func TestMergeOrderPreserved(t *testing.T) {
	dst := model.NewEvidenceSet()
	dst.Merge(&model.EvidenceSet{Memories: []model.RetrievedMemory{mem("a"), mem("b"), mem("c")}})
	dst.Merge(&model.EvidenceSet{Memories: []model.RetrievedMemory{mem("c"), mem("a"), mem("d"), mem("e")}})

	ids := make([]string, 0, len(dst.Memories))
	for _, m := range dst.Memories {
		ids = append(ids, m.ID)
	}
	gt.Equal(t, ids, []string{"a", "b", "c", "d", "e"})
}

func TestMergeAssetsPerKey(t *testing.T) {
	dst := model.NewEvidenceSet()
	dst.Merge(&model.EvidenceSet{
		AssetsIndex: map[string][]model.RetrievedAsset{
			"m1": {{ID: "a1"}, {ID: "a2"}},
		},
	})
	dst.Merge(&model.EvidenceSet{
		AssetsIndex: map[string][]model.RetrievedAsset{
			"m1": {{ID: "a2"}, {ID: "a3"}},
			"m2": {{ID: "a1"}}, // same asset id under a different key is kept
		},
	})

	gt.Equal(t, len(dst.AssetsIndex["m1"]), 3)
	gt.Equal(t, len(dst.AssetsIndex["m2"]), 1)
}

func TestMergeSkipsEmptyIdentity(t *testing.T) {
	dst := model.NewEvidenceSet()
	dst.Merge(&model.EvidenceSet{
		Memories:  []model.RetrievedMemory{{ID: ""}},
		Documents: []model.RetrievedDocument{{ArtifactID: "a", NodeID: ""}},
	})
	gt.Equal(t, dst.MemoryCount(), 0)
	gt.Equal(t, dst.DocumentCount(), 0)
}

func TestAddDirectAsset(t *testing.T) {
	e := model.NewEvidenceSet()
	e.AddDirectAsset(model.RetrievedAsset{ID: "a1", Status: "ready"})
	e.AddDirectAsset(model.RetrievedAsset{ID: "a1", Status: "ready"})
	e.AddDirectAsset(model.RetrievedAsset{ID: "a2", Status: "ready"})

	gt.Equal(t, len(e.AssetsIndex[model.DirectAssetKey]), 2)
	gt.Equal(t, e.AssetCount(), 2)
}
