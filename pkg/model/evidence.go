package model

// DirectAssetKey is the reserved asset index key for assets that were read
// directly by id rather than discovered through a memory.
const DirectAssetKey = "_direct"

// RetrievedMemory is a memory returned by the knowledge service. Immutable
// once retrieved within a run.
type RetrievedMemory struct {
	ID             string   `json:"id"`
	ProjectID      string   `json:"project_id"`
	Category       string   `json:"category"`
	Title          string   `json:"title"`
	ContentExcerpt string   `json:"content_excerpt"`
	Tags           []string `json:"tags"`
	Confidence     float64  `json:"confidence"`
	UpdatedAt      string   `json:"updated_at,omitempty"`
}

// RetrievedAsset is an asset attached to a memory or read directly by id.
type RetrievedAsset struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	Status       string `json:"status"`
	ContentType  string `json:"content_type"`
	ByteSize     int64  `json:"byte_size"`
	OriginalName string `json:"original_name,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// RetrievedDocument is a fragment of an indexed artifact. Its identity is the
// (ArtifactID, NodeID) pair.
type RetrievedDocument struct {
	ArtifactID string   `json:"artifact_id"`
	NodeID     string   `json:"node_id"`
	Title      string   `json:"title"`
	Path       []string `json:"path"`
	Excerpt    string   `json:"excerpt"`
	Score      float64  `json:"score"`
}

// EvidenceSet is the pool of everything a run has retrieved and may cite.
// It grows monotonically: Merge appends new entries and never removes or
// mutates existing ones, so results from earlier rounds can be re-merged
// safely.
type EvidenceSet struct {
	Memories    []RetrievedMemory           `json:"memories"`
	AssetsIndex map[string][]RetrievedAsset `json:"assets_index"`
	Documents   []RetrievedDocument         `json:"documents"`
}

// NewEvidenceSet creates an empty evidence set.
func NewEvidenceSet() *EvidenceSet {
	return &EvidenceSet{
		AssetsIndex: make(map[string][]RetrievedAsset),
	}
}

// Merge appends entries of src that are not already present. Memories are
// de-duplicated by id, assets by id within each index key, documents by
// (artifact_id, node_id). Existing entries keep their relative order; new
// entries are appended in src order. Merge never fails.
func (e *EvidenceSet) Merge(src *EvidenceSet) {
	if src == nil {
		return
	}

	seenMem := make(map[string]bool, len(e.Memories))
	for _, m := range e.Memories {
		seenMem[m.ID] = true
	}
	for _, m := range src.Memories {
		if m.ID == "" || seenMem[m.ID] {
			continue
		}
		seenMem[m.ID] = true
		e.Memories = append(e.Memories, m)
	}

	for key, assets := range src.AssetsIndex {
		e.mergeAssets(key, assets)
	}

	seenDoc := make(map[[2]string]bool, len(e.Documents))
	for _, d := range e.Documents {
		seenDoc[[2]string{d.ArtifactID, d.NodeID}] = true
	}
	for _, d := range src.Documents {
		key := [2]string{d.ArtifactID, d.NodeID}
		if d.ArtifactID == "" || d.NodeID == "" || seenDoc[key] {
			continue
		}
		seenDoc[key] = true
		e.Documents = append(e.Documents, d)
	}
}

func (e *EvidenceSet) mergeAssets(key string, assets []RetrievedAsset) {
	if e.AssetsIndex == nil {
		e.AssetsIndex = make(map[string][]RetrievedAsset)
	}

	seen := make(map[string]bool, len(e.AssetsIndex[key]))
	for _, a := range e.AssetsIndex[key] {
		seen[a.ID] = true
	}
	for _, a := range assets {
		if a.ID == "" || seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		e.AssetsIndex[key] = append(e.AssetsIndex[key], a)
	}
}

// AddDirectAsset records an asset that was read directly by id under the
// sentinel key, so it stays citable even though no memory links to it.
func (e *EvidenceSet) AddDirectAsset(asset RetrievedAsset) {
	e.mergeAssets(DirectAssetKey, []RetrievedAsset{asset})
}

// MemoryCount returns the number of distinct memories.
func (e *EvidenceSet) MemoryCount() int { return len(e.Memories) }

// AssetCount returns the number of assets across all index keys.
func (e *EvidenceSet) AssetCount() int {
	n := 0
	for _, assets := range e.AssetsIndex {
		n += len(assets)
	}
	return n
}

// DocumentCount returns the number of distinct document fragments.
func (e *EvidenceSet) DocumentCount() int { return len(e.Documents) }
