package knowledge_test

import (
	"context"
	"encoding/json"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/pajamadot/recall/pkg/model"
	"github.com/pajamadot/recall/pkg/tool"
)

// stubKnowledge counts outbound calls and lets each test script responses.
type stubKnowledge struct {
	retrieveCalls int
	retrieve      func(req *adapter.RetrieveRequest) (*adapter.RetrieveResponse, error)

	getAssetCalls int
	getAsset      func(id string) (*model.RetrievedAsset, error)

	readRangeCalls int
	readRange      func(id string, start, length int64) ([]byte, error)

	listAssetsCalls int
	listAssets      func(req *adapter.ListAssetsRequest) ([]adapter.AssetListEntry, error)

	listArtifactsCalls int
	listArtifacts      func(req *adapter.ListArtifactsRequest) ([]adapter.Artifact, error)

	buildIndexCalls int
	buildIndex      func(artifactID, kind string) (*adapter.PageIndexStatus, error)

	getNodeCalls int
	getNode      func(artifactID, nodeID string) (*adapter.DocumentNode, error)

	createMemoryCalls int
	createMemory      func(req *adapter.CreateMemoryRequest) (string, error)

	attachCalls int
	attach      func(memoryID, assetID, relation string) error
}

var _ adapter.Knowledge = (*stubKnowledge)(nil)

func (s *stubKnowledge) Retrieve(ctx context.Context, req *adapter.RetrieveRequest) (*adapter.RetrieveResponse, error) {
	s.retrieveCalls++
	if s.retrieve == nil {
		return &adapter.RetrieveResponse{}, nil
	}
	return s.retrieve(req)
}

func (s *stubKnowledge) GetAsset(ctx context.Context, id string) (*model.RetrievedAsset, error) {
	s.getAssetCalls++
	if s.getAsset == nil {
		return nil, goerr.New("not found")
	}
	return s.getAsset(id)
}

func (s *stubKnowledge) ReadAssetRange(ctx context.Context, id string, start, length int64) ([]byte, error) {
	s.readRangeCalls++
	if s.readRange == nil {
		return nil, goerr.New("not found")
	}
	return s.readRange(id, start, length)
}

func (s *stubKnowledge) ListAssets(ctx context.Context, req *adapter.ListAssetsRequest) ([]adapter.AssetListEntry, error) {
	s.listAssetsCalls++
	if s.listAssets == nil {
		return nil, nil
	}
	return s.listAssets(req)
}

func (s *stubKnowledge) DownloadAsset(ctx context.Context, id string, w io.Writer) error {
	return goerr.New("not implemented")
}

func (s *stubKnowledge) ListArtifacts(ctx context.Context, req *adapter.ListArtifactsRequest) ([]adapter.Artifact, error) {
	s.listArtifactsCalls++
	if s.listArtifacts == nil {
		return nil, nil
	}
	return s.listArtifacts(req)
}

func (s *stubKnowledge) BuildPageIndex(ctx context.Context, artifactID, kind string) (*adapter.PageIndexStatus, error) {
	s.buildIndexCalls++
	if s.buildIndex == nil {
		return &adapter.PageIndexStatus{ArtifactID: artifactID, Status: "ready"}, nil
	}
	return s.buildIndex(artifactID, kind)
}

func (s *stubKnowledge) GetDocumentNode(ctx context.Context, artifactID, nodeID string) (*adapter.DocumentNode, error) {
	s.getNodeCalls++
	if s.getNode == nil {
		return nil, goerr.New("not found")
	}
	return s.getNode(artifactID, nodeID)
}

func (s *stubKnowledge) CreateMemory(ctx context.Context, req *adapter.CreateMemoryRequest) (string, error) {
	s.createMemoryCalls++
	if s.createMemory == nil {
		return "mem-1", nil
	}
	return s.createMemory(req)
}

func (s *stubKnowledge) AttachAsset(ctx context.Context, memoryID, assetID, relation string) error {
	s.attachCalls++
	if s.attach == nil {
		return nil
	}
	return s.attach(memoryID, assetID, relation)
}

func (s *stubKnowledge) ListMemories(ctx context.Context, req *adapter.ListMemoriesRequest) ([]adapter.Memory, error) {
	return nil, nil
}

func (s *stubKnowledge) GetMemory(ctx context.Context, id string) (*adapter.Memory, error) {
	return nil, goerr.New("not found")
}

func (s *stubKnowledge) ListProjects(ctx context.Context) ([]adapter.Project, error) {
	return nil, nil
}

func (s *stubKnowledge) CreateProject(ctx context.Context, name, engine, description string) (string, error) {
	return "", goerr.New("not implemented")
}

func (s *stubKnowledge) CreateAssetUpload(ctx context.Context, req *adapter.CreateAssetUploadRequest) (*adapter.CreateAssetUploadResponse, error) {
	return nil, goerr.New("not implemented")
}

func (s *stubKnowledge) UploadAssetPart(ctx context.Context, assetID string, part int, data []byte) error {
	return goerr.New("not implemented")
}

func (s *stubKnowledge) CompleteAssetUpload(ctx context.Context, assetID string) (json.RawMessage, error) {
	return nil, goerr.New("not implemented")
}

func newTestClient(k adapter.Knowledge) *tool.Client {
	return tool.NewClient(k, "proj-1", "sess-1")
}
