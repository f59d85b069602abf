package run

import (
	"context"
	"encoding/json"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/pajamadot/recall/pkg/model"
)

// stubProvider replays a scripted sequence of responses. When the script is
// shorter than the number of rounds, the last response repeats.
type stubProvider struct {
	calls    int
	requests []*adapter.GenerateRequest
	script   []*adapter.GenerateResponse
	err      error
}

func (p *stubProvider) Kind() string { return "stub" }

func (p *stubProvider) Generate(ctx context.Context, req *adapter.GenerateRequest) (*adapter.GenerateResponse, error) {
	p.calls++
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	idx := p.calls - 1
	if idx >= len(p.script) {
		idx = len(p.script) - 1
	}
	return p.script[idx], nil
}

func textResponse(text string) *adapter.GenerateResponse {
	return &adapter.GenerateResponse{
		Content: []adapter.ContentBlock{{Type: adapter.BlockText, Text: text}},
	}
}

func toolUseResponse(blocks ...adapter.ContentBlock) *adapter.GenerateResponse {
	return &adapter.GenerateResponse{Content: blocks}
}

func toolUse(id, name string, input map[string]any) adapter.ContentBlock {
	return adapter.ContentBlock{Type: adapter.BlockToolUse, ID: id, Name: name, Input: input}
}

// stubKnowledge covers the subset of the knowledge interface the run driver
// and the scripted tools touch.
type stubKnowledge struct {
	retrieveCalls int
	retrieve      func(req *adapter.RetrieveRequest) (*adapter.RetrieveResponse, error)

	getAsset  func(id string) (*model.RetrievedAsset, error)
	readRange func(id string, start, length int64) ([]byte, error)
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
	if s.getAsset == nil {
		return nil, goerr.New("not found")
	}
	return s.getAsset(id)
}

func (s *stubKnowledge) ReadAssetRange(ctx context.Context, id string, start, length int64) ([]byte, error) {
	if s.readRange == nil {
		return nil, goerr.New("not found")
	}
	return s.readRange(id, start, length)
}

func (s *stubKnowledge) ListAssets(ctx context.Context, req *adapter.ListAssetsRequest) ([]adapter.AssetListEntry, error) {
	return nil, nil
}

func (s *stubKnowledge) DownloadAsset(ctx context.Context, id string, w io.Writer) error {
	return goerr.New("not implemented")
}

func (s *stubKnowledge) ListArtifacts(ctx context.Context, req *adapter.ListArtifactsRequest) ([]adapter.Artifact, error) {
	return nil, nil
}

func (s *stubKnowledge) BuildPageIndex(ctx context.Context, artifactID, kind string) (*adapter.PageIndexStatus, error) {
	return &adapter.PageIndexStatus{ArtifactID: artifactID, Status: "ready"}, nil
}

func (s *stubKnowledge) GetDocumentNode(ctx context.Context, artifactID, nodeID string) (*adapter.DocumentNode, error) {
	return nil, goerr.New("not found")
}

func (s *stubKnowledge) CreateMemory(ctx context.Context, req *adapter.CreateMemoryRequest) (string, error) {
	return "mem-1", nil
}

func (s *stubKnowledge) AttachAsset(ctx context.Context, memoryID, assetID, relation string) error {
	return nil
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
