package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/model"
)

// RetrieveRequest is the knowledge service retrieval call. DryRun requests
// retrieval only, with no server-side synthesis.
type RetrieveRequest struct {
	Query            string `json:"query"`
	ProjectID        string `json:"project_id,omitempty"`
	IncludeAssets    bool   `json:"include_assets"`
	IncludeDocuments bool   `json:"include_documents"`
	DocumentLimit    int    `json:"document_limit,omitempty"`
	RetrievalMode    string `json:"retrieval_mode,omitempty"`
	MemoryMode       string `json:"memory_mode,omitempty"`
	DryRun           bool   `json:"dry_run"`
	Limit            int    `json:"limit,omitempty"`
}

// RetrieveResponse carries one batch of retrieval results.
type RetrieveResponse struct {
	Memories  []model.RetrievedMemory    `json:"memories"`
	Assets    map[string][]assetPayload  `json:"assets,omitempty"`
	Documents []model.RetrievedDocument  `json:"documents,omitempty"`
}

// ToEvidence converts the response into a mergeable evidence set.
func (r *RetrieveResponse) ToEvidence() *model.EvidenceSet {
	ev := model.NewEvidenceSet()
	ev.Memories = append(ev.Memories, r.Memories...)
	for memID, assets := range r.Assets {
		converted := make([]model.RetrievedAsset, 0, len(assets))
		for _, a := range assets {
			converted = append(converted, a.toModel())
		}
		ev.AssetsIndex[memID] = converted
	}
	ev.Documents = append(ev.Documents, r.Documents...)
	return ev
}

// assetPayload is the wire shape of an asset. byte_size arrives as either a
// JSON number or a decimal string depending on the storage backend.
type assetPayload struct {
	ID           string      `json:"id"`
	ProjectID    string      `json:"project_id"`
	Status       string      `json:"status"`
	ContentType  string      `json:"content_type"`
	ByteSize     flexInt64   `json:"byte_size"`
	OriginalName string      `json:"original_name,omitempty"`
	R2Key        string      `json:"r2_key,omitempty"`
	CreatedAt    string      `json:"created_at,omitempty"`
	MemoryLinks  []AssetLink `json:"memory_links,omitempty"`
}

func (a assetPayload) toModel() model.RetrievedAsset {
	name := a.OriginalName
	if name == "" {
		name = a.R2Key
	}
	return model.RetrievedAsset{
		ID:           a.ID,
		ProjectID:    a.ProjectID,
		Status:       a.Status,
		ContentType:  a.ContentType,
		ByteSize:     int64(a.ByteSize),
		OriginalName: name,
		CreatedAt:    a.CreatedAt,
	}
}

// AssetLink describes a memory an asset is attached to.
type AssetLink struct {
	MemoryID string `json:"memory_id"`
	Relation string `json:"relation,omitempty"`
}

// AssetListEntry pairs a listed asset with the memories it is attached to.
// MemoryLinks is populated only when the listing asked for them.
type AssetListEntry struct {
	Asset       model.RetrievedAsset `json:"asset"`
	MemoryLinks []AssetLink          `json:"memory_links,omitempty"`
}

type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid byte_size", goerr.V("value", s))
	}
	*f = flexInt64(n)
	return nil
}

// ListAssetsRequest filters the asset listing.
type ListAssetsRequest struct {
	ProjectID          string
	Query              string
	Status             string
	Limit              int
	IncludeMemoryLinks bool
}

// ListArtifactsRequest filters the artifact listing.
type ListArtifactsRequest struct {
	ProjectID string
	Type      string
	Limit     int
}

// Artifact is a long document registered with the knowledge service.
type Artifact struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// PageIndexStatus reports the state of an artifact's page index build.
type PageIndexStatus struct {
	ArtifactID string `json:"artifact_id"`
	Status     string `json:"status"`
	NodeCount  int    `json:"node_count,omitempty"`
}

// DocumentNode is one addressable node of an artifact's page index.
type DocumentNode struct {
	ArtifactID string   `json:"artifact_id"`
	NodeID     string   `json:"node_id"`
	Title      string   `json:"title"`
	Path       []string `json:"path"`
	Excerpt    string   `json:"excerpt,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Content    string   `json:"content,omitempty"`
}

// CreateMemoryRequest creates a durable memory.
type CreateMemoryRequest struct {
	ProjectID  string         `json:"project_id"`
	SessionID  string         `json:"session_id,omitempty"`
	Category   string         `json:"category"`
	SourceType string         `json:"source_type"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Tags       []string       `json:"tags"`
	Context    map[string]any `json:"context"`
	Confidence float64        `json:"confidence"`
}

// Memory is the full memory record, used by the CLI subcommands.
type Memory struct {
	ID         string   `json:"id"`
	ProjectID  string   `json:"project_id"`
	Category   string   `json:"category"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Confidence float64  `json:"confidence"`
	UpdatedAt  string   `json:"updated_at,omitempty"`
}

// ListMemoriesRequest filters the memory listing.
type ListMemoriesRequest struct {
	ProjectID string
	Category  string
	Query     string
	Tag       string
	Limit     int
}

// Project is a tenant project of the knowledge service.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Engine      string `json:"engine"`
	Description string `json:"description"`
}

// CreateAssetUploadRequest starts a multipart asset upload.
type CreateAssetUploadRequest struct {
	ProjectID    string         `json:"project_id"`
	OriginalName string         `json:"original_name"`
	ContentType  string         `json:"content_type"`
	ByteSize     int64          `json:"byte_size"`
	PartSize     int64          `json:"part_size"`
	MemoryID     string         `json:"memory_id,omitempty"`
	Relation     string         `json:"relation,omitempty"`
	Metadata     map[string]any `json:"metadata"`
}

// CreateAssetUploadResponse returns the asset id and the part size the
// service settled on.
type CreateAssetUploadResponse struct {
	ID             string    `json:"id"`
	UploadPartSize flexInt64 `json:"upload_part_size"`
}

// Knowledge is the client interface for the knowledge-retrieval service.
// Everything is treated as black-box CRUD + search.
type Knowledge interface {
	Retrieve(ctx context.Context, req *RetrieveRequest) (*RetrieveResponse, error)

	GetAsset(ctx context.Context, id string) (*model.RetrievedAsset, error)
	ReadAssetRange(ctx context.Context, id string, start, length int64) ([]byte, error)
	ListAssets(ctx context.Context, req *ListAssetsRequest) ([]AssetListEntry, error)
	DownloadAsset(ctx context.Context, id string, w io.Writer) error

	ListArtifacts(ctx context.Context, req *ListArtifactsRequest) ([]Artifact, error)
	BuildPageIndex(ctx context.Context, artifactID, kind string) (*PageIndexStatus, error)
	GetDocumentNode(ctx context.Context, artifactID, nodeID string) (*DocumentNode, error)

	CreateMemory(ctx context.Context, req *CreateMemoryRequest) (string, error)
	AttachAsset(ctx context.Context, memoryID, assetID, relation string) error
	ListMemories(ctx context.Context, req *ListMemoriesRequest) ([]Memory, error)
	GetMemory(ctx context.Context, id string) (*Memory, error)

	ListProjects(ctx context.Context) ([]Project, error)
	CreateProject(ctx context.Context, name, engine, description string) (string, error)

	CreateAssetUpload(ctx context.Context, req *CreateAssetUploadRequest) (*CreateAssetUploadResponse, error)
	UploadAssetPart(ctx context.Context, assetID string, part int, data []byte) error
	CompleteAssetUpload(ctx context.Context, assetID string) (json.RawMessage, error)
}

// KnowledgeClient talks to the knowledge service over JSON/HTTPS with a
// forwarded bearer credential.
type KnowledgeClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// KnowledgeOption configures a KnowledgeClient.
type KnowledgeOption func(*KnowledgeClient)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) KnowledgeOption {
	return func(k *KnowledgeClient) {
		k.client = hc
	}
}

// NewKnowledge creates a knowledge service client.
func NewKnowledge(baseURL, token string, opts ...KnowledgeOption) (*KnowledgeClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, goerr.New("knowledge service base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, goerr.Wrap(err, "invalid base URL", goerr.V("url", baseURL))
	}

	k := &KnowledgeClient{
		baseURL: baseURL,
		token:   token,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

func (k *KnowledgeClient) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+k.token)
	return h
}

func (k *KnowledgeClient) Retrieve(ctx context.Context, req *RetrieveRequest) (*RetrieveResponse, error) {
	var resp RetrieveResponse
	err := requestJSON(ctx, k.client, &httpRequest{
		Method: http.MethodPost,
		URL:    k.baseURL + "/api/retrieve",
		Header: k.header(),
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, goerr.Wrap(err, "retrieval failed")
	}
	return &resp, nil
}

func (k *KnowledgeClient) GetAsset(ctx context.Context, id string) (*model.RetrievedAsset, error) {
	var payload assetPayload
	err := requestJSON(ctx, k.client, &httpRequest{
		Method: http.MethodGet,
		URL:    k.baseURL + "/api/assets/" + url.PathEscape(id),
		Header: k.header(),
	}, &payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get asset", goerr.V("asset_id", id))
	}
	asset := payload.toModel()
	return &asset, nil
}

func (k *KnowledgeClient) ReadAssetRange(ctx context.Context, id string, start, length int64) ([]byte, error) {
	h := k.header()
	h.Set("Range", fmt.Sprintf("bytes=%d-%d", start, start+length-1))

	data, err := requestBytes(ctx, k.client, &httpRequest{
		Method:  http.MethodGet,
		URL:     k.baseURL + "/api/assets/" + url.PathEscape(id) + "/object",
		Header:  h,
		Timeout: AssetReadTimeout,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read asset bytes", goerr.V("asset_id", id))
	}
	return data, nil
}

func (k *KnowledgeClient) ListAssets(ctx context.Context, req *ListAssetsRequest) ([]AssetListEntry, error) {
	query := url.Values{}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.ProjectID != "" {
		query.Set("project_id", req.ProjectID)
	}
	if req.Query != "" {
		query.Set("q", req.Query)
	}
	if req.Status != "" {
		query.Set("status", req.Status)
	}
	if req.IncludeMemoryLinks {
		query.Set("include_memory_links", "true")
	}

	var resp struct {
		Assets []assetPayload `json:"assets"`
	}
	err := requestJSON(ctx, k.client, &httpRequest{
		Method: http.MethodGet,
		URL:    k.baseURL + "/api/assets",
		Query:  query,
		Header: k.header(),
	}, &resp)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assets")
	}

	entries := make([]AssetListEntry, 0, len(resp.Assets))
	for _, a := range resp.Assets {
		entries = append(entries, AssetListEntry{
			Asset:       a.toModel(),
			MemoryLinks: a.MemoryLinks,
		})
	}
	return entries, nil
}

func (k *KnowledgeClient) DownloadAsset(ctx context.Context, id string, w io.Writer) error {
	req, cancel, err := (&httpRequest{
		Method:  http.MethodGet,
		URL:     k.baseURL + "/api/assets/" + url.PathEscape(id) + "/object",
		Header:  k.header(),
		Timeout: AssetReadTimeout,
	}).build(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	resp, err := k.client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "download failed", goerr.V("asset_id", id))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyChars))
		return &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return goerr.Wrap(err, "failed to write download", goerr.V("asset_id", id))
	}
	return nil
}

func (k *KnowledgeClient) ListArtifacts(ctx context.Context, req *ListArtifactsRequest) ([]Artifact, error) {
	query := url.Values{}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.ProjectID != "" {
		query.Set("project_id", req.ProjectID)
	}
	if req.Type != "" {
		query.Set("type", req.Type)
	}

	var resp struct {
		Artifacts []Artifact `json:"artifacts"`
	}
	err := requestJSON(ctx, k.client, &httpRequest{
		Method: http.MethodGet,
		URL:    k.baseURL + "/api/artifacts",
		Query:  query,
		Header: k.header(),
	}, &resp)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list artifacts")
	}
	return resp.Artifacts, nil
}

func (k *KnowledgeClient) BuildPageIndex(ctx context.Context, artifactID, kind string) (*PageIndexStatus, error) {
	body := map[string]any{}
	if kind != "" {
		body["kind"] = kind
	}

	var status PageIndexStatus
	err := requestJSON(ctx, k.client, &httpRequest{
		Method: http.MethodPost,
		URL:    k.baseURL + "/api/artifacts/" + url.PathEscape(artifactID) + "/pageindex",
		Header: k.header(),
		Body:   body,
	}, &status)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build page index", goerr.V("artifact_id", artifactID))
	}
	if status.ArtifactID == "" {
		status.ArtifactID = artifactID
	}
	return &status, nil
}

func (k *KnowledgeClient) GetDocumentNode(ctx context.Context, artifactID, nodeID string) (*DocumentNode, error) {
	var node DocumentNode
	err := requestJSON(ctx, k.client, &httpRequest{
		Method: http.MethodGet,
		URL: k.baseURL + "/api/artifacts/" + url.PathEscape(artifactID) +
			"/pageindex/nodes/" + url.PathEscape(nodeID),
		Header: k.header(),
	}, &node)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read document node",
			goerr.V("artifact_id", artifactID), goerr.V("node_id", nodeID))
	}
	if node.ArtifactID == "" {
		node.ArtifactID = artifactID
	}
	if node.NodeID == "" {
		node.NodeID = nodeID
	}
	return &node, nil
}

func (k *KnowledgeClient) CreateMemory(ctx context.Context, req *CreateMemoryRequest) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := requestJSON(ctx, k.client, &httpRequest{
		Method: http.MethodPost,
		URL:    k.baseURL + "/api/memories",
		Header: k.header(),
		Body:   req,
	}, &resp)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create memory")
	}
	return resp.ID, nil
}

func (k *KnowledgeClient) AttachAsset(ctx context.Context, memoryID, assetID, relation string) error {
	body := map[string]any{"asset_id": assetID}
	if relation != "" {
		body["relation"] = relation
	}

	err := requestJSON(ctx, k.client, &httpRequest{
		Method: http.MethodPost,
		URL:    k.baseURL + "/api/memories/" + url.PathEscape(memoryID) + "/assets",
		Header: k.header(),
		Body:   body,
	}, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to attach asset",
			goerr.V("memory_id", memoryID), goerr.V("asset_id", assetID))
	}
	return nil
}

func (k *KnowledgeClient) ListMemories(ctx context.Context, req *ListMemoriesRequest) ([]Memory, error) {
	query := url.Values{}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.ProjectID != "" {
		query.Set("project_id", req.ProjectID)
	}
	if req.Category != "" {
		query.Set("category", req.Category)
	}
	if req.Query != "" {
		query.Set("q", req.Query)
	}
	if req.Tag != "" {
		query.Set("tag", req.Tag)
	}

	var resp struct {
		Memories []Memory `json:"memories"`
	}
	err := requestJSON(ctx, k.client, &httpRequest{
		Method: http.MethodGet,
		URL:    k.baseURL + "/api/memories",
		Query:  query,
		Header: k.header(),
	}, &resp)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories")
	}
	return resp.Memories, nil
}

func (k *KnowledgeClient) GetMemory(ctx context.Context, id string) (*Memory, error) {
	var mem Memory
	err := requestJSON(ctx, k.client, &httpRequest{
		Method: http.MethodGet,
		URL:    k.baseURL + "/api/memories/" + url.PathEscape(id),
		Header: k.header(),
	}, &mem)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("memory_id", id))
	}
	return &mem, nil
}

func (k *KnowledgeClient) ListProjects(ctx context.Context) ([]Project, error) {
	var resp struct {
		Projects []Project `json:"projects"`
	}
	err := requestJSON(ctx, k.client, &httpRequest{
		Method: http.MethodGet,
		URL:    k.baseURL + "/api/projects",
		Header: k.header(),
	}, &resp)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list projects")
	}
	return resp.Projects, nil
}

func (k *KnowledgeClient) CreateProject(ctx context.Context, name, engine, description string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := requestJSON(ctx, k.client, &httpRequest{
		Method: http.MethodPost,
		URL:    k.baseURL + "/api/projects",
		Header: k.header(),
		Body: map[string]string{
			"name":        name,
			"engine":      engine,
			"description": description,
		},
	}, &resp)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create project")
	}
	return resp.ID, nil
}

func (k *KnowledgeClient) CreateAssetUpload(ctx context.Context, req *CreateAssetUploadRequest) (*CreateAssetUploadResponse, error) {
	var resp CreateAssetUploadResponse
	err := requestJSON(ctx, k.client, &httpRequest{
		Method: http.MethodPost,
		URL:    k.baseURL + "/api/assets",
		Header: k.header(),
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create asset upload")
	}
	return &resp, nil
}

func (k *KnowledgeClient) UploadAssetPart(ctx context.Context, assetID string, part int, data []byte) error {
	h := k.header()
	h.Set("Content-Type", "application/octet-stream")

	err := requestJSON(ctx, k.client, &httpRequest{
		Method:  http.MethodPut,
		URL:     k.baseURL + "/api/assets/" + url.PathEscape(assetID) + "/parts/" + strconv.Itoa(part),
		Header:  h,
		RawBody: data,
		Timeout: AssetReadTimeout,
	}, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to upload part",
			goerr.V("asset_id", assetID), goerr.V("part", part))
	}
	return nil
}

func (k *KnowledgeClient) CompleteAssetUpload(ctx context.Context, assetID string) (json.RawMessage, error) {
	data, err := requestBytes(ctx, k.client, &httpRequest{
		Method: http.MethodPost,
		URL:    k.baseURL + "/api/assets/" + url.PathEscape(assetID) + "/complete",
		Header: k.header(),
		Body:   map[string]any{},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to complete upload", goerr.V("asset_id", assetID))
	}
	return json.RawMessage(data), nil
}
