package tool

import (
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/pajamadot/recall/pkg/model"
)

// Client carries the state shared by all tools within one run: the knowledge
// service client, the growing evidence pool, and the per-run cache. It is
// created per run invocation and never shared across runs, so no locking is
// needed.
type Client struct {
	Knowledge adapter.Knowledge
	Evidence  *model.EvidenceSet
	Cache     *Cache

	// Default scope applied when the model omits project_id.
	ProjectID string
	SessionID string
}

// NewClient creates the per-run tool state.
func NewClient(knowledge adapter.Knowledge, projectID, sessionID string) *Client {
	return &Client{
		Knowledge: knowledge,
		Evidence:  model.NewEvidenceSet(),
		Cache:     NewCache(),
		ProjectID: projectID,
		SessionID: sessionID,
	}
}
