package repository

import (
	"context"

	"github.com/pajamadot/recall/pkg/model"
)

// Repository defines the interface for run history persistence
type Repository interface {
	// PutRun saves an emitted run result to the repository
	PutRun(ctx context.Context, rec *model.RunRecord) error

	// GetRun retrieves a run record by ID
	GetRun(ctx context.Context, id string) (*model.RunRecord, error)

	// ListRuns retrieves run records, newest first
	ListRuns(ctx context.Context, offset, limit int) ([]*model.RunRecord, error)

	// Close releases the underlying store
	Close() error
}
