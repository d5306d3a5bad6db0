package fiscal

import (
	"context"

	"ferrex/internal/core/id"
)

// Repository defines persistence operations for fiscal documents.
type Repository interface {
	// Create stores the document with its items.
	Create(ctx context.Context, doc *Document) error

	// GetByID retrieves a document with its items.
	GetByID(ctx context.Context, docID id.ID) (*Document, error)

	// List returns documents matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*Document, error)

	// SetStatus updates the submission lifecycle status.
	SetStatus(ctx context.Context, docID id.ID, status Status) error

	// RecordSubmission stores the outcome of one submission attempt.
	RecordSubmission(ctx context.Context, docID id.ID, res *Result) error

	// GetSubmissions returns recorded outcomes for a document, newest first.
	GetSubmissions(ctx context.Context, docID id.ID) ([]*Result, error)
}

// ListFilter for filtering stored documents.
type ListFilter struct {
	Series string
	Status Status
	Limit  int
	Offset int
}

// DefaultListFilter returns standard pagination defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 50}
}
