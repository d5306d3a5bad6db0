package fiscal

import (
	"context"
	"fmt"
	"time"

	"ferrex/internal/core/apperror"
	"ferrex/internal/core/id"
	"ferrex/internal/core/numerator"
	"ferrex/pkg/logger"
)

// Submitter runs the validate/map/submit/normalize pipeline against the
// configured providers. Implemented by the sunat package.
type Submitter interface {
	Submit(ctx context.Context, doc *Document) (*Result, error)
}

// Service provides business operations for fiscal documents: numbering,
// persistence and submission to the invoicing providers.
type Service struct {
	repo      Repository
	submitter Submitter
	numerator numerator.Generator
}

// NewService creates a new fiscal document service.
func NewService(repo Repository, submitter Submitter, num numerator.Generator) *Service {
	return &Service{
		repo:      repo,
		submitter: submitter,
		numerator: num,
	}
}

// Issue numbers, stores and submits the document, recording the outcome.
// The returned Result is always fully normalized; on failure the error
// carries exactly one code and one message (see apperror submission codes).
func (s *Service) Issue(ctx context.Context, doc *Document) (*Result, error) {
	if doc.Transaction.Number == 0 {
		n, err := s.numerator.NextCorrelative(ctx, doc.Transaction.Series)
		if err != nil {
			return nil, fmt.Errorf("allocate correlative: %w", err)
		}
		doc.Transaction.Number = n
	}

	if id.IsNil(doc.ID) {
		doc.ID = id.New()
	}
	doc.Status = StatusPending
	doc.CreatedAt = time.Now().UTC()
	doc.UpdatedAt = doc.CreatedAt

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	res, err := s.submitter.Submit(ctx, doc)
	if err != nil {
		status := statusForError(err)
		if serr := s.repo.SetStatus(ctx, doc.ID, status); serr != nil {
			logger.Error(ctx, "failed to record submission status",
				"document_id", doc.ID, "status", status, "error", serr)
		}
		doc.Status = status
		return nil, err
	}

	if err := s.repo.RecordSubmission(ctx, doc.ID, res); err != nil {
		logger.Error(ctx, "failed to record submission outcome",
			"document_id", doc.ID, "error", err)
	}
	if err := s.repo.SetStatus(ctx, doc.ID, StatusAccepted); err != nil {
		logger.Error(ctx, "failed to record submission status",
			"document_id", doc.ID, "error", err)
	}
	doc.Status = StatusAccepted

	logger.Info(ctx, "fiscal document accepted",
		"document_id", doc.ID,
		"series", doc.Transaction.Series,
		"number", doc.Transaction.Number,
		"provider", res.Provider)

	return res, nil
}

// GetByID retrieves a stored document.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Document, error) {
	return s.repo.GetByID(ctx, docID)
}

// List returns stored documents matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Document, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListFilter().Limit
	}
	return s.repo.List(ctx, filter)
}

// GetSubmissions returns the recorded submission outcomes for a document.
func (s *Service) GetSubmissions(ctx context.Context, docID id.ID) ([]*Result, error) {
	if _, err := s.repo.GetByID(ctx, docID); err != nil {
		return nil, err
	}
	return s.repo.GetSubmissions(ctx, docID)
}

// statusForError maps a pipeline error onto the stored lifecycle status.
func statusForError(err error) Status {
	switch {
	case apperror.IsValidation(err):
		return StatusInvalid
	case apperror.HasCode(err, apperror.CodeProviderRejected):
		return StatusRejected
	default:
		return StatusErrored
	}
}
