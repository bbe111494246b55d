package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository"
)

// ErrSubmissionNotFound is returned for an unknown submission ID.
var ErrSubmissionNotFound = errors.New("submission not found")

// SubmissionReader reads stored submissions.
type SubmissionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error)
}

// SubmissionService exposes stored submissions to administrators.
type SubmissionService struct {
	store SubmissionReader
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(store SubmissionReader) *SubmissionService {
	return &SubmissionService{store: store}
}

// GetSubmission returns a submission by ID.
func (s *SubmissionService) GetSubmission(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	sub, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}
