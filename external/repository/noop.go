package repository

import (
	"context"

	"github.com/foxseedlab/speakscore/internal/repository"
)

// noopRepository is used when no database is configured. Completed
// assessments are only reported through the webhook.
type noopRepository struct{}

func NewNoopRepository() repository.Repository {
	return noopRepository{}
}

func (noopRepository) SaveAssessment(context.Context, repository.SaveAssessmentInput) error {
	return nil
}

func (noopRepository) GetAssessment(context.Context, string) (*repository.Assessment, error) {
	return nil, nil
}

func (noopRepository) ListRecentAssessments(context.Context, int) ([]repository.Assessment, error) {
	return nil, nil
}

func (noopRepository) Ping(context.Context) error {
	return nil
}
