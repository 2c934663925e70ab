package repository

import (
	"context"
	"time"
)

type SaveAssessmentInput struct {
	SessionID    string
	Mode         string
	StartedAt    time.Time
	CompletedAt  time.Time
	OverallScore float64
	Answers      []SaveAnswerInput
}

type SaveAnswerInput struct {
	Prompt             string
	Transcript         string
	DurationSeconds    float64
	PronunciationScore float64
	FluencyScore       float64
	GrammarScore       float64
	AccuracyScore      float64
	FinalScore         float64
}

type AssessmentRepository interface {
	SaveAssessment(ctx context.Context, input SaveAssessmentInput) error
	// GetAssessment returns nil, nil when no assessment has the given ID.
	GetAssessment(ctx context.Context, id string) (*Assessment, error)
	ListRecentAssessments(ctx context.Context, limit int) ([]Assessment, error)
}

type Repository interface {
	AssessmentRepository
	Ping(ctx context.Context) error
}
