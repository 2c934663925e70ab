package repository

import "time"

type Assessment struct {
	ID            string
	Mode          string
	StartedAt     time.Time
	CompletedAt   time.Time
	QuestionCount int
	OverallScore  float64
	Answers       []Answer
	CreatedAt     time.Time
}

type Answer struct {
	AssessmentID       string
	QuestionIndex      int
	Prompt             string
	Transcript         string
	DurationSeconds    float64
	PronunciationScore float64
	FluencyScore       float64
	GrammarScore       float64
	AccuracyScore      float64
	FinalScore         float64
}
