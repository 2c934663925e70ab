package webhook

import "context"

const ResultWebhookSchemaVersion = 1

type ResultWebhookPayload struct {
	SchemaVersion int                   `json:"schema_version"`
	SessionID     string                `json:"session_id"`
	Mode          string                `json:"mode"`
	StartAt       string                `json:"start_at"`
	EndAt         string                `json:"end_at"`
	QuestionCount int                   `json:"question_count"`
	OverallScore  float64               `json:"overall_score"`
	Band          string                `json:"band"`
	Answers       []ResultWebhookAnswer `json:"answers"`
}

type ResultWebhookAnswer struct {
	Index           int     `json:"index"`
	Prompt          string  `json:"prompt"`
	Transcript      string  `json:"transcript"`
	DurationSeconds float64 `json:"duration_seconds"`
	Pronunciation   float64 `json:"pronunciation"`
	Fluency         float64 `json:"fluency"`
	Grammar         float64 `json:"grammar"`
	Accuracy        float64 `json:"accuracy"`
	Final           float64 `json:"final"`
}

type Sender interface {
	SendResults(ctx context.Context, payload ResultWebhookPayload) error
}
