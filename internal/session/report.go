package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/foxseedlab/speakscore/internal/webhook"
)

// Kept explicit instead of time.DateTime so the sheet format can change independently.
const resultTimeLayout = "2006-01-02 15:04:05"

const (
	BandExcellent     = "excellent"
	BandGood          = "good"
	BandFair          = "fair"
	BandNeedsPractice = "needs practice"
)

func Band(overall float64) string {
	switch {
	case overall >= 85:
		return BandExcellent
	case overall >= 70:
		return BandGood
	case overall >= 50:
		return BandFair
	default:
		return BandNeedsPractice
	}
}

// BuildResultText renders a plain-text result sheet for a completed session.
func BuildResultText(r Results) []byte {
	lines := []string{
		fmt.Sprintf("Session: %s", r.SessionID),
		fmt.Sprintf("Mode: %s", r.Mode),
		fmt.Sprintf("Period: %s ~ %s (UTC, %s)",
			r.StartedAt.UTC().Format(resultTimeLayout),
			r.CompletedAt.UTC().Format(resultTimeLayout),
			formatElapsedHMS(r.CompletedAt.Sub(r.StartedAt))),
		"",
	}
	for i, a := range r.Answers {
		heard := a.Transcript
		if heard == "" {
			heard = "(no speech)"
		}
		lines = append(lines,
			fmt.Sprintf("%2d. %s", i+1, a.Prompt),
			fmt.Sprintf("    heard: %s", heard),
			fmt.Sprintf("    pronunciation %.2f  fluency %.2f  grammar %.2f  accuracy %.2f  final %.2f",
				a.Scores.Pronunciation, a.Scores.Fluency, a.Scores.Grammar, a.Scores.Accuracy, a.Scores.Final),
		)
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Overall: %.2f (%s)", r.Overall, Band(r.Overall)),
	)
	return []byte(strings.Join(lines, "\n"))
}

func BuildResultWebhookPayload(r Results) webhook.ResultWebhookPayload {
	answers := make([]webhook.ResultWebhookAnswer, 0, len(r.Answers))
	for i, a := range r.Answers {
		answers = append(answers, webhook.ResultWebhookAnswer{
			Index:           i,
			Prompt:          a.Prompt,
			Transcript:      a.Transcript,
			DurationSeconds: a.Duration.Seconds(),
			Pronunciation:   a.Scores.Pronunciation,
			Fluency:         a.Scores.Fluency,
			Grammar:         a.Scores.Grammar,
			Accuracy:        a.Scores.Accuracy,
			Final:           a.Scores.Final,
		})
	}
	return webhook.ResultWebhookPayload{
		SchemaVersion: webhook.ResultWebhookSchemaVersion,
		SessionID:     r.SessionID,
		Mode:          string(r.Mode),
		StartAt:       r.StartedAt.UTC().Format(time.RFC3339),
		EndAt:         r.CompletedAt.UTC().Format(time.RFC3339),
		QuestionCount: len(r.Answers),
		OverallScore:  r.Overall,
		Band:          Band(r.Overall),
		Answers:       answers,
	}
}

func formatElapsedHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
