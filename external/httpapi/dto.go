package httpapi

import (
	"time"

	"github.com/foxseedlab/speakscore/internal/repository"
	"github.com/foxseedlab/speakscore/internal/scoring"
	"github.com/foxseedlab/speakscore/internal/session"
)

type createSessionRequest struct {
	Mode          string `json:"mode"`
	QuestionCount int    `json:"question_count"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	State     string `json:"state"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
	Prompt    string `json:"prompt,omitempty"`
}

type answerResponse struct {
	Prompt          string                 `json:"prompt"`
	Transcript      string                 `json:"transcript"`
	DurationSeconds float64                `json:"duration_seconds"`
	Scores          scoring.Scores         `json:"scores"`
	Words           []scoring.WordFeedback `json:"words,omitempty"`
}

type progressResponse struct {
	Done       bool           `json:"done"`
	Current    int            `json:"current"`
	Total      int            `json:"total"`
	Remaining  int            `json:"remaining"`
	NextPrompt string         `json:"next_prompt,omitempty"`
	Overall    *float64       `json:"overall,omitempty"`
	Result     answerResponse `json:"result"`
}

type resultsResponse struct {
	SessionID   string           `json:"session_id"`
	Mode        string           `json:"mode"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
	Overall     float64          `json:"overall"`
	Band        string           `json:"band"`
	Answers     []answerResponse `json:"answers"`
}

type assessmentAnswerResponse struct {
	Index           int            `json:"index"`
	Prompt          string         `json:"prompt"`
	Transcript      string         `json:"transcript"`
	DurationSeconds float64        `json:"duration_seconds"`
	Scores          scoring.Scores `json:"scores"`
}

type assessmentResponse struct {
	ID            string                     `json:"id"`
	Mode          string                     `json:"mode"`
	StartedAt     time.Time                  `json:"started_at"`
	CompletedAt   time.Time                  `json:"completed_at"`
	QuestionCount int                        `json:"question_count"`
	Overall       float64                    `json:"overall"`
	Band          string                     `json:"band"`
	Answers       []assessmentAnswerResponse `json:"answers,omitempty"`
}

func newAnswerResponse(r scoring.UtteranceResult) answerResponse {
	return answerResponse{
		Prompt:          r.Prompt,
		Transcript:      r.Transcript,
		DurationSeconds: r.Duration.Seconds(),
		Scores:          r.Scores,
		Words:           r.Words,
	}
}

func newProgressResponse(p session.Progress) progressResponse {
	out := progressResponse{
		Done:       p.Done,
		Current:    p.Current,
		Total:      p.Total,
		Remaining:  p.Remaining,
		NextPrompt: p.NextPrompt,
		Result:     newAnswerResponse(p.Result),
	}
	if p.Done {
		overall := p.Overall
		out.Overall = &overall
	}
	return out
}

func newResultsResponse(r session.Results) resultsResponse {
	answers := make([]answerResponse, 0, len(r.Answers))
	for _, a := range r.Answers {
		answers = append(answers, newAnswerResponse(a))
	}
	return resultsResponse{
		SessionID:   r.SessionID,
		Mode:        string(r.Mode),
		StartedAt:   r.StartedAt.UTC(),
		CompletedAt: r.CompletedAt.UTC(),
		Overall:     r.Overall,
		Band:        session.Band(r.Overall),
		Answers:     answers,
	}
}

func newAssessmentResponse(a repository.Assessment) assessmentResponse {
	out := assessmentResponse{
		ID:            a.ID,
		Mode:          a.Mode,
		StartedAt:     a.StartedAt.UTC(),
		CompletedAt:   a.CompletedAt.UTC(),
		QuestionCount: a.QuestionCount,
		Overall:       a.OverallScore,
		Band:          session.Band(a.OverallScore),
	}
	for _, ans := range a.Answers {
		out.Answers = append(out.Answers, assessmentAnswerResponse{
			Index:           ans.QuestionIndex,
			Prompt:          ans.Prompt,
			Transcript:      ans.Transcript,
			DurationSeconds: ans.DurationSeconds,
			Scores: scoring.Scores{
				Pronunciation: ans.PronunciationScore,
				Fluency:       ans.FluencyScore,
				Grammar:       ans.GrammarScore,
				Accuracy:      ans.AccuracyScore,
				Final:         ans.FinalScore,
			},
		})
	}
	return out
}
