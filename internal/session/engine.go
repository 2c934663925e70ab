package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/foxseedlab/speakscore/internal/observe"
	"github.com/foxseedlab/speakscore/internal/prompt"
	"github.com/foxseedlab/speakscore/internal/repository"
	"github.com/foxseedlab/speakscore/internal/scoring"
	"github.com/foxseedlab/speakscore/internal/transcriber"
	"github.com/foxseedlab/speakscore/internal/webhook"
	"github.com/foxseedlab/speakscore/internal/workspace"
	"github.com/google/uuid"
	"github.com/nats-io/nuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// Browser recorders upload webm; the transcoder probes content, not the name.
	answerAudioExt = ".webm"

	finalizeTimeout = 30 * time.Second
)

// Progress is what a caller learns after one answer is scored.
type Progress struct {
	Result scoring.UtteranceResult
	Done   bool
	// Current is the 1-based number of the next question, or Total when done.
	Current    int
	Total      int
	Remaining  int
	NextPrompt string
	Overall    float64
}

type Engine struct {
	source      prompt.Source
	workspaces  workspace.Provider
	transcriber transcriber.Transcriber
	scorer      *scoring.Scorer
	repo        repository.AssessmentRepository
	webhook     webhook.Sender
	metrics     *observe.Metrics

	transcribeTimeout time.Duration
	now               func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Engine)

// WithRand makes prompt sampling deterministic.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTranscribeTimeout bounds each transcription. A timed out call is
// scored as silence.
func WithTranscribeTimeout(d time.Duration) Option {
	return func(e *Engine) { e.transcribeTimeout = d }
}

func NewEngine(
	source prompt.Source,
	workspaces workspace.Provider,
	stt transcriber.Transcriber,
	scorer *scoring.Scorer,
	repo repository.AssessmentRepository,
	wh webhook.Sender,
	metrics *observe.Metrics,
	opts ...Option,
) *Engine {
	e := &Engine{
		source:      source,
		workspaces:  workspaces,
		transcriber: stt,
		scorer:      scorer,
		repo:        repo,
		webhook:     wh,
		metrics:     metrics,
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Create(ctx context.Context, mode prompt.Mode, requested int) (*Session, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", prompt.ErrUnknownMode, mode)
	}
	n := ClampQuestionCount(requested)

	candidates, err := e.source.Candidates(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("load %s prompts: %w", mode, err)
	}
	pool := prompt.Distinct(candidates)
	if len(pool) < n {
		return nil, fmt.Errorf("%w: mode %s has %d, need %d", ErrInsufficientPrompts, mode, len(pool), n)
	}

	picked := make([]string, 0, n)
	for _, i := range e.sample(len(pool), n) {
		picked = append(picked, pool[i].Text)
	}

	id := uuid.NewString()
	area, err := e.workspaces.Allocate(id)
	if err != nil {
		return nil, fmt.Errorf("allocate working area: %w", err)
	}

	s := newSession(id, mode, picked, area, e.now())
	s.start()

	modeAttr := metric.WithAttributes(attribute.String("mode", string(mode)))
	e.metrics.SessionsStarted.Add(ctx, 1, modeAttr)
	e.metrics.ActiveSessions.Add(ctx, 1)
	slog.Info("session created", "session_id", id, "mode", mode, "questions", n, "pool", len(pool))
	return s, nil
}

func (e *Engine) sample(poolSize, n int) []int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Perm(poolSize)[:n]
}

// Submit scores one recorded answer against the session's current prompt.
// The stored audio is removed before Submit returns, whatever the outcome.
func (e *Engine) Submit(ctx context.Context, s *Session, audio []byte) (Progress, error) {
	reference, area, err := s.reserve(e.now())
	if err != nil {
		e.countSubmission(ctx, observe.StatusRejected)
		return Progress{}, err
	}

	result, degraded, err := e.answer(ctx, s.id, area, reference, audio)
	if err != nil {
		s.unreserve(e.now())
		e.countSubmission(ctx, observe.StatusCancelled)
		return Progress{}, err
	}

	progress, finished, err := s.commit(result, e.now())
	if err != nil {
		// Abandoned while the answer was being transcribed.
		e.countSubmission(ctx, observe.StatusRejected)
		return Progress{}, err
	}
	status := observe.StatusScored
	if degraded {
		status = observe.StatusDegraded
	}
	e.countSubmission(ctx, status)
	e.metrics.FinalScore.Record(ctx, result.Scores.Final, metric.WithAttributes(attribute.String("mode", string(s.mode))))
	slog.Debug("answer scored",
		"session_id", s.id,
		"question", progress.Total-progress.Remaining,
		"total", progress.Total,
		"final", result.Scores.Final,
		"degraded", degraded)

	if progress.Done {
		e.releaseArea(s.id, finished)
		e.metrics.SessionsCompleted.Add(ctx, 1)
		e.metrics.ActiveSessions.Add(ctx, -1)
		slog.Info("session completed", "session_id", s.id, "overall", progress.Overall)
		e.finalize(context.WithoutCancel(ctx), s)
	}
	return progress, nil
}

// answer stores, transcribes and scores one payload. degraded reports that
// the transcriber failed and the answer was scored as silence.
func (e *Engine) answer(ctx context.Context, sessionID string, area workspace.Area, reference string, audio []byte) (scoring.UtteranceResult, bool, error) {
	artifact, err := area.Put(ctx, nuid.Next(), answerAudioExt, audio)
	if err != nil {
		return scoring.UtteranceResult{}, false, fmt.Errorf("store answer audio: %w", err)
	}
	defer func() {
		if err := area.Remove(artifact); err != nil {
			slog.Warn("failed to remove answer audio", "error", err, "session_id", sessionID, "artifact_id", artifact.ID)
		}
	}()

	res, err := e.transcribe(ctx, artifact)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			slog.Info("submission cancelled during transcription", "session_id", sessionID, "error", ctxErr)
			return scoring.UtteranceResult{}, false, ctxErr
		}
		slog.Warn("transcription failed; scoring as silence", "error", err, "session_id", sessionID, "artifact_id", artifact.ID)
		e.metrics.TranscriptionFailures.Add(ctx, 1)
		return e.scorer.Score(reference, "", 0), true, nil
	}
	return e.scorer.Score(reference, res.Text, res.Duration), false, nil
}

func (e *Engine) transcribe(ctx context.Context, artifact workspace.Artifact) (transcriber.Result, error) {
	if e.transcribeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.transcribeTimeout)
		defer cancel()
	}
	started := time.Now()
	res, err := e.transcriber.Transcribe(ctx, artifact)
	e.metrics.TranscriptionDuration.Record(ctx, time.Since(started).Seconds())
	return res, err
}

func (e *Engine) Abandon(ctx context.Context, s *Session) error {
	area, changed, err := s.abandon(e.now())
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	e.abandoned(ctx, s, area, "client")
	return nil
}

// AbandonIdle abandons s only if it is still idle past the timeout and has
// no submission in flight when checked under the session lock.
func (e *Engine) AbandonIdle(ctx context.Context, s *Session, now time.Time, idle time.Duration) bool {
	area, ok := s.abandonIfIdle(now, idle)
	if !ok {
		return false
	}
	e.abandoned(ctx, s, area, "idle")
	return true
}

func (e *Engine) abandoned(ctx context.Context, s *Session, area workspace.Area, reason string) {
	e.releaseArea(s.id, area)
	e.metrics.SessionsAbandoned.Add(ctx, 1)
	e.metrics.ActiveSessions.Add(ctx, -1)
	slog.Info("session abandoned", "session_id", s.id, "reason", reason, "answered", s.Answered(), "total", s.Total())
}

func (e *Engine) releaseArea(sessionID string, area workspace.Area) {
	if area == nil {
		return
	}
	if err := area.Release(); err != nil {
		slog.Warn("failed to release working area", "error", err, "session_id", sessionID)
	}
}

// finalize persists a completed session and notifies the webhook. Failures
// are logged only; the caller already has its results.
func (e *Engine) finalize(ctx context.Context, s *Session) {
	results, err := s.Results()
	if err != nil {
		slog.Error("completed session has no results", "error", err, "session_id", s.id)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, finalizeTimeout)
	defer cancel()

	if err := e.repo.SaveAssessment(ctx, buildSaveAssessmentInput(results)); err != nil {
		slog.Error("failed to save assessment", "error", err, "session_id", s.id)
	}
	if err := e.webhook.SendResults(ctx, BuildResultWebhookPayload(results)); err != nil {
		slog.Error("failed to send result webhook", "error", err, "session_id", s.id)
	}
}

func (e *Engine) countSubmission(ctx context.Context, status string) {
	e.metrics.Submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func buildSaveAssessmentInput(r Results) repository.SaveAssessmentInput {
	answers := make([]repository.SaveAnswerInput, 0, len(r.Answers))
	for _, a := range r.Answers {
		answers = append(answers, repository.SaveAnswerInput{
			Prompt:             a.Prompt,
			Transcript:         a.Transcript,
			DurationSeconds:    a.Duration.Seconds(),
			PronunciationScore: a.Scores.Pronunciation,
			FluencyScore:       a.Scores.Fluency,
			GrammarScore:       a.Scores.Grammar,
			AccuracyScore:      a.Scores.Accuracy,
			FinalScore:         a.Scores.Final,
		})
	}
	return repository.SaveAssessmentInput{
		SessionID:    r.SessionID,
		Mode:         string(r.Mode),
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
		OverallScore: r.Overall,
		Answers:      answers,
	}
}
