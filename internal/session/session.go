package session

import (
	"sync"
	"time"

	"github.com/foxseedlab/speakscore/internal/prompt"
	"github.com/foxseedlab/speakscore/internal/scoring"
	"github.com/foxseedlab/speakscore/internal/workspace"
)

const (
	MinQuestions = 3
	MaxQuestions = 20
)

type State string

const (
	StateCreated    State = "created"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateAbandoned  State = "abandoned"
)

// ClampQuestionCount bounds a requested question count to the supported range.
func ClampQuestionCount(requested int) int {
	return max(MinQuestions, min(requested, MaxQuestions))
}

// Session is one test run. All fields after mu are guarded by it; the
// prompt list is fixed at creation.
type Session struct {
	id        string
	mode      prompt.Mode
	prompts   []string
	startedAt time.Time

	mu           sync.Mutex
	state        State
	index        int
	results      []scoring.UtteranceResult
	overall      float64
	completedAt  time.Time
	busy         bool
	area         workspace.Area
	lastActivity time.Time
}

type Results struct {
	SessionID   string
	Mode        prompt.Mode
	StartedAt   time.Time
	CompletedAt time.Time
	Answers     []scoring.UtteranceResult
	Overall     float64
}

func newSession(id string, mode prompt.Mode, prompts []string, area workspace.Area, now time.Time) *Session {
	return &Session{
		id:           id,
		mode:         mode,
		prompts:      prompts,
		startedAt:    now,
		state:        StateCreated,
		results:      make([]scoring.UtteranceResult, 0, len(prompts)),
		area:         area,
		lastActivity: now,
	}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) Mode() prompt.Mode    { return s.mode }
func (s *Session) Total() int           { return len(s.prompts) }
func (s *Session) StartedAt() time.Time { return s.startedAt }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Answered is the number of prompts already scored.
func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) busyNow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Session) CurrentPrompt() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateCompleted:
		return "", ErrSessionComplete
	case StateInProgress:
		return s.prompts[s.index], nil
	default:
		return "", ErrInvalidSessionState
	}
}

func (s *Session) Results() (Results, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCompleted {
		return Results{}, ErrResultsNotReady
	}
	answers := make([]scoring.UtteranceResult, len(s.results))
	copy(answers, s.results)
	return Results{
		SessionID:   s.id,
		Mode:        s.mode,
		StartedAt:   s.startedAt,
		CompletedAt: s.completedAt,
		Answers:     answers,
		Overall:     s.overall,
	}, nil
}

func (s *Session) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCreated && len(s.prompts) > 0 {
		s.state = StateInProgress
	}
}

// reserve marks the session busy for one submission and returns the prompt
// being answered together with the working area to store audio in.
func (s *Session) reserve(now time.Time) (string, workspace.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress || s.busy {
		return "", nil, ErrInvalidSessionState
	}
	s.busy = true
	s.lastActivity = now
	return s.prompts[s.index], s.area, nil
}

func (s *Session) unreserve(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.lastActivity = now
}

// commit appends a scored answer and advances. When the last prompt is
// answered it computes the overall score, completes the session and hands
// back the area for release.
func (s *Session) commit(result scoring.UtteranceResult, now time.Time) (Progress, workspace.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.lastActivity = now
	if s.state != StateInProgress {
		return Progress{}, nil, ErrInvalidSessionState
	}

	s.results = append(s.results, result)
	s.index++
	total := len(s.prompts)
	p := Progress{
		Result:    result,
		Total:     total,
		Remaining: total - s.index,
	}
	if s.index < total {
		p.Current = s.index + 1
		p.NextPrompt = s.prompts[s.index]
		return p, nil, nil
	}

	finals := make([]float64, len(s.results))
	for i, r := range s.results {
		finals[i] = r.Scores.Final
	}
	s.overall = scoring.Overall(finals)
	s.state = StateCompleted
	s.completedAt = now
	area := s.area
	s.area = nil

	p.Done = true
	p.Current = total
	p.Overall = s.overall
	return p, area, nil
}

// abandonIfIdle abandons an unfinished session only if, under the lock, it has
// no submission in flight and has been idle longer than idle.
func (s *Session) abandonIfIdle(now time.Time, idle time.Duration) (workspace.Area, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy || now.Sub(s.lastActivity) <= idle {
		return nil, false
	}
	if s.state != StateCreated && s.state != StateInProgress {
		return nil, false
	}
	s.state = StateAbandoned
	area := s.area
	s.area = nil
	return area, true
}

// abandon returns the area to release, or nil when already abandoned.
func (s *Session) abandon(now time.Time) (workspace.Area, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateAbandoned:
		return nil, false, nil
	case StateCompleted:
		return nil, false, ErrInvalidSessionState
	}
	s.state = StateAbandoned
	s.lastActivity = now
	area := s.area
	s.area = nil
	return area, true, nil
}
