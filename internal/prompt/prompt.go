package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownMode = errors.New("unknown prompt mode")

// Mode is how a prompt is presented: read from screen or repeated after
// listening to it.
type Mode string

const (
	ModeRead   Mode = "read"
	ModeListen Mode = "listen"
)

func (m Mode) IsValid() bool {
	return m == ModeRead || m == ModeListen
}

func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

type Prompt struct {
	Text string
	Mode Mode
}

// Source supplies the pool of candidate prompts for a mode.
type Source interface {
	Candidates(ctx context.Context, mode Mode) ([]Prompt, error)
}

// StaticSource serves fixed in-memory pools.
type StaticSource map[Mode][]string

func (s StaticSource) Candidates(_ context.Context, mode Mode) ([]Prompt, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	texts := s[mode]
	out := make([]Prompt, 0, len(texts))
	for _, t := range texts {
		out = append(out, Prompt{Text: t, Mode: mode})
	}
	return out, nil
}

// Distinct drops empty and repeated prompt texts, keeping first occurrences
// in order.
func Distinct(pool []Prompt) []Prompt {
	seen := make(map[string]struct{}, len(pool))
	out := make([]Prompt, 0, len(pool))
	for _, p := range pool {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		p.Text = text
		out = append(out, p)
	}
	return out
}
