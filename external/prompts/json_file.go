package prompts

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/foxseedlab/speakscore/internal/prompt"
	"github.com/tidwall/gjson"
)

var modeKeys = map[prompt.Mode]string{
	prompt.ModeRead:   "read_speak_sentences",
	prompt.ModeListen: "listen_speak_sentences",
}

// JSONFileSource serves prompt pools read once from a sentences file:
//
//	{"read_speak_sentences": ["..."], "listen_speak_sentences": ["..."]}
//
// Entries may also be objects carrying a "text" field.
type JSONFileSource struct {
	pools map[prompt.Mode][]prompt.Prompt
}

func LoadJSONFile(path string) (*JSONFileSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	return ParseJSON(b)
}

func ParseJSON(b []byte) (*JSONFileSource, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("prompts file is not valid JSON")
	}
	doc := gjson.ParseBytes(b)
	src := &JSONFileSource{pools: make(map[prompt.Mode][]prompt.Prompt, len(modeKeys))}
	for mode, key := range modeKeys {
		list := doc.Get(key)
		if !list.Exists() {
			continue
		}
		if !list.IsArray() {
			return nil, fmt.Errorf("prompts file: %s must be an array", key)
		}
		for _, item := range list.Array() {
			text := item.String()
			if item.IsObject() {
				text = item.Get("text").String()
			}
			if text = strings.TrimSpace(text); text != "" {
				src.pools[mode] = append(src.pools[mode], prompt.Prompt{Text: text, Mode: mode})
			}
		}
	}
	return src, nil
}

func (s *JSONFileSource) Candidates(_ context.Context, mode prompt.Mode) ([]prompt.Prompt, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", prompt.ErrUnknownMode, mode)
	}
	pool := s.pools[mode]
	out := make([]prompt.Prompt, len(pool))
	copy(out, pool)
	return out, nil
}

// Counts reports pool sizes per mode.
func (s *JSONFileSource) Counts() map[prompt.Mode]int {
	counts := make(map[prompt.Mode]int, len(s.pools))
	for mode := range modeKeys {
		counts[mode] = len(s.pools[mode])
	}
	return counts
}
