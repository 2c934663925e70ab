package prompts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/foxseedlab/speakscore/internal/prompt"
)

const sampleSentences = `{
	"read_speak_sentences": ["The cat sat on the mat.", "  ", {"text": "She sells sea shells."}],
	"listen_speak_sentences": ["Where is the station?"],
	"unused": [1, 2, 3]
}`

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentences.json")
	if err := os.WriteFile(path, []byte(sampleSentences), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	src, err := LoadJSONFile(path)
	if err != nil {
		t.Fatalf("LoadJSONFile: %v", err)
	}

	read, err := src.Candidates(context.Background(), prompt.ModeRead)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(read) != 2 || read[0].Text != "The cat sat on the mat." || read[1].Text != "She sells sea shells." {
		t.Fatalf("unexpected read pool: %+v", read)
	}
	if read[0].Mode != prompt.ModeRead {
		t.Fatalf("unexpected mode: %s", read[0].Mode)
	}

	listen, err := src.Candidates(context.Background(), prompt.ModeListen)
	if err != nil || len(listen) != 1 {
		t.Fatalf("unexpected listen pool: %+v, %v", listen, err)
	}
	if counts := src.Counts(); counts[prompt.ModeRead] != 2 || counts[prompt.ModeListen] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestCandidates_ReturnsCopy(t *testing.T) {
	src, err := ParseJSON([]byte(sampleSentences))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	got, _ := src.Candidates(context.Background(), prompt.ModeRead)
	got[0].Text = "mutated"
	again, _ := src.Candidates(context.Background(), prompt.ModeRead)
	if again[0].Text == "mutated" {
		t.Fatal("Candidates must not expose internal pool")
	}
}

func TestCandidates_UnknownMode(t *testing.T) {
	src, err := ParseJSON([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if _, err := src.Candidates(context.Background(), prompt.Mode("speak")); !errors.Is(err, prompt.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
	empty, err := src.Candidates(context.Background(), prompt.ModeRead)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty pool, got %+v, %v", empty, err)
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	tests := map[string]string{
		"malformed": `{"read_speak_sentences": [`,
		"not array": `{"read_speak_sentences": "one sentence"}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseJSON([]byte(in)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadJSONFile_Missing(t *testing.T) {
	if _, err := LoadJSONFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
