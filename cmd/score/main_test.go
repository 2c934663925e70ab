package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/foxseedlab/speakscore/internal/transcriber"
	"github.com/foxseedlab/speakscore/internal/workspace"
)

type stubTranscriber struct {
	res  transcriber.Result
	err  error
	path string
}

func (s *stubTranscriber) Transcribe(_ context.Context, a workspace.Artifact) (transcriber.Result, error) {
	s.path = a.Path
	return s.res, s.err
}

func decode(t *testing.T, b []byte) output {
	t.Helper()
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return out
}

func TestRun_Transcript(t *testing.T) {
	var buf bytes.Buffer
	err := run(context.Background(), []string{
		"-reference", "the cat sat",
		"-transcript", "the cat sat",
		"-duration", "2s",
		"-words",
	}, &buf, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	out := decode(t, buf.Bytes())
	if out.Scores.Accuracy != 100 || out.Scores.Pronunciation != 100 {
		t.Fatalf("unexpected scores: %+v", out.Scores)
	}
	if out.DurationSeconds != 2 || len(out.Words) != 3 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestRun_EnvPrefix(t *testing.T) {
	t.Setenv("SPEAKSCORE_REFERENCE", "hello world")
	var buf bytes.Buffer
	if err := run(context.Background(), nil, &buf, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := decode(t, buf.Bytes())
	if out.Reference != "hello world" || out.Transcript != "" || out.Scores.Accuracy != 0 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestRun_Audio(t *testing.T) {
	stt := &stubTranscriber{res: transcriber.Result{Text: "good morning", Duration: 1500 * time.Millisecond}}
	var buf bytes.Buffer
	err := run(context.Background(), []string{"-reference", "good morning", "-audio", "answer.webm"}, &buf, stt)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stt.path != "answer.webm" {
		t.Fatalf("transcribed %q", stt.path)
	}
	out := decode(t, buf.Bytes())
	if out.Transcript != "good morning" || out.DurationSeconds != 1.5 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		stt  transcriber.Transcriber
	}{
		{"missing reference", []string{"-transcript", "hi"}, nil},
		{"bad policy", []string{"-reference", "hi", "-fluency-policy", "fast"}, nil},
		{"transcription failure", []string{"-reference", "hi", "-audio", "x.webm"}, &stubTranscriber{err: errors.New("boom")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := run(context.Background(), tt.args, &buf, tt.stt); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
