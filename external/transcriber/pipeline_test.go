package transcriber

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	audioimpl "github.com/foxseedlab/speakscore/external/audio"
	"github.com/foxseedlab/speakscore/internal/audio"
	"github.com/foxseedlab/speakscore/internal/workspace"
)

// toneWAV is a 440 Hz tone, loud enough to pass the silence gate.
func toneWAV(d time.Duration) []byte {
	n := int(d.Seconds() * 16000)
	data := make([]byte, n*2)
	for i := range n {
		v := int16(10000 * math.Sin(2*math.Pi*440*float64(i)/16000))
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}
	return audioimpl.EncodeWAV(audio.PCM{Data: data, SampleRate: 16000, Channels: 1})
}

func silentWAV(d time.Duration) []byte {
	n := int(d.Seconds() * 16000)
	return audioimpl.EncodeWAV(audio.PCM{Data: make([]byte, n*2), SampleRate: 16000, Channels: 1})
}

type mockTranscoder struct {
	wav []byte
	err error
}

func (m *mockTranscoder) Transcode(_ context.Context, inputPath string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	out := audioimpl.OutputPath(inputPath)
	return out, os.WriteFile(out, m.wav, 0o600)
}

type mockRecognizer struct {
	text  string
	err   error
	calls int
}

func (m *mockRecognizer) Recognize(_ context.Context, _ audio.PCM) (string, error) {
	m.calls++
	return m.text, m.err
}

func artifactIn(t *testing.T) workspace.Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a1.webm")
	if err := os.WriteFile(path, []byte("webm"), 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return workspace.Artifact{ID: "a1", Path: path, Size: 4}
}

func TestPipeline_Transcribe(t *testing.T) {
	rec := &mockRecognizer{text: "  the quick\n brown   fox "}
	p := NewPipeline(&mockTranscoder{wav: toneWAV(1500 * time.Millisecond)}, rec)

	res, err := p.Transcribe(context.Background(), artifactIn(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "the quick brown fox" {
		t.Fatalf("Text = %q", res.Text)
	}
	if res.Duration != 1500*time.Millisecond {
		t.Fatalf("Duration = %s want 1.5s", res.Duration)
	}
	if rec.calls != 1 {
		t.Fatalf("recognizer calls = %d want 1", rec.calls)
	}
}

func TestPipeline_SilenceSkipsRecognizer(t *testing.T) {
	rec := &mockRecognizer{text: "hallucination"}
	p := NewPipeline(&mockTranscoder{wav: silentWAV(time.Second)}, rec)

	res, err := p.Transcribe(context.Background(), artifactIn(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "" || res.Duration != time.Second {
		t.Fatalf("unexpected result: %+v", res)
	}
	if rec.calls != 0 {
		t.Fatalf("recognizer should not be called for silence, got %d calls", rec.calls)
	}
}

func TestPipeline_SilenceGateDisabled(t *testing.T) {
	rec := &mockRecognizer{text: "quiet words"}
	p := NewPipeline(&mockTranscoder{wav: silentWAV(time.Second)}, rec, WithSilenceRMS(0))

	res, err := p.Transcribe(context.Background(), artifactIn(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "quiet words" {
		t.Fatalf("Text = %q", res.Text)
	}
}

func TestPipeline_Errors(t *testing.T) {
	tests := []struct {
		name       string
		transcoder *mockTranscoder
		recognizer *mockRecognizer
	}{
		{
			name:       "transcode failure",
			transcoder: &mockTranscoder{err: errors.New("ffmpeg failed")},
			recognizer: &mockRecognizer{},
		},
		{
			name:       "undecodable output",
			transcoder: &mockTranscoder{wav: []byte("not a wav")},
			recognizer: &mockRecognizer{},
		},
		{
			name:       "recognizer failure",
			transcoder: &mockTranscoder{wav: toneWAV(time.Second)},
			recognizer: &mockRecognizer{err: errors.New("quota exceeded")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(tt.transcoder, tt.recognizer)
			if _, err := p.Transcribe(context.Background(), artifactIn(t)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
