//go:build whisper

package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	audioimpl "github.com/foxseedlab/speakscore/external/audio"
	"github.com/foxseedlab/speakscore/internal/audio"
	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperNativeRecognizer runs whisper.cpp in process through its CGO
// bindings. The model is loaded once and shared; each call gets its own
// context because contexts are not safe for concurrent use.
type WhisperNativeRecognizer struct {
	model    whisperlib.Model
	language string
}

func NewWhisperNativeRecognizer(modelPath, language string) (*WhisperNativeRecognizer, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: model path must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %s: %w", modelPath, err)
	}
	return &WhisperNativeRecognizer{model: model, language: whisperLanguage(language)}, nil
}

func (r *WhisperNativeRecognizer) Recognize(ctx context.Context, pcm audio.PCM) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if pcm.SampleRate != audioimpl.TargetSampleRate {
		return "", fmt.Errorf("whisper: want %d Hz audio, got %d", audioimpl.TargetSampleRate, pcm.SampleRate)
	}

	wctx, err := r.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}
	if r.language != "" {
		if err := wctx.SetLanguage(r.language); err != nil {
			slog.Warn("whisper: failed to set language, using default", "language", r.language, "error", err)
		}
	}
	if err := wctx.Process(audioimpl.Float32Mono(pcm), nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

func (r *WhisperNativeRecognizer) Close() error {
	return r.model.Close()
}
