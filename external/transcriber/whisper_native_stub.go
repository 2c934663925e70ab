//go:build !whisper

package transcriber

import (
	"context"
	"errors"

	"github.com/foxseedlab/speakscore/internal/audio"
)

var errWhisperNativeUnavailable = errors.New("whisper_native backend requires building with -tags whisper")

type WhisperNativeRecognizer struct{}

func NewWhisperNativeRecognizer(_, _ string) (*WhisperNativeRecognizer, error) {
	return nil, errWhisperNativeUnavailable
}

func (r *WhisperNativeRecognizer) Recognize(_ context.Context, _ audio.PCM) (string, error) {
	return "", errWhisperNativeUnavailable
}

func (r *WhisperNativeRecognizer) Close() error {
	return nil
}
