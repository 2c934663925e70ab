//go:build !whisper

package transcriber

import (
	"errors"
	"testing"

	"github.com/foxseedlab/speakscore/internal/config"
)

func TestNewRecognizer_SelectsBackend(t *testing.T) {
	tests := []struct {
		backend string
		check   func(t *testing.T, r Recognizer, err error)
	}{
		{
			backend: config.TranscriberWhisperServer,
			check: func(t *testing.T, r Recognizer, err error) {
				if _, ok := r.(*WhisperServerRecognizer); !ok || err != nil {
					t.Fatalf("got %T, %v", r, err)
				}
			},
		},
		{
			backend: config.TranscriberCloudSpeech,
			check: func(t *testing.T, r Recognizer, err error) {
				if _, ok := r.(*CloudSpeechRecognizer); !ok || err != nil {
					t.Fatalf("got %T, %v", r, err)
				}
			},
		},
		{
			backend: config.TranscriberWhisperNative,
			check: func(t *testing.T, r Recognizer, err error) {
				if !errors.Is(err, errWhisperNativeUnavailable) || r != nil {
					t.Fatalf("got %v, %v want unavailable error", r, err)
				}
			},
		},
		{
			backend: "vosk",
			check: func(t *testing.T, r Recognizer, err error) {
				if err == nil {
					t.Fatal("expected error for unknown backend")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			r, err := NewRecognizer(&config.Config{
				TranscriberBackend: tt.backend,
				TranscribeLanguage: "en-US",
				WhisperServerURL:   "http://localhost:8081",
				WhisperModelPath:   "/models/ggml-base.en.bin",
			})
			tt.check(t, r, err)
		})
	}
}
