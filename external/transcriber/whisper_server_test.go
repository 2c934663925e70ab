package transcriber

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	audioimpl "github.com/foxseedlab/speakscore/external/audio"
	"github.com/foxseedlab/speakscore/internal/audio"
)

func TestNewWhisperServerRecognizer_EmptyURL(t *testing.T) {
	if _, err := NewWhisperServerRecognizer("", "en"); err == nil {
		t.Fatal("expected error for empty server url")
	}
}

func TestWhisperServerRecognizer_Recognize(t *testing.T) {
	var (
		gotLanguage string
		gotRate     int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/inference" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		gotLanguage = r.FormValue("language")
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		pcm, err := audioimpl.DecodeWAV(b)
		if err != nil {
			t.Errorf("uploaded file is not a wav: %v", err)
			return
		}
		gotRate = pcm.SampleRate
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": " hello world\n"})
	}))
	defer server.Close()

	r, err := NewWhisperServerRecognizer(server.URL+"/", "en-US")
	if err != nil {
		t.Fatalf("NewWhisperServerRecognizer: %v", err)
	}
	text, err := r.Recognize(context.Background(), audio.PCM{Data: make([]byte, 320), SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("text = %q", text)
	}
	if gotLanguage != "en" {
		t.Fatalf("language = %q want en", gotLanguage)
	}
	if gotRate != 16000 {
		t.Fatalf("sample rate = %d want 16000", gotRate)
	}
}

func TestWhisperServerRecognizer_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	r, err := NewWhisperServerRecognizer(server.URL, "en")
	if err != nil {
		t.Fatalf("NewWhisperServerRecognizer: %v", err)
	}
	if _, err := r.Recognize(context.Background(), audio.PCM{SampleRate: 16000, Channels: 1}); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestWhisperLanguage(t *testing.T) {
	tests := map[string]string{
		"en-US": "en",
		"ja":    "ja",
		" DE ":  "de",
		"":      "",
	}
	for in, want := range tests {
		if got := whisperLanguage(in); got != want {
			t.Fatalf("whisperLanguage(%q) = %q want %q", in, got, want)
		}
	}
}
