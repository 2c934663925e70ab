package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	audioimpl "github.com/foxseedlab/speakscore/external/audio"
	"github.com/foxseedlab/speakscore/internal/audio"
)

const whisperRequestTimeout = 2 * time.Minute

// WhisperServerRecognizer posts WAV audio to a whisper.cpp server's
// /inference endpoint.
type WhisperServerRecognizer struct {
	serverURL  string
	language   string
	httpClient *http.Client
}

func NewWhisperServerRecognizer(serverURL, language string) (*WhisperServerRecognizer, error) {
	if serverURL == "" {
		return nil, errors.New("whisper server url must not be empty")
	}
	return &WhisperServerRecognizer{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   whisperLanguage(language),
		httpClient: &http.Client{Timeout: whisperRequestTimeout},
	}, nil
}

func (r *WhisperServerRecognizer) Recognize(ctx context.Context, pcm audio.PCM) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "answer.wav")
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(audioimpl.EncodeWAV(pcm)); err != nil {
		return "", fmt.Errorf("whisper: write wav data: %w", err)
	}
	if r.language != "" {
		if err := mw.WriteField("language", r.language); err != nil {
			return "", fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("whisper: write response_format field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.serverURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response body: %w", err)
	}
	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

// whisperLanguage reduces a BCP-47 tag such as "en-US" to the bare language
// code whisper expects.
func whisperLanguage(tag string) string {
	lang, _, _ := strings.Cut(strings.TrimSpace(tag), "-")
	return strings.ToLower(lang)
}
