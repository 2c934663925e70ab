package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/speakscore/internal/audio"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const speechAPIEndpointPort = 443

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Language        string
	Location        string
	Model           string
}

// CloudSpeechRecognizer sends each answer to Speech-to-Text v2 as one
// synchronous Recognize call. The client is created on first use and shared.
type CloudSpeechRecognizer struct {
	projectID       string
	credentialsJSON string
	language        string
	location        string
	model           string

	mu     sync.Mutex
	client *speech.Client
}

func NewCloudSpeechRecognizer(cfg CloudSpeechConfig) *CloudSpeechRecognizer {
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = "global"
	}
	return &CloudSpeechRecognizer{
		projectID:       cfg.ProjectID,
		credentialsJSON: cfg.CredentialsJSON,
		language:        cfg.Language,
		location:        location,
		model:           strings.TrimSpace(cfg.Model),
	}
}

func (r *CloudSpeechRecognizer) getClient(ctx context.Context) (*speech.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		return r.client, nil
	}

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(r.credentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}
	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if endpoint := r.endpoint(); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	// The client outlives this request.
	client, err := speech.NewClient(context.WithoutCancel(ctx), opts...)
	if err != nil {
		return nil, err
	}
	slog.Info("cloud speech client initialized", "location", r.location, "model", r.model, "language", r.language)
	r.client = client
	return client, nil
}

func (r *CloudSpeechRecognizer) endpoint() string {
	if r.location == "global" {
		return ""
	}
	return fmt.Sprintf("%s-speech.googleapis.com:%d", r.location, speechAPIEndpointPort)
}

func (r *CloudSpeechRecognizer) recognizerName() string {
	return fmt.Sprintf("projects/%s/locations/%s/recognizers/_", r.projectID, r.location)
}

func (r *CloudSpeechRecognizer) buildRequest(pcm audio.PCM) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Recognizer: r.recognizerName(),
		Config: &speechpb.RecognitionConfig{
			Model:         r.model,
			LanguageCodes: []string{r.language},
			DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
				ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
					Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
					SampleRateHertz:   int32(pcm.SampleRate),
					AudioChannelCount: int32(pcm.Channels),
				},
			},
			Features: &speechpb.RecognitionFeatures{},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{
			Content: pcm.Data,
		},
	}
}

func (r *CloudSpeechRecognizer) Recognize(ctx context.Context, pcm audio.PCM) (string, error) {
	client, err := r.getClient(ctx)
	if err != nil {
		return "", err
	}
	req := r.buildRequest(pcm)
	resp, err := client.Recognize(ctx, req)
	if err != nil && isRetryableRecognizeError(err) && ctx.Err() == nil {
		slog.Warn("cloud speech recognize failed with retryable error; retrying once", "error", err)
		resp, err = client.Recognize(ctx, req)
	}
	if err != nil {
		return "", err
	}
	return joinTranscripts(resp), nil
}

func (r *CloudSpeechRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

func joinTranscripts(resp *speechpb.RecognizeResponse) string {
	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func isRetryableRecognizeError(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}
