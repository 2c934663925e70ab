package config

import (
	"fmt"
	"time"
)

const (
	TranscriberCloudSpeech   = "cloud_speech"
	TranscriberWhisperServer = "whisper_server"
	TranscriberWhisperNative = "whisper_native"
)

type Config struct {
	Env                        string
	ListenAddr                 string
	PromptsFile                string
	WorkDir                    string
	DatabaseURL                string
	ResultWebhookURL           string
	TranscriberBackend         string
	TranscribeLanguage         string
	TranscribeTimeout          time.Duration
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	WhisperServerURL           string
	WhisperModelPath           string
	FFmpegPath                 string
	FluencyPolicy              string
	DefaultQuestionCount       int
	MaxAudioBytes              int64
	SessionIdleTimeout         time.Duration
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	switch c.FluencyPolicy {
	case "clamp", "penalize_overspeed":
	default:
		return fmt.Errorf("FLUENCY_POLICY must be clamp or penalize_overspeed, got %q", c.FluencyPolicy)
	}
	if c.DefaultQuestionCount <= 0 {
		return fmt.Errorf("DEFAULT_QUESTION_COUNT must be positive, got %d", c.DefaultQuestionCount)
	}
	if c.MaxAudioBytes <= 0 {
		return fmt.Errorf("MAX_AUDIO_BYTES must be positive, got %d", c.MaxAudioBytes)
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", c.SessionIdleTimeout)
	}
	if c.TranscribeTimeout <= 0 {
		return fmt.Errorf("TRANSCRIBE_TIMEOUT must be positive, got %s", c.TranscribeTimeout)
	}
	return c.validateTranscriber()
}

func (c *Config) validateTranscriber() error {
	switch c.TranscriberBackend {
	case TranscriberCloudSpeech:
		for _, req := range []requiredEnvField{
			{name: "GOOGLE_CLOUD_PROJECT_ID", value: c.GoogleCloudProjectID},
			{name: "GOOGLE_CLOUD_CREDENTIALS_JSON", value: c.GoogleCloudCredentialsJSON},
		} {
			if req.value == "" {
				return fmt.Errorf("%s is required when TRANSCRIBER_BACKEND=%s", req.name, TranscriberCloudSpeech)
			}
		}
	case TranscriberWhisperServer:
		if c.WhisperServerURL == "" {
			return fmt.Errorf("WHISPER_SERVER_URL is required when TRANSCRIBER_BACKEND=%s", TranscriberWhisperServer)
		}
	case TranscriberWhisperNative:
		if c.WhisperModelPath == "" {
			return fmt.Errorf("WHISPER_MODEL_PATH is required when TRANSCRIBER_BACKEND=%s", TranscriberWhisperNative)
		}
	default:
		return fmt.Errorf("TRANSCRIBER_BACKEND %q is not supported", c.TranscriberBackend)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "LISTEN_ADDR", value: c.ListenAddr},
		{name: "PROMPTS_FILE", value: c.PromptsFile},
		{name: "WORK_DIR", value: c.WorkDir},
		{name: "TRANSCRIBER_BACKEND", value: c.TranscriberBackend},
		{name: "TRANSCRIBE_LANGUAGE", value: c.TranscribeLanguage},
		{name: "FFMPEG_PATH", value: c.FFmpegPath},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}
