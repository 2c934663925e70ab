package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/speakscore/internal/config"
)

type envConfig struct {
	Env                        string        `env:"ENV" envDefault:"production"`
	ListenAddr                 string        `env:"LISTEN_ADDR" envDefault:":8080"`
	PromptsFile                string        `env:"PROMPTS_FILE" envDefault:"sentences.json"`
	WorkDir                    string        `env:"WORK_DIR" envDefault:"uploads"`
	DatabaseURL                string        `env:"DATABASE_URL"`
	ResultWebhookURL           string        `env:"RESULT_WEBHOOK_URL"`
	TranscriberBackend         string        `env:"TRANSCRIBER_BACKEND" envDefault:"whisper_server"`
	TranscribeLanguage         string        `env:"TRANSCRIBE_LANGUAGE" envDefault:"en-US"`
	TranscribeTimeout          time.Duration `env:"TRANSCRIBE_TIMEOUT" envDefault:"60s"`
	GoogleCloudProjectID       string        `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string        `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string        `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"us"`
	GoogleCloudSpeechModel     string        `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`
	WhisperServerURL           string        `env:"WHISPER_SERVER_URL" envDefault:"http://localhost:8081"`
	WhisperModelPath           string        `env:"WHISPER_MODEL_PATH"`
	FFmpegPath                 string        `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	FluencyPolicy              string        `env:"FLUENCY_POLICY" envDefault:"clamp"`
	DefaultQuestionCount       int           `env:"DEFAULT_QUESTION_COUNT" envDefault:"20"`
	MaxAudioBytes              int64         `env:"MAX_AUDIO_BYTES" envDefault:"10485760"`
	SessionIdleTimeout         time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		ListenAddr:                 raw.ListenAddr,
		PromptsFile:                raw.PromptsFile,
		WorkDir:                    raw.WorkDir,
		DatabaseURL:                raw.DatabaseURL,
		ResultWebhookURL:           raw.ResultWebhookURL,
		TranscriberBackend:         raw.TranscriberBackend,
		TranscribeLanguage:         raw.TranscribeLanguage,
		TranscribeTimeout:          raw.TranscribeTimeout,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		WhisperServerURL:           raw.WhisperServerURL,
		WhisperModelPath:           raw.WhisperModelPath,
		FFmpegPath:                 raw.FFmpegPath,
		FluencyPolicy:              raw.FluencyPolicy,
		DefaultQuestionCount:       raw.DefaultQuestionCount,
		MaxAudioBytes:              raw.MaxAudioBytes,
		SessionIdleTimeout:         raw.SessionIdleTimeout,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
