package transcriber

import (
	"fmt"

	"github.com/foxseedlab/speakscore/internal/audio"
	"github.com/foxseedlab/speakscore/internal/config"
	"github.com/foxseedlab/speakscore/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (Recognizer, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewRecognizer(c)
	})
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		return NewPipeline(
			do.MustInvoke[audio.Transcoder](i),
			do.MustInvoke[Recognizer](i),
		), nil
	})
}

// NewRecognizer builds the recognizer selected by TRANSCRIBER_BACKEND.
func NewRecognizer(c *config.Config) (Recognizer, error) {
	switch c.TranscriberBackend {
	case config.TranscriberCloudSpeech:
		return NewCloudSpeechRecognizer(CloudSpeechConfig{
			ProjectID:       c.GoogleCloudProjectID,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Language:        c.TranscribeLanguage,
			Location:        c.GoogleCloudSpeechLocation,
			Model:           c.GoogleCloudSpeechModel,
		}), nil
	case config.TranscriberWhisperServer:
		r, err := NewWhisperServerRecognizer(c.WhisperServerURL, c.TranscribeLanguage)
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.TranscriberWhisperNative:
		r, err := NewWhisperNativeRecognizer(c.WhisperModelPath, c.TranscribeLanguage)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported transcriber backend %q", c.TranscriberBackend)
	}
}
