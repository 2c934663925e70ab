package audio

import (
	"context"
	"time"
)

// Transcoder converts an uploaded recording into 16-bit PCM WAV written
// next to the input, returning the output path.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath string) (string, error)
}

// PCM is decoded 16-bit little-endian audio.
type PCM struct {
	Data       []byte
	SampleRate int
	Channels   int
}

func (p PCM) Duration() time.Duration {
	if p.SampleRate <= 0 || p.Channels <= 0 {
		return 0
	}
	frames := len(p.Data) / (2 * p.Channels)
	return time.Duration(frames) * time.Second / time.Duration(p.SampleRate)
}
