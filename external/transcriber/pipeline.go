package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	audioimpl "github.com/foxseedlab/speakscore/external/audio"
	"github.com/foxseedlab/speakscore/internal/audio"
	"github.com/foxseedlab/speakscore/internal/transcriber"
	"github.com/foxseedlab/speakscore/internal/workspace"
)

// defaultSilenceRMS is the energy below which a recording is treated as
// silence without calling the recognizer. 16-bit full scale is 32767.
const defaultSilenceRMS = 100.0

// Recognizer turns decoded PCM into text.
type Recognizer interface {
	Recognize(ctx context.Context, pcm audio.PCM) (string, error)
}

type Pipeline struct {
	transcoder audio.Transcoder
	recognizer Recognizer
	silenceRMS float64
}

type PipelineOption func(*Pipeline)

// WithSilenceRMS sets the silence gate. Zero disables it.
func WithSilenceRMS(rms float64) PipelineOption {
	return func(p *Pipeline) { p.silenceRMS = rms }
}

func NewPipeline(transcoder audio.Transcoder, recognizer Recognizer, opts ...PipelineOption) transcriber.Transcriber {
	p := &Pipeline{
		transcoder: transcoder,
		recognizer: recognizer,
		silenceRMS: defaultSilenceRMS,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Transcribe converts the artifact to 16 kHz mono WAV, measures its length and
// runs recognition. The WAV is left beside the artifact for the area to clean up.
func (p *Pipeline) Transcribe(ctx context.Context, artifact workspace.Artifact) (transcriber.Result, error) {
	wavPath, err := p.transcoder.Transcode(ctx, artifact.Path)
	if err != nil {
		return transcriber.Result{}, fmt.Errorf("transcode %s: %w", artifact.ID, err)
	}
	b, err := os.ReadFile(wavPath)
	if err != nil {
		return transcriber.Result{}, fmt.Errorf("read transcoded audio: %w", err)
	}
	pcm, err := audioimpl.DecodeWAV(b)
	if err != nil {
		return transcriber.Result{}, err
	}

	res := transcriber.Result{Duration: pcm.Duration()}
	if len(pcm.Data) == 0 {
		return res, nil
	}
	if rms := audioimpl.RMS(pcm); rms < p.silenceRMS {
		slog.Debug("recording is silent; skipping recognition", "artifact_id", artifact.ID, "rms", rms)
		return res, nil
	}

	text, err := p.recognizer.Recognize(ctx, pcm)
	if err != nil {
		return transcriber.Result{}, fmt.Errorf("recognize %s: %w", artifact.ID, err)
	}
	res.Text = strings.Join(strings.Fields(text), " ")
	slog.Debug("answer transcribed", "artifact_id", artifact.ID, "duration", res.Duration, "chars", len(res.Text))
	return res, nil
}
