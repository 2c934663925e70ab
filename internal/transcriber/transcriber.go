package transcriber

import (
	"context"
	"time"

	"github.com/foxseedlab/speakscore/internal/workspace"
)

type Result struct {
	Text string
	// Duration is the length of the decodable audio.
	Duration time.Duration
}

// Transcriber turns a stored audio artifact into text. Silent or
// unintelligible audio yields an empty Text rather than an error.
type Transcriber interface {
	Transcribe(ctx context.Context, artifact workspace.Artifact) (Result, error)
}
