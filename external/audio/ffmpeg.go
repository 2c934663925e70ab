package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/foxseedlab/speakscore/internal/audio"
)

const (
	TargetSampleRate = 16000
	TargetChannels   = 1

	transcodedSuffix = ".16k.wav"
	maxStderrInError = 512
)

// FFmpegTranscoder converts uploads with an external ffmpeg binary. Arguments
// are passed as a vector; nothing goes through a shell.
type FFmpegTranscoder struct {
	binary string
}

func NewFFmpegTranscoder(binary string) audio.Transcoder {
	return &FFmpegTranscoder{binary: binary}
}

// OutputPath is where Transcode writes the WAV for inputPath.
func OutputPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + transcodedSuffix
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, inputPath string) (string, error) {
	output := OutputPath(inputPath)
	cmd := exec.CommandContext(ctx, t.binary,
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", strconv.Itoa(TargetChannels),
		"-ar", strconv.Itoa(TargetSampleRate),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		output)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("ffmpeg failed: %w: %s", err, truncate(strings.TrimSpace(stderr.String()), maxStderrInError))
	}
	return output, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
