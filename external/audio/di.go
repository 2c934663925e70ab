package audio

import (
	"log/slog"
	"os/exec"

	"github.com/foxseedlab/speakscore/internal/audio"
	"github.com/foxseedlab/speakscore/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.Transcoder, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if _, err := exec.LookPath(cfg.FFmpegPath); err != nil {
			slog.Warn("ffmpeg binary not found; answers will be scored as silence", "ffmpeg_path", cfg.FFmpegPath, "error", err)
		}
		return NewFFmpegTranscoder(cfg.FFmpegPath), nil
	})
}
