package prompts

import (
	"log/slog"

	"github.com/foxseedlab/speakscore/internal/config"
	"github.com/foxseedlab/speakscore/internal/prompt"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (prompt.Source, error) {
		cfg := do.MustInvoke[*config.Config](i)
		src, err := LoadJSONFile(cfg.PromptsFile)
		if err != nil {
			return nil, err
		}
		counts := src.Counts()
		slog.Info("prompts loaded", "file", cfg.PromptsFile, "read", counts[prompt.ModeRead], "listen", counts[prompt.ModeListen])
		return src, nil
	})
}
