package session

import (
	"github.com/foxseedlab/speakscore/internal/config"
	"github.com/foxseedlab/speakscore/internal/observe"
	"github.com/foxseedlab/speakscore/internal/prompt"
	"github.com/foxseedlab/speakscore/internal/repository"
	"github.com/foxseedlab/speakscore/internal/scoring"
	"github.com/foxseedlab/speakscore/internal/transcriber"
	"github.com/foxseedlab/speakscore/internal/webhook"
	"github.com/foxseedlab/speakscore/internal/workspace"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*scoring.Scorer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		policy, err := scoring.ParseFluencyPolicy(cfg.FluencyPolicy)
		if err != nil {
			return nil, err
		}
		return scoring.NewScorer(scoring.DefaultWeights(), policy)
	})
	do.Provide(injector, func(i do.Injector) (*Engine, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewEngine(
			do.MustInvoke[prompt.Source](i),
			do.MustInvoke[workspace.Provider](i),
			do.MustInvoke[transcriber.Transcriber](i),
			do.MustInvoke[*scoring.Scorer](i),
			do.MustInvoke[repository.Repository](i),
			do.MustInvoke[webhook.Sender](i),
			do.MustInvoke[*observe.Metrics](i),
			WithTranscribeTimeout(cfg.TranscribeTimeout),
		), nil
	})
	do.Provide(injector, func(i do.Injector) (*MemoryStore, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewMemoryStore(do.MustInvoke[*Engine](i), cfg.SessionIdleTimeout), nil
	})
}
