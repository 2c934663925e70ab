package httpapi

import (
	observeimpl "github.com/foxseedlab/speakscore/external/observe"
	"github.com/foxseedlab/speakscore/internal/config"
	"github.com/foxseedlab/speakscore/internal/observe"
	"github.com/foxseedlab/speakscore/internal/repository"
	"github.com/foxseedlab/speakscore/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		return NewServer(
			Config{
				Addr:                 cfg.ListenAddr,
				DefaultQuestionCount: cfg.DefaultQuestionCount,
				MaxAudioBytes:        cfg.MaxAudioBytes,
			},
			do.MustInvoke[*session.Engine](i),
			do.MustInvoke[*session.MemoryStore](i),
			repo,
			do.MustInvoke[*observe.Metrics](i),
			do.MustInvoke[*observeimpl.Telemetry](i).Handler,
			Checker{Name: "database", Check: repo.Ping},
		), nil
	})
}
