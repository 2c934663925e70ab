package workspace

import (
	"github.com/foxseedlab/speakscore/internal/config"
	"github.com/foxseedlab/speakscore/internal/workspace"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (workspace.Provider, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewLocalDirProvider(cfg.WorkDir)
	})
}
