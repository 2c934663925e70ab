package observe

import (
	"github.com/foxseedlab/speakscore/internal/config"
	"github.com/foxseedlab/speakscore/internal/observe"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Telemetry, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return InitProvider(cfg.Env)
	})
	do.Provide(injector, func(i do.Injector) (*observe.Metrics, error) {
		t := do.MustInvoke[*Telemetry](i)
		return observe.NewMetrics(t.MeterProvider)
	})
}
