package webhook

import (
	"log/slog"

	"github.com/foxseedlab/speakscore/internal/config"
	"github.com/foxseedlab/speakscore/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (webhook.Sender, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.ResultWebhookURL == "" {
			slog.Info("RESULT_WEBHOOK_URL is empty; result notifications are disabled")
		}
		return NewHTTPSender(cfg.ResultWebhookURL), nil
	})
}
