package feed

import (
	"context"

	"breakout_bot/internal/book"
	"breakout_bot/internal/modules/config"
	"breakout_bot/internal/modules/feed/service"
	health "breakout_bot/internal/modules/health/service"
	"breakout_bot/internal/runner"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type params struct {
	fx.In

	Cfg      *config.Config
	Log      *zap.Logger
	State    *health.State
	Notifier service.ServiceNotifier `optional:"true"`
}

func NewClient(p params) *service.Client {
	return service.NewClient(service.Config{
		URL:          p.Cfg.Feed.URL,
		APIKey:       p.Cfg.Gateway.APIKey,
		AccessToken:  p.Cfg.Gateway.AccessToken,
		PingInterval: p.Cfg.Feed.PingInterval,
		Reconnect:    p.Cfg.Feed.Reconnect,
	}, p.Log, p.Notifier, p.State)
}

// Module поднимает фид тиков. Без feed.url тики принимаются только через /api/tick.
func Module() fx.Option {
	return fx.Module("feed",
		fx.Provide(NewClient),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, c *service.Client,
			b *book.Book, d *runner.TickDispatcher, state *health.State) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					state.SetUniverse(b.Len())
					if cfg.Feed.URL == "" {
						log.Warn("[WS] feed.url is empty, waiting for ticks on /api/tick")
						close(done)
						return nil
					}
					go func() {
						defer close(done)
						c.Run(ctx, b.Tokens(), d)
					}()
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					<-done
					return nil
				},
			})
		}),
	)
}
