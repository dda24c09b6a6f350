package telegram

import (
	"context"

	"breakout_bot/internal/book"
	bootstrap "breakout_bot/internal/modules/bootstrap/service"
	"breakout_bot/internal/modules/config"
	feed "breakout_bot/internal/modules/feed/service"
	strategy "breakout_bot/internal/modules/strategy/service"
	"breakout_bot/internal/modules/telegram_bot/service"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func New(cfg *config.Config, b *book.Book, log *zap.Logger) (*service.Telegram, error) {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		log.Info("[TG] token or chat_id is empty, notifications go to log only")
	}
	return service.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, b, log)
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			New,
			// один нотифайер на все модули
			func(t *service.Telegram) strategy.ServiceNotifier { return t },
			func(t *service.Telegram) feed.ServiceNotifier { return t },
			func(t *service.Telegram) bootstrap.ServiceNotifier { return t },
		),
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						// ctx старта короткоживущий
						t.Start(context.Background())
						return nil
					},
					OnStop: func(ctx context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
