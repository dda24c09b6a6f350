package main

import (
	"context"

	"breakout_bot/internal/modules/bootstrap"
	"breakout_bot/internal/modules/config"
	"breakout_bot/internal/modules/feed"
	"breakout_bot/internal/modules/gateway"
	"breakout_bot/internal/modules/health"
	"breakout_bot/internal/modules/journal"
	"breakout_bot/internal/modules/logging"
	"breakout_bot/internal/modules/postgres"
	"breakout_bot/internal/modules/redis"
	"breakout_bot/internal/modules/reservation"
	"breakout_bot/internal/modules/settings"
	"breakout_bot/internal/modules/strategy"
	telegram "breakout_bot/internal/modules/telegram_bot"
	"breakout_bot/internal/modules/tracing"
	"breakout_bot/internal/runner"
	"breakout_bot/internal/runner/router"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		config.Module(),
		logging.Module(),
		tracing.Module(),
		postgres.Module(),
		redis.Module(),
		reservation.Module(),
		settings.Module(),
		gateway.Module(),
		journal.Module(),
		// bootstrap заполняет книгу на старте, до фида
		bootstrap.Module(),
		telegram.Module(),
		strategy.Module(),
		router.Module(),
		runner.Module(),
		health.Module(),
		feed.Module(),
	).Run()
}
