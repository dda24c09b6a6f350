package logging

import (
	"context"

	"breakout_bot/internal/modules/config"
	"breakout_bot/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module("logging",
		fx.Provide(func(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
			l, err := logger.New(cfg.Service.LogLevel, cfg.Service.Name, cfg.Service.Dev)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					_ = l.Sync()
					return nil
				},
			})
			return l, nil
		}),
	)
}
