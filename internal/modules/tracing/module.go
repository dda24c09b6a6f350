package tracing

import (
	"context"

	"breakout_bot/internal/modules/config"
	"breakout_bot/pkg/tracing"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module поднимает Jaeger, если tracing.enabled. Иначе спаны уходят в noop-трейсер.
func Module() fx.Option {
	return fx.Module("tracing",
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) error {
			if !cfg.Tracing.Enabled {
				return nil
			}
			tracing.SetServiceName(cfg.Service.Name)
			_, closer, err := tracing.InitTracer(tracing.Config{Host: cfg.Tracing.Host, Port: cfg.Tracing.Port})
			if err != nil {
				return err
			}
			log.Info("[TRACE] jaeger enabled", zap.String("host", cfg.Tracing.Host), zap.Int("port", cfg.Tracing.Port))
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closer()
					return nil
				},
			})
			return nil
		}),
	)
}
