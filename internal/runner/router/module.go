package router

import (
	"context"

	"breakout_bot/internal/book"
	"breakout_bot/internal/modules/config"
	strategy "breakout_bot/internal/modules/strategy/service"
	"breakout_bot/internal/runner"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newDispatcher(cfg *config.Config, log *zap.Logger, b *book.Book, hub *strategy.Hub) *Dispatcher {
	return NewDispatcher(Config{
		QueueSize:   cfg.Dispatcher.CandleQueueSize,
		Batch:       cfg.Dispatcher.CandleBatch,
		Concurrency: cfg.Dispatcher.Concurrency,
	}, log, b, hub)
}

func Module() fx.Option {
	return fx.Module("candle_router",
		fx.Provide(
			newDispatcher,
			func(d *Dispatcher) runner.CandleSink { return d },
		),
		fx.Invoke(func(lc fx.Lifecycle, d *Dispatcher) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						defer close(done)
						d.Run(ctx)
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
