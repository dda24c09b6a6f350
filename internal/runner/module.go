package runner

import (
	"context"

	"breakout_bot/internal/book"
	"breakout_bot/internal/modules/config"
	candles "breakout_bot/internal/modules/candles/service"
	strategy "breakout_bot/internal/modules/strategy/service"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newTickDispatcher(cfg *config.Config, log *zap.Logger, b *book.Book, hub *strategy.Hub,
	exec *strategy.Executor, out CandleSink) *TickDispatcher {
	return NewTickDispatcher(TickConfig{
		QueueSize:   cfg.Dispatcher.TickQueueSize,
		Concurrency: cfg.Dispatcher.Concurrency,
	}, log, b, candles.NewAggregator(), hub, exec, out)
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(newTickDispatcher),
		fx.Invoke(func(lc fx.Lifecycle, d *TickDispatcher) {
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
