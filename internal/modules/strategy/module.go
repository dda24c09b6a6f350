package strategy

import (
	"context"

	"breakout_bot/internal/book"
	"breakout_bot/internal/modules/config"
	reservation "breakout_bot/internal/modules/reservation/service"
	"breakout_bot/internal/modules/strategy/service"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type hubParams struct {
	fx.In

	Cfg          *config.Config
	Log          *zap.Logger
	Book         *book.Book
	Reservations reservation.Service
	Gateway      service.Gateway
	Journal      service.Journal         `optional:"true"`
	Notifier     service.ServiceNotifier `optional:"true"`
}

func paramsFromConfig(cfg *config.Config) service.Params {
	p := service.DefaultParams()
	if cfg.Reservation.MaxTradesPerSymbol > 0 {
		p.MaxTradesPerSymbol = cfg.Reservation.MaxTradesPerSymbol
	}
	if cfg.Entry.TickSize > 0 {
		p.TickSize = cfg.Entry.TickSize
	}
	if cfg.Entry.MinGapPct > 0 {
		p.MinGapPct = cfg.Entry.MinGapPct
	}
	if cfg.Entry.MinGapAbs > 0 {
		p.MinGapAbs = cfg.Entry.MinGapAbs
	}
	if cfg.Entry.FallbackStopPct > 0 {
		p.FallbackStopPct = cfg.Entry.FallbackStopPct
	}
	if cfg.Exit.BufferPct > 0 {
		p.ExitBufferPct = cfg.Exit.BufferPct
	}
	p.CloseOnFailedExit = cfg.Exit.CloseOnFailure
	return p
}

// NewHub собирает оба движка на общей машине состояний.
func NewHub(p hubParams) (*service.Hub, error) {
	deps := service.Deps{
		Book:         p.Book,
		Reservations: p.Reservations,
		Gateway:      p.Gateway,
		Journal:      p.Journal,
		Notifier:     p.Notifier,
		Log:          p.Log,
		Params:       paramsFromConfig(p.Cfg),
	}

	mom, err := service.NewMomentum(service.MomentumConfig{
		OpeningCandle: p.Cfg.Momentum.OpeningCandle,
		MaxGapPct:     p.Cfg.Momentum.MaxGapPct,
	})
	if err != nil {
		return nil, err
	}
	brk := service.NewBreakout(service.BreakoutConfig{
		RangeGatePct:     p.Cfg.Breakout.RangeGatePct,
		ExtensionGatePct: p.Cfg.Breakout.ExtensionGatePct,
	})

	p.Log.Info("[STRAT] engines ready",
		zap.Float64("range_gate", p.Cfg.Breakout.RangeGatePct),
		zap.Float64("ext_gate", p.Cfg.Breakout.ExtensionGatePct),
		zap.String("opening_candle", p.Cfg.Momentum.OpeningCandle),
		zap.Bool("close_on_failed_exit", deps.Params.CloseOnFailedExit),
	)
	return service.NewHub(p.Log,
		service.NewMachine(brk, deps),
		service.NewMachine(mom, deps),
	), nil
}

func NewExecutor(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *service.Executor {
	ex := service.NewExecutor(log, cfg.Dispatcher.ActionWorkers)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			ex.Wait()
			log.Info("[STRAT] executor drained")
			return nil
		},
	})
	return ex
}

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			NewHub,
			NewExecutor,
		),
	)
}
