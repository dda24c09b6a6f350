package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Executor выполняет Action вне локов инструментов; одновременно не больше workers.
type Executor struct {
	log *zap.Logger
	sem chan struct{}
	wg  sync.WaitGroup
}

func NewExecutor(log *zap.Logger, workers int) *Executor {
	if workers <= 0 {
		workers = 64
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{log: log, sem: make(chan struct{}, workers)}
}

func (e *Executor) Submit(ctx context.Context, a *Action) {
	if a == nil {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		select {
		case e.sem <- struct{}{}:
		case <-ctx.Done():
			e.log.Warn("[EXEC] dropped on shutdown",
				zap.String("kind", string(a.Kind)),
				zap.String("symbol", a.Symbol),
			)
			return
		}
		defer func() { <-e.sem }()

		defer func() {
			if r := recover(); r != nil {
				e.log.Error("[EXEC] action panic",
					zap.String("kind", string(a.Kind)),
					zap.String("engine", string(a.Engine)),
					zap.String("symbol", a.Symbol),
					zap.Any("panic", r),
				)
			}
		}()
		a.Run(ctx)
	}()
}

// Wait ждёт все отправленные действия.
func (e *Executor) Wait() { e.wg.Wait() }
