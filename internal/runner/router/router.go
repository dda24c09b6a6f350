package router

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"breakout_bot/internal/book"
	"breakout_bot/internal/models"
	strategy "breakout_bot/internal/modules/strategy/service"
	"breakout_bot/internal/runner"

	"go.uber.org/zap"
)

type Config struct {
	QueueSize   int
	Batch       int
	Concurrency int
}

// Dispatcher раздаёт закрытые свечи движкам. Своя очередь, чтобы всплеск
// закрытий в начале минуты не тормозил тики.
type Dispatcher struct {
	cfg  Config
	log  *zap.Logger
	book *book.Book
	hub  *strategy.Hub

	q   *runner.Queue[models.Candle]
	sem chan struct{}

	handled atomic.Int64
	tracker CandleTracker
}

// CandleTracker отмечает обработанные закрытия; реализует health.State.
type CandleTracker interface {
	TouchCandle(bucket time.Time)
}

// Track подключает трекер; вызывать до Run.
func (d *Dispatcher) Track(t CandleTracker) { d.tracker = t }

func NewDispatcher(cfg Config, log *zap.Logger, b *book.Book, hub *strategy.Hub) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4000
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 256
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 64
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		cfg:  cfg,
		log:  log,
		book: b,
		hub:  hub,
		q:    runner.NewQueue[models.Candle](cfg.QueueSize),
		sem:  make(chan struct{}, cfg.Concurrency),
	}
}

func (d *Dispatcher) Push(c models.Candle) bool {
	ok := d.q.Push(c)
	if !ok {
		d.log.Warn("[CANDLES] queue full, dropped oldest", zap.Int64("dropped_total", d.q.Dropped()))
	}
	return ok
}

func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info("[CANDLES] dispatcher started", zap.Int("batch", d.cfg.Batch))
	for {
		select {
		case <-ctx.Done():
			d.log.Info("[CANDLES] dispatcher stopped", zap.Int64("handled", d.handled.Load()))
			return
		case c := <-d.q.C():
			d.process(d.q.Drain(c, d.cfg.Batch))
		}
	}
}

func (d *Dispatcher) process(batch []models.Candle) {
	order, groups := runner.Group(batch, func(c models.Candle) int64 { return c.Token })

	var wg sync.WaitGroup
	for _, token := range order {
		list := groups[token]
		d.sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-d.sem }()
			defer func() {
				if r := recover(); r != nil {
					d.log.Error("[CANDLES] instrument task panic", zap.Int64("token", token), zap.Any("panic", r))
				}
			}()
			d.book.WithInstrument(token, func(rt *models.InstrumentRuntime) {
				for _, c := range list {
					d.hub.OnCandleClose(rt, c, c.Bucket.Add(time.Minute))
					if d.tracker != nil {
						d.tracker.TouchCandle(c.Bucket)
					}
				}
			})
		}()
	}
	wg.Wait()
	d.handled.Add(int64(len(batch)))
}

type Stats struct {
	Queued   int   `json:"queued"`
	Capacity int   `json:"capacity"`
	Dropped  int64 `json:"dropped"`
	Handled  int64 `json:"handled"`
}

func (d *Dispatcher) Stats() Stats {
	return Stats{Queued: d.q.Len(), Capacity: d.q.Cap(), Dropped: d.q.Dropped(), Handled: d.handled.Load()}
}
