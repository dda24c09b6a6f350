package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"breakout_bot/internal/book"
	"breakout_bot/internal/models"
	candles "breakout_bot/internal/modules/candles/service"
	strategy "breakout_bot/internal/modules/strategy/service"

	"go.uber.org/zap"
)

// CandleSink принимает закрытые свечи; реализует диспетчер закрытий.
type CandleSink interface {
	Push(c models.Candle) bool
}

type TickConfig struct {
	QueueSize   int // в батчах фида
	Concurrency int
}

// TickDispatcher: один воркер забирает батч фида, группирует по инструменту
// и обрабатывает группы параллельно, каждую под локом своего инструмента.
type TickDispatcher struct {
	cfg  TickConfig
	log  *zap.Logger
	book *book.Book
	agg  *candles.Aggregator
	hub  *strategy.Hub
	exec *strategy.Executor
	out  CandleSink

	ticks *Queue[[]models.Tick]
	sem   chan struct{}

	processed atomic.Int64
	batches   atomic.Int64
	lastTick  atomic.Int64 // unix nano
	unknown   atomic.Int64
}

func NewTickDispatcher(cfg TickConfig, log *zap.Logger, b *book.Book, agg *candles.Aggregator,
	hub *strategy.Hub, exec *strategy.Executor, out CandleSink) *TickDispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 2500
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 500
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TickDispatcher{
		cfg:   cfg,
		log:   log,
		book:  b,
		agg:   agg,
		hub:   hub,
		exec:  exec,
		out:   out,
		ticks: NewQueue[[]models.Tick](cfg.QueueSize),
		sem:   make(chan struct{}, cfg.Concurrency),
	}
}

// SubmitBatch не блокирует: при переполнении выкидывается самый старый батч целиком.
func (d *TickDispatcher) SubmitBatch(ticks []models.Tick) {
	if len(ticks) == 0 {
		return
	}
	if !d.ticks.Push(ticks) {
		if n := d.ticks.Dropped(); n%100 == 1 {
			d.log.Warn("[TICKS] queue full, dropping oldest batch", zap.Int64("dropped_batches", n))
		}
	}
}

func (d *TickDispatcher) Submit(t models.Tick) { d.SubmitBatch([]models.Tick{t}) }

func (d *TickDispatcher) Run(ctx context.Context) {
	d.log.Info("[TICKS] dispatcher started",
		zap.Int("queue", d.cfg.QueueSize),
		zap.Int("concurrency", d.cfg.Concurrency),
	)
	for {
		select {
		case <-ctx.Done():
			d.log.Info("[TICKS] dispatcher stopped", zap.Int64("processed", d.processed.Load()))
			return
		case batch := <-d.ticks.C():
			d.process(ctx, batch)
		}
	}
}

func (d *TickDispatcher) process(ctx context.Context, batch []models.Tick) {
	order, groups := Group(batch, func(t models.Tick) int64 { return t.Token })

	var wg sync.WaitGroup
	for _, token := range order {
		ticks := groups[token]
		d.sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-d.sem }()
			defer func() {
				if r := recover(); r != nil {
					d.log.Error("[TICKS] instrument task panic", zap.Int64("token", token), zap.Any("panic", r))
				}
			}()
			d.handle(ctx, token, ticks)
		}()
	}
	wg.Wait()

	d.processed.Add(int64(len(batch)))
	d.batches.Add(1)
	d.lastTick.Store(time.Now().UnixNano())
}

func (d *TickDispatcher) handle(ctx context.Context, token int64, ticks []models.Tick) {
	var actions []*strategy.Action
	found := d.book.WithInstrument(token, func(rt *models.InstrumentRuntime) {
		for _, t := range ticks {
			at := t.At
			if at.IsZero() {
				at = time.Now()
			}
			rt.LTP = t.Price
			// закрытая свеча уходит в очередь закрытий раньше, чем тик увидят движки
			if c, ok := d.agg.Update(rt, t.Price, t.CumVolume, at); ok && d.out != nil {
				d.out.Push(c)
			}
			actions = append(actions, d.hub.OnTick(rt, t.Price, at)...)
		}
	})
	if !found {
		d.unknown.Add(1)
		return
	}

	for _, a := range actions {
		d.exec.Submit(ctx, a)
	}
}

type TickStats struct {
	Queued    int       `json:"queued_batches"`
	Capacity  int       `json:"capacity"`
	Dropped   int64     `json:"dropped_batches"`
	Batches   int64     `json:"batches"`
	Processed int64     `json:"processed"`
	Unknown   int64     `json:"unknown"`
	LastTick  time.Time `json:"last_tick"`
}

func (d *TickDispatcher) Stats() TickStats {
	st := TickStats{
		Queued:    d.ticks.Len(),
		Capacity:  d.ticks.Cap(),
		Dropped:   d.ticks.Dropped(),
		Batches:   d.batches.Load(),
		Processed: d.processed.Load(),
		Unknown:   d.unknown.Load(),
	}
	if n := d.lastTick.Load(); n > 0 {
		st.LastTick = time.Unix(0, n)
	}
	return st
}
