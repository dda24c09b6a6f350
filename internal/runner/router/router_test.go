package router

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"breakout_bot/internal/book"
	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"
	candles "breakout_bot/internal/modules/candles/service"
	reservation "breakout_bot/internal/modules/reservation/service"
	strategy "breakout_bot/internal/modules/strategy/service"
	"breakout_bot/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paperGateway struct {
	mu     sync.Mutex
	orders []string
}

func (g *paperGateway) PlaceMarketOrder(_ context.Context, symbol string, side models.OrderSide, qty int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders = append(g.orders, fmt.Sprintf("%s %s %d", side, symbol, qty))
	return fmt.Sprintf("p-%d", len(g.orders)), nil
}

func (g *paperGateway) Orders() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.orders...)
}

func ist(h, m, s int) time.Time {
	return time.Date(2026, 10, 16, h, m, s, 0, helper.IST())
}

// Тики → минутная свеча → квалификация пробоя → триггер → вход через executor.
func TestPipelineFromTicksToOpenTrade(t *testing.T) {
	t.Parallel()
	settings := make(map[models.Side]models.StrategySettings)
	for _, side := range models.AllSides {
		s := models.DefaultSettings(side)
		s.VolumeMatrix = []models.VolumeTier{{MinSMA: 1000, Multiplier: 10, MinTurnoverCr: 1}}
		settings[side] = s
	}
	b := book.New(settings)
	b.Upsert(models.MarketRef{Token: 7, Symbol: "INFY", SMA: 2000, PDH: 100, PDL: 90, PrevClose: 99})

	gw := &paperGateway{}
	deps := strategy.Deps{
		Book:         b,
		Reservations: reservation.NewMemoryStore(reservation.Options{}),
		Gateway:      gw,
		Params:       strategy.DefaultParams(),
	}
	mom, err := strategy.NewMomentum(strategy.MomentumConfig{})
	require.NoError(t, err)
	hub := strategy.NewHub(nil,
		strategy.NewMachine(strategy.NewBreakout(strategy.BreakoutConfig{}), deps),
		strategy.NewMachine(mom, deps),
	)
	exec := strategy.NewExecutor(nil, 4)

	cd := NewDispatcher(Config{QueueSize: 16, Batch: 8, Concurrency: 2}, nil, b, hub)
	td := runner.NewTickDispatcher(runner.TickConfig{QueueSize: 64, Concurrency: 4}, nil, b, candles.NewAggregator(), hub, exec, cd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cd.Run(ctx)
	go td.Run(ctx)

	// минута 10:00: open 100.6, high 101, low 100.5, close 101, объём 100000
	td.Submit(models.Tick{Token: 7, Price: 100.6, CumVolume: 500000, At: ist(10, 0, 1)})
	td.Submit(models.Tick{Token: 7, Price: 100.5, CumVolume: 550000, At: ist(10, 0, 20)})
	td.Submit(models.Tick{Token: 7, Price: 101, CumVolume: 600000, At: ist(10, 0, 50)})
	// первый тик следующей минуты закрывает свечу
	td.Submit(models.Tick{Token: 7, Price: 100.9, CumVolume: 600100, At: ist(10, 1, 0)})

	require.Eventually(t, func() bool {
		var st models.Status
		b.WithInstrument(7, func(rt *models.InstrumentRuntime) { st = rt.Breakout.Status })
		return st == models.StatusTriggerWatch
	}, 2*time.Second, 5*time.Millisecond)

	var trigger float64
	b.WithInstrument(7, func(rt *models.InstrumentRuntime) { trigger = rt.Breakout.TriggerPx })
	assert.Equal(t, 101.0, trigger)

	td.Submit(models.Tick{Token: 7, Price: 101.5, CumVolume: 600200, At: ist(10, 1, 5)})

	require.Eventually(t, func() bool { return len(b.Trades(true)[models.SideBull]) == 1 }, 2*time.Second, 5*time.Millisecond)
	exec.Wait()
	assert.Equal(t, []string{"BUY INFY 2000"}, gw.Orders())
	assert.Equal(t, int64(1), cd.Stats().Handled)
}

func TestDispatcherGroupsAndRecovers(t *testing.T) {
	t.Parallel()
	b := book.New(nil)
	b.Upsert(models.MarketRef{Token: 1, Symbol: "A"})
	b.Upsert(models.MarketRef{Token: 2, Symbol: "B"})

	rec := &recorder{}
	hub := strategy.NewHub(nil, rec)
	d := NewDispatcher(Config{}, nil, b, hub)
	tr := &tracker{}
	d.Track(tr)

	d.process([]models.Candle{
		{Token: 1, Bucket: ist(10, 0, 0)},
		{Token: 2, Bucket: ist(10, 0, 0)},
		{Token: 1, Bucket: ist(10, 1, 0)},
		{Token: 3, Bucket: ist(10, 1, 0)},
	})

	got := rec.Seen()
	assert.Len(t, got, 2, "неизвестный токен пропущен")
	assert.Equal(t, []time.Time{ist(10, 0, 0), ist(10, 1, 0)}, got[1])
	assert.Equal(t, int64(4), d.Stats().Handled)
	assert.Len(t, tr.buckets, 3, "отмечены только свечи известных инструментов")
}

type tracker struct {
	mu      sync.Mutex
	buckets []time.Time
}

func (t *tracker) TouchCandle(bucket time.Time) {
	t.mu.Lock()
	t.buckets = append(t.buckets, bucket)
	t.mu.Unlock()
}

type recorder struct {
	mu   sync.Mutex
	seen map[int64][]time.Time
}

func (r *recorder) Name() string            { return "rec" }
func (r *recorder) Kind() models.EngineKind { return models.EngineBreakout }
func (r *recorder) OnCandleClose(rt *models.InstrumentRuntime, c models.Candle, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = make(map[int64][]time.Time)
	}
	r.seen[rt.Token] = append(r.seen[rt.Token], c.Bucket)
	if rt.Token == 2 {
		panic("engine failure on B")
	}
}
func (r *recorder) OnTick(*models.InstrumentRuntime, float64, time.Time) *strategy.Action { return nil }

func (r *recorder) Seen() map[int64][]time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64][]time.Time, len(r.seen))
	for k, v := range r.seen {
		out[k] = append([]time.Time(nil), v...)
	}
	return out
}
