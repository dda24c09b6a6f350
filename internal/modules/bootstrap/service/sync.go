package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// минут в сессии NSE * 5 сессий
const smaDivisor = 5 * 375

type HistoryClient interface {
	DailyCandles(ctx context.Context, token int64, from, to time.Time) ([]models.DailyCandle, error)
}

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

type SyncConfig struct {
	LookbackDays int
	Concurrency  int
	Pause        time.Duration
	MinVolSMA    float64
}

type SyncSummary struct {
	Total    int
	Eligible int
	Dropped  int
	Failed   int
	Took     time.Duration
}

// Syncer пересчитывает SMA/PDH/PDL/prev close по дневным свечам и обновляет кэш.
type Syncer struct {
	cfg   SyncConfig
	hist  HistoryClient
	store RefStore
	n     ServiceNotifier
	log   *zap.Logger
	now   func() time.Time

	// ограничитель параллелизма, чтобы не словить rate limit
	sem chan struct{}
}

func NewSyncer(cfg SyncConfig, hist HistoryClient, store RefStore, n ServiceNotifier, log *zap.Logger) *Syncer {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 6
	}
	if cfg.MinVolSMA <= 0 {
		cfg.MinVolSMA = 1000
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{
		cfg:   cfg,
		hist:  hist,
		store: store,
		n:     n,
		log:   log,
		now:   time.Now,
		sem:   make(chan struct{}, cfg.Concurrency),
	}
}

// Levels — чистый расчёт по дневным свечам. Сегодняшняя свеча игнорируется,
// меньше пяти завершённых сессий — SMA 0.
func Levels(candles []models.DailyCandle, today string) (sma float64, last models.DailyCandle, ok bool) {
	done := make([]models.DailyCandle, 0, len(candles))
	for _, c := range candles {
		if helper.DayKey(c.Date) >= today {
			continue
		}
		done = append(done, c)
	}
	if len(done) == 0 {
		return 0, models.DailyCandle{}, false
	}
	sort.Slice(done, func(i, j int) bool { return done[i].Date.Before(done[j].Date) })
	last = done[len(done)-1]
	if len(done) < 5 {
		return 0, last, true
	}

	total := decimal.Zero
	for _, c := range done[len(done)-5:] {
		total = total.Add(decimal.NewFromInt(c.Volume))
	}
	sma, _ = total.Div(decimal.NewFromInt(smaDivisor)).Round(2).Float64()
	return sma, last, true
}

func (s *Syncer) Run(ctx context.Context, universe []models.MarketRef) (SyncSummary, error) {
	started := s.now()
	sum := SyncSummary{Total: len(universe)}
	if len(universe) == 0 {
		return sum, nil
	}

	s.notify(ctx, "🔄 Market sync start: instruments=%d lookback=%dd", len(universe), s.cfg.LookbackDays)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	to := s.now()
	from := to.AddDate(0, 0, -s.cfg.LookbackDays)
	today := helper.DayKey(to)

	for _, inst := range universe {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case s.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-s.sem }()

			res, err := s.one(ctx, inst, from, to, today)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				sum.Failed++
				if firstErr == nil {
					firstErr = fmt.Errorf("sync %s (%d): %w", inst.Symbol, inst.Token, err)
				}
			case res:
				sum.Eligible++
			default:
				sum.Dropped++
			}
		}()
	}
	wg.Wait()
	sum.Took = s.now().Sub(started)

	s.log.Info("[SYNC] done",
		zap.Int("total", sum.Total),
		zap.Int("eligible", sum.Eligible),
		zap.Int("dropped", sum.Dropped),
		zap.Int("failed", sum.Failed),
		zap.Duration("took", sum.Took),
	)
	if firstErr != nil {
		s.notify(ctx, "⚠️ Market sync finished with errors: %d failed, first: %v", sum.Failed, firstErr)
		return sum, firstErr
	}
	s.notify(ctx, "✅ Market sync finished: eligible=%d dropped=%d", sum.Eligible, sum.Dropped)
	return sum, ctx.Err()
}

// one возвращает true, если инструмент прошёл фильтр и записан в кэш.
func (s *Syncer) one(ctx context.Context, inst models.MarketRef, from, to time.Time, today string) (bool, error) {
	defer s.pause(ctx)

	candles, err := s.hist.DailyCandles(ctx, inst.Token, from, to)
	if err != nil {
		return false, err
	}
	sma, last, ok := Levels(candles, today)
	if !ok || sma < s.cfg.MinVolSMA {
		s.log.Debug("[SYNC] not eligible", zap.String("symbol", inst.Symbol), zap.Float64("sma", sma))
		return false, s.store.Delete(ctx, inst.Token)
	}

	ref := models.MarketRef{
		Token:     inst.Token,
		Symbol:    helper.NormSymbol(inst.Symbol),
		SMA:       sma,
		PDH:       last.High,
		PDL:       last.Low,
		PrevClose: last.Close,
		SyncedAt:  s.now().In(helper.IST()).Format("2006-01-02 15:04:05"),
	}
	return true, s.store.Upsert(ctx, ref)
}

func (s *Syncer) pause(ctx context.Context) {
	if s.cfg.Pause <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.cfg.Pause):
	}
}

func (s *Syncer) notify(ctx context.Context, format string, args ...any) {
	if s.n != nil {
		s.n.SendService(ctx, format, args...)
	}
}
