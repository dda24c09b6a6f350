package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"breakout_bot/internal/book"
	"breakout_bot/internal/models"
	feed "breakout_bot/internal/modules/feed/service"
	reservation "breakout_bot/internal/modules/reservation/service"
	settings "breakout_bot/internal/modules/settings/service"
	"breakout_bot/internal/runner"
	"breakout_bot/internal/runner/router"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTicks struct {
	mu    sync.Mutex
	ticks []models.Tick
}

func (f *fakeTicks) SubmitBatch(ticks []models.Tick) {
	f.mu.Lock()
	f.ticks = append(f.ticks, ticks...)
	f.mu.Unlock()
}

func (f *fakeTicks) all() []models.Tick {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Tick(nil), f.ticks...)
}

func (f *fakeTicks) Stats() runner.TickStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return runner.TickStats{Processed: int64(len(f.ticks)), Capacity: 2500}
}

type fakeCandles struct{}

func (fakeCandles) Stats() router.Stats { return router.Stats{Capacity: 4000, Dropped: 3} }

type fakeJournal struct{ trades []models.Trade }

func (f *fakeJournal) Opened(context.Context, models.Trade) error { return nil }
func (f *fakeJournal) Closed(context.Context, models.Trade) error { return nil }
func (f *fakeJournal) Recent(_ context.Context, limit int) ([]models.Trade, error) {
	if limit > 0 && limit < len(f.trades) {
		return f.trades[:limit], nil
	}
	return f.trades, nil
}

type fixture struct {
	srv   *httptest.Server
	api   *API
	book  *book.Book
	ticks *fakeTicks
	store *settings.MemoryStore
}

func newFixture(t *testing.T, opts ...func(*API)) *fixture {
	t.Helper()
	b := book.New(nil)
	b.Upsert(models.MarketRef{Token: 408065, Symbol: "INFY", SMA: 2000, PDH: 100, PDL: 90, PrevClose: 99})

	f := &fixture{book: b, ticks: &fakeTicks{}, store: settings.NewMemoryStore()}
	f.api = &API{
		Book:         b,
		State:        NewState(),
		Ticks:        f.ticks,
		Candles:      fakeCandles{},
		Settings:     f.store,
		Reservations: reservation.NewMemoryStore(reservation.Options{}),
		Log:          zap.NewNop(),
	}
	for _, o := range opts {
		o(f.api)
	}
	r := mux.NewRouter()
	RegisterProbes(r, f.api.State)
	f.api.Register(r)
	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func TestStats(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.book.AddTrade(&models.Trade{Side: models.SideBull, Symbol: "INFY", Qty: 10, Entry: 100, PnL: 12.5, Status: models.TradeOpen})
	_, err := f.api.Reservations.ReserveSide(context.Background(), models.SideBull, 5)
	require.NoError(t, err)

	code, body := f.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, code)

	var resp statsResponse
	require.NoError(t, sonic.Unmarshal(body, &resp))
	assert.Equal(t, 12.5, resp.TotalPnL)
	assert.Equal(t, 12.5, resp.PnL[models.SideBull])
	assert.Equal(t, 1, resp.OpenTrades)
	assert.Equal(t, 1, resp.Instruments)
	assert.True(t, resp.Engines[models.SideBear])
	assert.Equal(t, 1, resp.Reservations[models.SideBull])
	require.NotNil(t, resp.Candles)
	assert.Equal(t, int64(3), resp.Candles.Dropped)
	require.NotNil(t, resp.Ticks)
	assert.Equal(t, 2500, resp.Ticks.Capacity)
}

func TestScannerEmptyIsArray(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code, body := f.do(t, http.MethodGet, "/api/scanner", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(body))
}

func TestOrdersOpenOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.book.AddTrade(&models.Trade{ID: "1", Side: models.SideBear, Symbol: "INFY", Status: models.TradeClosed})
	f.book.AddTrade(&models.Trade{ID: "2", Side: models.SideBear, Symbol: "TCS", Status: models.TradeOpen})

	_, body := f.do(t, http.MethodGet, "/api/orders", "")
	var all map[models.Side][]models.Trade
	require.NoError(t, sonic.Unmarshal(body, &all))
	assert.Len(t, all[models.SideBear], 2)

	_, body = f.do(t, http.MethodGet, "/api/orders?open_only=1", "")
	var open map[models.Side][]models.Trade
	require.NoError(t, sonic.Unmarshal(body, &open))
	require.Len(t, open[models.SideBear], 1)
	assert.Equal(t, "TCS", open[models.SideBear][0].Symbol)
}

func TestSettingsRoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code, body := f.do(t, http.MethodGet, "/api/settings/mom_bull", "")
	require.Equal(t, http.StatusOK, code)
	var got models.StrategySettings
	require.NoError(t, sonic.Unmarshal(body, &got))
	assert.Equal(t, "09:17", got.TradeEnd)

	code, _ = f.do(t, http.MethodGet, "/api/settings/sideways", "")
	assert.Equal(t, http.StatusNotFound, code)

	upd := `{"risk_reward":"1:3","trailing_sl":"1:1","total_trades":2,"risk_trade_1":500,
		"trade_start":"09:20","trade_end":"14:00","volume_criteria":[]}`
	code, _ = f.do(t, http.MethodPut, "/api/settings/bear", upd)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, f.book.Settings(models.SideBear).TotalTrades)
	assert.Equal(t, "1:3", f.book.Settings(models.SideBear).RiskReward)

	saved, ok, err := f.store.Load(context.Background(), models.SideBear)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 500.0, saved.RiskAmount)

	code, _ = f.do(t, http.MethodPut, "/api/settings/bear", `{"total_trades":-1}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = f.do(t, http.MethodPut, "/api/settings/bear", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 2, f.book.Settings(models.SideBear).TotalTrades)
}

func TestControl(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code, _ := f.do(t, http.MethodPost, "/api/control", `{"action":"toggle_engine","side":"bull","enabled":false}`)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, f.book.Enabled(models.SideBull))

	// без enabled — переключение
	f.do(t, http.MethodPost, "/api/control", `{"action":"toggle_engine","side":"bull"}`)
	assert.True(t, f.book.Enabled(models.SideBull))

	code, _ = f.do(t, http.MethodPost, "/api/control", `{"action":"toggle_engine","side":"up"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	_, body := f.do(t, http.MethodPost, "/api/control", `{"action":"manual_exit","symbol":"infy"}`)
	assert.JSONEq(t, `{"ok":false,"message":"no open trade for INFY"}`, string(body))

	f.book.AddTrade(&models.Trade{Side: models.SideBull, Symbol: "INFY", Status: models.TradeOpen})
	_, body = f.do(t, http.MethodPost, "/api/control", `{"action":"manual_exit","symbol":"infy"}`)
	assert.JSONEq(t, `{"ok":true,"symbols":["INFY"]}`, string(body))
	assert.True(t, f.book.ExitRequested("INFY"))

	f.book.ClearExit("INFY")
	_, body = f.do(t, http.MethodPost, "/api/control", `{"action":"square_off_all"}`)
	assert.JSONEq(t, `{"ok":true,"symbols":["INFY"]}`, string(body))
	assert.True(t, f.book.ExitRequested("INFY"))

	code, _ = f.do(t, http.MethodPost, "/api/control", `{"action":"launch"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTickInjection(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	at := time.Date(2026, 10, 16, 9, 16, 5, 0, time.UTC)
	frame, err := feed.EncodeFrame([]models.Tick{
		{Token: 408065, Price: 100.5, CumVolume: 1000, At: at},
		{Token: 408065, Price: 101, CumVolume: 1500, At: at.Add(time.Second)},
	})
	require.NoError(t, err)

	code, body := f.do(t, http.MethodPost, "/api/tick", string(frame))
	require.Equal(t, http.StatusAccepted, code)
	assert.JSONEq(t, `{"accepted":2}`, string(body))
	got := f.ticks.all()
	require.Len(t, got, 2)
	assert.Equal(t, 101.0, got[1].Price)
	assert.Equal(t, at.Add(time.Second).Unix(), f.api.State.LastTick().Unix())

	code, _ = f.do(t, http.MethodPost, "/api/tick", `{"ticks":`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestJournalEndpoint(t *testing.T) {
	t.Parallel()
	off := newFixture(t)
	code, _ := off.do(t, http.MethodGet, "/api/journal", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	f := newFixture(t, func(a *API) {
		a.Journal = &fakeJournal{trades: []models.Trade{{ID: "B"}, {ID: "A"}}}
	})
	code, body := f.do(t, http.MethodGet, "/api/journal?limit=1", "")
	require.Equal(t, http.StatusOK, code)
	var got []models.Trade
	require.NoError(t, sonic.Unmarshal(body, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].ID)
}

func TestProbes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code, _ := f.do(t, http.MethodGet, "/livez", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = f.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	f.api.State.SetReady(true)
	code, _ = f.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, code)

	_, body := f.do(t, http.MethodGet, "/healthz", "")
	var h healthResponse
	require.NoError(t, sonic.Unmarshal(body, &h))
	assert.True(t, h.Ready)
	assert.False(t, h.WSConnected)
	assert.Zero(t, h.LastTickUnix)
	assert.Zero(t, h.LastCandleUnix)
}

func TestStateTracksUniverseFeedAndCandles(t *testing.T) {
	t.Parallel()
	s := NewState()
	assert.False(t, s.Ready())

	s.SetUniverse(0)
	assert.False(t, s.Ready())
	s.SetUniverse(6)
	assert.True(t, s.Ready())
	assert.Equal(t, 6, s.Instruments())

	s.SetWSConnected(true)
	s.SetWSConnected(true)
	assert.Zero(t, s.Reconnects())
	s.SetWSConnected(false)
	s.SetWSConnected(true)
	assert.Equal(t, int64(1), s.Reconnects())

	bucket := time.Date(2026, 10, 16, 10, 5, 0, 0, time.UTC)
	s.TouchCandle(bucket.Add(-time.Minute))
	s.TouchCandle(bucket)
	assert.Equal(t, int64(2), s.Candles())
	assert.True(t, s.LastCandle().Equal(bucket))

	r := mux.NewRouter()
	RegisterProbes(r, s)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var h healthResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &h))
	assert.True(t, h.Ready)
	assert.Equal(t, 6, h.Instruments)
	assert.Equal(t, int64(1), h.WSReconnects)
	assert.Equal(t, int64(2), h.Candles)
	assert.Equal(t, bucket.Unix(), h.LastCandleUnix)
}
