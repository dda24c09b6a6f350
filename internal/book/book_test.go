package book

import (
	"testing"

	"breakout_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertNormalisesSymbol(t *testing.T) {
	t.Parallel()
	b := New(nil)
	b.Upsert(models.MarketRef{Token: 11, Symbol: " infy ", PDH: 10, PDL: 9})

	tok, ok := b.TokenBySymbol("INFY")
	require.True(t, ok)
	assert.Equal(t, int64(11), tok)

	found := b.WithInstrument(11, func(rt *models.InstrumentRuntime) {
		assert.Equal(t, "INFY", rt.Symbol)
		assert.Equal(t, models.StatusWaiting, rt.Breakout.Status)
		assert.Equal(t, 10.0, rt.Ref.PDH)
	})
	assert.True(t, found)
	assert.False(t, b.WithInstrument(99, func(*models.InstrumentRuntime) {}))
}

func TestTradesCopiesAndOpenOnly(t *testing.T) {
	t.Parallel()
	b := New(nil)
	open := &models.Trade{ID: "a", Side: models.SideBull, Symbol: "INFY", Status: models.TradeOpen, PnL: 10.005}
	closed := &models.Trade{ID: "b", Side: models.SideBull, Symbol: "TCS", Status: models.TradeClosed, PnL: -4}
	short := &models.Trade{ID: "c", Side: models.SideMomBear, Symbol: "ITC", Status: models.TradeOpen, PnL: 1.5}
	b.AddTrade(open)
	b.AddTrade(closed)
	b.AddTrade(short)

	all := b.Trades(false)
	assert.Len(t, all[models.SideBull], 2)
	assert.Len(t, b.Trades(true)[models.SideBull], 1)

	all[models.SideBull][0].SL = 123
	assert.Zero(t, open.SL)

	b.UpdateTrade(open, func(tr *models.Trade) { tr.PnL = 6 })
	perSide, total := b.PnL()
	assert.Equal(t, 2.0, perSide[models.SideBull])
	assert.Equal(t, 1.5, perSide[models.SideMomBear])
	assert.Equal(t, 3.5, total)

	assert.Equal(t, []string{"INFY", "ITC"}, b.OpenSymbols())
}

func TestManualExitOnlyForOpenSymbols(t *testing.T) {
	t.Parallel()
	b := New(nil)
	assert.False(t, b.RequestExit("INFY"))

	b.AddTrade(&models.Trade{Side: models.SideBear, Symbol: "INFY", Status: models.TradeOpen})
	assert.True(t, b.RequestExit("infy"))
	assert.True(t, b.ExitRequested("INFY"))
	b.ClearExit("INFY")
	assert.False(t, b.ExitRequested("INFY"))
}

func TestSquareOffAll(t *testing.T) {
	t.Parallel()
	b := New(nil)
	b.AddTrade(&models.Trade{Side: models.SideBull, Symbol: "TCS", Status: models.TradeOpen})
	b.AddTrade(&models.Trade{Side: models.SideMomBear, Symbol: "INFY", Status: models.TradeOpen})
	b.AddTrade(&models.Trade{Side: models.SideBear, Symbol: "SBIN", Status: models.TradeClosed})

	assert.Equal(t, []string{"INFY", "TCS"}, b.SquareOffAll())
	assert.True(t, b.ExitRequested("INFY"))
	assert.True(t, b.ExitRequested("TCS"))
	assert.False(t, b.ExitRequested("SBIN"))
}

func TestSettingsAndToggles(t *testing.T) {
	t.Parallel()
	custom := models.DefaultSettings(models.SideBull)
	custom.TotalTrades = 1
	b := New(map[models.Side]models.StrategySettings{models.SideBull: custom})

	assert.Equal(t, 1, b.Settings(models.SideBull).TotalTrades)
	assert.Equal(t, 5, b.Settings(models.SideBear).TotalTrades)
	assert.True(t, b.Enabled(models.SideMomBull))

	b.SetEnabled(models.SideMomBull, false)
	assert.False(t, b.EngineStatus()[models.SideMomBull])
}

func TestScannerListsTriggerWatch(t *testing.T) {
	t.Parallel()
	b := New(nil)
	b.Upsert(models.MarketRef{Token: 1, Symbol: "A"})
	b.Upsert(models.MarketRef{Token: 2, Symbol: "B"})
	b.WithInstrument(2, func(rt *models.InstrumentRuntime) {
		rt.Momentum.Status = models.StatusTriggerWatch
		rt.Momentum.Latch = models.SideMomBull
		rt.Momentum.TriggerPx = 55
	})

	rows := b.Scanner()
	require.Len(t, rows, 1)
	assert.Equal(t, "B", rows[0].Symbol)
	assert.Equal(t, models.EngineMomentum, rows[0].Engine)
	assert.Equal(t, 55.0, rows[0].TriggerPx)
}
