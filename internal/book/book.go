package book

import (
	"sort"
	"sync"

	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"

	"github.com/shopspring/decimal"
)

type slot struct {
	mu sync.Mutex
	rt *models.InstrumentRuntime
}

// Book — явный хэндл общего состояния: таблица инструментов с локом на каждый,
// журнал сделок по сторонам, тумблеры, настройки и ручные выходы.
type Book struct {
	mu       sync.RWMutex
	slots    map[int64]*slot
	bySymbol map[string]int64

	tradesMu sync.RWMutex
	trades   map[models.Side][]*models.Trade

	ctlMu       sync.RWMutex
	enabled     map[models.Side]bool
	settings    map[models.Side]models.StrategySettings
	manualExits map[string]struct{}
}

func New(settings map[models.Side]models.StrategySettings) *Book {
	b := &Book{
		slots:       make(map[int64]*slot),
		bySymbol:    make(map[string]int64),
		trades:      make(map[models.Side][]*models.Trade),
		enabled:     make(map[models.Side]bool),
		settings:    make(map[models.Side]models.StrategySettings),
		manualExits: make(map[string]struct{}),
	}
	for _, side := range models.AllSides {
		b.enabled[side] = true
		if s, ok := settings[side]; ok {
			b.settings[side] = s
		} else {
			b.settings[side] = models.DefaultSettings(side)
		}
	}
	return b
}

// Upsert добавляет инструмент или обновляет его справочные данные.
func (b *Book) Upsert(ref models.MarketRef) {
	sym := helper.NormSymbol(ref.Symbol)
	ref.Symbol = sym

	b.mu.Lock()
	s, ok := b.slots[ref.Token]
	if !ok {
		s = &slot{rt: &models.InstrumentRuntime{
			Token:    ref.Token,
			Symbol:   sym,
			Breakout: models.EngineState{Status: models.StatusWaiting},
			Momentum: models.EngineState{Status: models.StatusWaiting},
		}}
		b.slots[ref.Token] = s
	}
	b.bySymbol[sym] = ref.Token
	b.mu.Unlock()

	s.mu.Lock()
	s.rt.Ref = ref
	s.rt.Symbol = sym
	s.mu.Unlock()
}

func (b *Book) slot(token int64) (*slot, bool) {
	b.mu.RLock()
	s, ok := b.slots[token]
	b.mu.RUnlock()
	return s, ok
}

// WithInstrument выполняет fn под локом инструмента. false — инструмента нет в таблице.
func (b *Book) WithInstrument(token int64, fn func(rt *models.InstrumentRuntime)) bool {
	s, ok := b.slot(token)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.rt)
	return true
}

func (b *Book) TokenBySymbol(symbol string) (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.bySymbol[helper.NormSymbol(symbol)]
	return t, ok
}

func (b *Book) Tokens() []int64 {
	b.mu.RLock()
	out := make([]int64, 0, len(b.slots))
	for t := range b.slots {
		out = append(out, t)
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.slots)
}

// --- сделки ---

func (b *Book) AddTrade(t *models.Trade) {
	b.tradesMu.Lock()
	b.trades[t.Side] = append(b.trades[t.Side], t)
	b.tradesMu.Unlock()
}

// UpdateTrade — единственный способ менять поля сделки после публикации.
func (b *Book) UpdateTrade(t *models.Trade, fn func(t *models.Trade)) {
	b.tradesMu.Lock()
	fn(t)
	b.tradesMu.Unlock()
}

// Trades — копии сделок по сторонам в порядке открытия.
func (b *Book) Trades(openOnly bool) map[models.Side][]models.Trade {
	b.tradesMu.RLock()
	defer b.tradesMu.RUnlock()

	out := make(map[models.Side][]models.Trade, len(models.AllSides))
	for _, side := range models.AllSides {
		list := make([]models.Trade, 0, len(b.trades[side]))
		for _, t := range b.trades[side] {
			if openOnly && t.Status != models.TradeOpen {
				continue
			}
			list = append(list, *t)
		}
		out[side] = list
	}
	return out
}

// PnL — сумма по сторонам (закрытые + плавающая по открытым), округлено до пайсы.
func (b *Book) PnL() (map[models.Side]float64, float64) {
	b.tradesMu.RLock()
	defer b.tradesMu.RUnlock()

	total := decimal.Zero
	out := make(map[models.Side]float64, len(models.AllSides))
	for _, side := range models.AllSides {
		sum := decimal.Zero
		for _, t := range b.trades[side] {
			sum = sum.Add(decimal.NewFromFloat(t.PnL))
		}
		out[side], _ = sum.Round(2).Float64()
		total = total.Add(sum)
	}
	f, _ := total.Round(2).Float64()
	return out, f
}

// OpenSymbols — символы с открытыми сделками.
func (b *Book) OpenSymbols() []string {
	b.tradesMu.RLock()
	defer b.tradesMu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, side := range models.AllSides {
		for _, t := range b.trades[side] {
			if t.Status != models.TradeOpen {
				continue
			}
			if _, ok := seen[t.Symbol]; ok {
				continue
			}
			seen[t.Symbol] = struct{}{}
			out = append(out, t.Symbol)
		}
	}
	sort.Strings(out)
	return out
}

// --- управление ---

func (b *Book) Enabled(side models.Side) bool {
	b.ctlMu.RLock()
	defer b.ctlMu.RUnlock()
	return b.enabled[side]
}

func (b *Book) SetEnabled(side models.Side, v bool) {
	b.ctlMu.Lock()
	b.enabled[side] = v
	b.ctlMu.Unlock()
}

func (b *Book) EngineStatus() map[models.Side]bool {
	b.ctlMu.RLock()
	defer b.ctlMu.RUnlock()
	out := make(map[models.Side]bool, len(b.enabled))
	for k, v := range b.enabled {
		out[k] = v
	}
	return out
}

func (b *Book) Settings(side models.Side) models.StrategySettings {
	b.ctlMu.RLock()
	defer b.ctlMu.RUnlock()
	return b.settings[side]
}

func (b *Book) SetSettings(side models.Side, s models.StrategySettings) {
	b.ctlMu.Lock()
	b.settings[side] = s
	b.ctlMu.Unlock()
}

// RequestExit ставит ручной выход; false, если открытой сделки по символу нет.
func (b *Book) RequestExit(symbol string) bool {
	sym := helper.NormSymbol(symbol)
	open := false
	for _, s := range b.OpenSymbols() {
		if s == sym {
			open = true
			break
		}
	}
	if !open {
		return false
	}
	b.ctlMu.Lock()
	b.manualExits[sym] = struct{}{}
	b.ctlMu.Unlock()
	return true
}

// SquareOffAll ставит ручной выход на все символы с открытыми сделками.
func (b *Book) SquareOffAll() []string {
	syms := b.OpenSymbols()
	b.ctlMu.Lock()
	for _, s := range syms {
		b.manualExits[s] = struct{}{}
	}
	b.ctlMu.Unlock()
	return syms
}

func (b *Book) ExitRequested(symbol string) bool {
	b.ctlMu.RLock()
	defer b.ctlMu.RUnlock()
	_, ok := b.manualExits[symbol]
	return ok
}

func (b *Book) ClearExit(symbol string) {
	b.ctlMu.Lock()
	delete(b.manualExits, symbol)
	b.ctlMu.Unlock()
}

// --- сканер ---

type ScanRow struct {
	Token     int64             `json:"token"`
	Symbol    string            `json:"symbol"`
	Engine    models.EngineKind `json:"engine"`
	Side      models.Side       `json:"side"`
	TriggerPx float64           `json:"trigger_px"`
	LTP       float64           `json:"ltp"`
	Scan      models.ScanInfo   `json:"scan"`
}

// Scanner — инструменты в TRIGGER_WATCH по каждому движку.
func (b *Book) Scanner() []ScanRow {
	var out []ScanRow
	for _, token := range b.Tokens() {
		b.WithInstrument(token, func(rt *models.InstrumentRuntime) {
			for _, kind := range []models.EngineKind{models.EngineBreakout, models.EngineMomentum} {
				st := rt.Engine(kind)
				if st.Status != models.StatusTriggerWatch {
					continue
				}
				out = append(out, ScanRow{
					Token:     rt.Token,
					Symbol:    rt.Symbol,
					Engine:    kind,
					Side:      st.Latch,
					TriggerPx: st.TriggerPx,
					LTP:       rt.LTP,
					Scan:      st.Scan,
				})
			}
		})
	}
	return out
}
