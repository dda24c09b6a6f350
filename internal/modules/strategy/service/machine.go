package service

import (
	"context"
	"fmt"
	"time"

	"breakout_bot/internal/book"
	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"
	reservation "breakout_bot/internal/modules/reservation/service"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Qualifier — часть движка, отличающая Breakout от Momentum: по закрытой свече
// решает сторону. Общие проверки (тумблер, окно, матрица объёма) делает Machine.
type Qualifier interface {
	Name() string
	Kind() models.EngineKind
	Reason() string
	Qualify(rt *models.InstrumentRuntime, st *models.EngineState, c models.Candle, now time.Time) (models.Side, bool)
}

type Deps struct {
	Book         *book.Book
	Reservations reservation.Service
	Gateway      Gateway
	Journal      Journal
	Notifier     ServiceNotifier
	Log          *zap.Logger
	Params       Params
	Now          func() time.Time
}

// Machine — общая машина состояний WAITING → TRIGGER_WATCH → PENDING → OPEN → EXITING → WAITING.
type Machine struct {
	q Qualifier
	d Deps
}

func NewMachine(q Qualifier, d Deps) *Machine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Machine{q: q, d: d}
}

func (m *Machine) Name() string            { return m.q.Name() }
func (m *Machine) Kind() models.EngineKind { return m.q.Kind() }

func (m *Machine) OnCandleClose(rt *models.InstrumentRuntime, c models.Candle, now time.Time) {
	st := rt.Engine(m.Kind())
	if st.Status != models.StatusWaiting {
		return
	}

	side, ok := m.q.Qualify(rt, st, c, now)
	if !ok {
		return
	}
	if !m.d.Book.Enabled(side) {
		return
	}
	set := m.d.Book.Settings(side)
	if !helper.WithinWindow(now, set.TradeStart, set.TradeEnd) {
		return
	}

	pass, detail := CheckVolumeMatrix(set.VolumeMatrix, rt.Ref.SMA, c)
	if !pass {
		m.d.Log.Debug("[QUAL] volume reject",
			zap.String("engine", m.Name()),
			zap.String("symbol", rt.Symbol),
			zap.String("side", string(side)),
			zap.String("detail", detail),
		)
		return
	}

	ref := c
	st.Status = models.StatusTriggerWatch
	st.Latch = side
	st.RefCandle = &ref
	if side.IsLong() {
		st.TriggerPx = c.High
	} else {
		st.TriggerPx = c.Low
	}
	if st.Scan.SeenAt.IsZero() {
		st.Scan.SeenAt = now
	}
	st.Scan.Volume = c.Volume
	st.Scan.Reason = m.q.Reason()

	m.d.Log.Info("[QUAL] trigger watch",
		zap.String("engine", m.Name()),
		zap.String("symbol", rt.Symbol),
		zap.String("side", string(side)),
		zap.Float64("trigger", st.TriggerPx),
		zap.Int64("volume", c.Volume),
		zap.String("detail", detail),
	)
}

func (m *Machine) OnTick(rt *models.InstrumentRuntime, price float64, now time.Time) *Action {
	st := rt.Engine(m.Kind())
	switch st.Status {
	case models.StatusTriggerWatch:
		return m.onWatch(rt, st, price, now)
	case models.StatusOpen:
		return m.onOpen(rt, st, price)
	}
	return nil
}

func (m *Machine) onWatch(rt *models.InstrumentRuntime, st *models.EngineState, price float64, now time.Time) *Action {
	side := st.Latch
	set := m.d.Book.Settings(side)
	if !m.d.Book.Enabled(side) || !helper.WithinWindow(now, set.TradeStart, set.TradeEnd) {
		st.Reset()
		return nil
	}

	fired := (side.IsLong() && price > st.TriggerPx) || (!side.IsLong() && price < st.TriggerPx)
	if !fired {
		return nil
	}

	st.Status = models.StatusPending
	var ref *models.Candle
	if st.RefCandle != nil {
		c := *st.RefCandle
		ref = &c
	}
	token, symbol := rt.Token, rt.Symbol

	return &Action{
		Kind:   ActionEntry,
		Engine: m.Kind(),
		Token:  token,
		Symbol: symbol,
		run: func(ctx context.Context) {
			m.enter(ctx, token, symbol, side, price, ref, set)
		},
	}
}

func (m *Machine) onOpen(rt *models.InstrumentRuntime, st *models.EngineState, price float64) *Action {
	t := st.Trade
	if t == nil {
		st.Reset()
		return nil
	}
	if t.Entry <= 0 || t.Qty <= 0 {
		st.Status = models.StatusExiting
		return m.exitAction(rt.Token, t, models.ExitBadTradeState, price)
	}

	pnl := helper.Round2(t.UnrealizedPnL(price))
	var pending models.ExitReason
	m.d.Book.UpdateTrade(t, func(t *models.Trade) {
		t.LTP = price
		t.PnL = pnl
		pending = t.PendingExit
	})
	if pending != "" {
		st.Status = models.StatusExiting
		return m.exitAction(rt.Token, t, pending, price)
	}

	reason := exitReason(t, price, m.d.Book.ExitRequested(t.Symbol), m.d.Params.ExitBufferPct)
	if reason != "" {
		st.Status = models.StatusExiting
		return m.exitAction(rt.Token, t, reason, price)
	}

	if sl, ok := StepTrail(t, price, m.d.Params.TickSize); ok {
		prev := t.SL
		m.d.Book.UpdateTrade(t, func(t *models.Trade) { t.SL = sl })
		m.d.Log.Info("[TRAIL] stop moved",
			zap.String("symbol", t.Symbol),
			zap.String("side", string(t.Side)),
			zap.Float64("from", prev),
			zap.Float64("to", sl),
		)
	}
	return nil
}

func (m *Machine) exitAction(token int64, t *models.Trade, reason models.ExitReason, price float64) *Action {
	return &Action{
		Kind:   ActionExit,
		Engine: m.Kind(),
		Token:  token,
		Symbol: t.Symbol,
		run: func(ctx context.Context) {
			m.exit(ctx, token, t, reason, price)
		},
	}
}

// enter: резерв стороны → резерв инструмента → расчёт → ордер. Любой сбой откатывает резервы и возвращает WAITING.
func (m *Machine) enter(ctx context.Context, token int64, symbol string, side models.Side, price float64, ref *models.Candle, set models.StrategySettings) {
	log := m.d.Log.With(
		zap.String("engine", m.Name()),
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
	)
	sideHeld, symHeld := false, false
	done := false
	defer func() {
		if r := recover(); r != nil {
			log.Error("[ENTRY] panic", zap.Any("panic", r))
		}
		if done {
			return
		}
		m.rollback(ctx, log, side, symbol, sideHeld, symHeld)
		m.toWaiting(token)
	}()

	ok, err := m.d.Reservations.ReserveSide(ctx, side, set.TotalTrades)
	if err != nil {
		log.Error("[ENTRY] reserve side", zap.Error(err))
		return
	}
	if !ok {
		log.Info("[ENTRY] side limit reached", zap.Int("limit", set.TotalTrades))
		return
	}
	sideHeld = true

	ok, reason, err := m.d.Reservations.ReserveInstrument(ctx, symbol, m.d.Params.MaxTradesPerSymbol)
	if err != nil {
		log.Error("[ENTRY] reserve instrument", zap.Error(err))
		return
	}
	if !ok {
		log.Info("[ENTRY] instrument denied", zap.String("reason", string(reason)))
		return
	}
	symHeld = true

	rr, err := helper.ParseRatio(set.RiskReward)
	if err != nil {
		log.Warn("[ENTRY] bad risk_reward, using 2", zap.Error(err))
		rr = 2
	}
	trail, err := helper.ParseRatio(set.TrailingSL)
	if err != nil {
		log.Warn("[ENTRY] bad trailing_sl, using 1", zap.Error(err))
		trail = 1
	}

	plan, err := PlanEntry(EntryInput{
		Side:       side,
		Price:      price,
		Ref:        ref,
		RiskAmount: set.RiskAmount,
		RR:         rr,
		TrailRatio: trail,
	}, m.d.Params)
	if err != nil {
		log.Info("[ENTRY] rejected", zap.Error(err))
		return
	}

	orderID, err := m.d.Gateway.PlaceMarketOrder(ctx, symbol, side.Entry(), plan.Qty)
	if err != nil {
		log.Error("[ENTRY] order failed", zap.Error(err))
		m.notify(ctx, "⚠️ ENTRY FAILED %s %s qty=%d: %v", symbol, side, plan.Qty, err)
		return
	}

	t := &models.Trade{
		ID:        ulid.Make().String(),
		Engine:    m.Kind(),
		Side:      side,
		Token:     token,
		Symbol:    symbol,
		Qty:       plan.Qty,
		Entry:     plan.Entry,
		SL:        plan.SL,
		Target:    plan.Target,
		EntryTime: m.d.Now(),
		InitRisk:  plan.Risk,
		TrailStep: plan.TrailStep,
		OrderID:   orderID,
		LTP:       plan.Entry,
		Status:    models.TradeOpen,
	}
	m.d.Book.WithInstrument(token, func(rt *models.InstrumentRuntime) {
		st := rt.Engine(m.Kind())
		st.Status = models.StatusOpen
		st.Trade = t
		m.d.Book.AddTrade(t)
	})
	done = true

	log.Info("[ENTRY] opened",
		zap.String("trade_id", t.ID),
		zap.Int64("qty", t.Qty),
		zap.Float64("entry", t.Entry),
		zap.Float64("sl", t.SL),
		zap.Float64("target", t.Target),
		zap.String("order_id", orderID),
	)
	m.notify(ctx, "🟢 %s %s %s qty=%d @ %.2f | SL %.2f | TGT %.2f",
		m.Name(), side, symbol, t.Qty, t.Entry, t.SL, t.Target)
	if m.d.Journal != nil {
		if err := m.d.Journal.Opened(ctx, m.snapshot(t)); err != nil {
			log.Warn("[JOURNAL] opened", zap.Error(err))
		}
	}
}

func (m *Machine) rollback(ctx context.Context, log *zap.Logger, side models.Side, symbol string, sideHeld, symHeld bool) {
	if symHeld {
		if err := m.d.Reservations.RollbackInstrument(ctx, symbol); err != nil {
			log.Error("[ENTRY] rollback instrument", zap.Error(err))
		}
	}
	if sideHeld {
		if err := m.d.Reservations.RollbackSide(ctx, side); err != nil {
			log.Error("[ENTRY] rollback side", zap.Error(err))
		}
	}
}

func (m *Machine) toWaiting(token int64) {
	m.d.Book.WithInstrument(token, func(rt *models.InstrumentRuntime) {
		rt.Engine(m.Kind()).Reset()
	})
}

// exit вызывается ровно один раз на сделку: повторные тики видят EXITING и ничего не шлют.
func (m *Machine) exit(ctx context.Context, token int64, t *models.Trade, reason models.ExitReason, price float64) {
	log := m.d.Log.With(
		zap.String("engine", m.Name()),
		zap.String("symbol", t.Symbol),
		zap.String("trade_id", t.ID),
		zap.String("reason", string(reason)),
	)

	var (
		orderID string
		err     error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("exit order panic: %v", r)
			}
		}()
		if t.Qty > 0 && reason != models.ExitBadTradeState {
			orderID, err = m.d.Gateway.PlaceMarketOrder(ctx, t.Symbol, t.Side.Exit(), t.Qty)
		}
	}()

	if err != nil {
		log.Error("[EXIT] order failed, reconcile position manually", zap.Error(err), zap.Int64("qty", t.Qty))
		m.notify(ctx, "🚨 EXIT FAILED %s %s qty=%d (%s): %v. Проверьте позицию у брокера!",
			t.Symbol, t.Side, t.Qty, reason, err)

		if !m.d.Params.CloseOnFailedExit {
			m.d.Book.UpdateTrade(t, func(t *models.Trade) {
				t.ExitFailed = true
				t.PendingExit = reason
			})
			m.d.Book.WithInstrument(token, func(rt *models.InstrumentRuntime) {
				st := rt.Engine(m.Kind())
				if st.Trade == t {
					st.Status = models.StatusOpen
				}
			})
			return
		}
	}

	now := m.d.Now()
	pnl := helper.Round2(t.UnrealizedPnL(price))
	m.d.Book.UpdateTrade(t, func(t *models.Trade) {
		t.Status = models.TradeClosed
		t.ExitReason = reason
		t.ExitTime = now
		t.ExitPrice = price
		t.ExitOrderID = orderID
		t.ExitFailed = err != nil
		t.PendingExit = ""
		t.LTP = price
		t.PnL = pnl
	})

	if rerr := m.d.Reservations.ReleaseLock(ctx, t.Symbol); rerr != nil {
		log.Error("[EXIT] release lock", zap.Error(rerr))
	}
	m.d.Book.WithInstrument(token, func(rt *models.InstrumentRuntime) {
		st := rt.Engine(m.Kind())
		if st.Trade == t {
			st.Reset()
		}
	})
	m.d.Book.ClearExit(t.Symbol)

	log.Info("[EXIT] closed", zap.Float64("price", price), zap.Float64("pnl", pnl))
	m.notify(ctx, "🔴 %s %s %s closed (%s) @ %.2f | PnL %.2f", m.Name(), t.Side, t.Symbol, reason, price, pnl)

	if m.d.Journal != nil {
		if jerr := m.d.Journal.Closed(ctx, m.snapshot(t)); jerr != nil {
			log.Warn("[JOURNAL] closed", zap.Error(jerr))
		}
	}
}

func (m *Machine) snapshot(t *models.Trade) models.Trade {
	var out models.Trade
	m.d.Book.UpdateTrade(t, func(t *models.Trade) { out = *t })
	return out
}

func (m *Machine) notify(ctx context.Context, format string, args ...any) {
	if m.d.Notifier == nil {
		return
	}
	m.d.Notifier.SendService(ctx, format, args...)
}
