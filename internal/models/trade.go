package models

import "time"

type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

type ExitReason string

const (
	ExitManual        ExitReason = "MANUAL_EXIT"
	ExitTarget        ExitReason = "TARGET"
	ExitStopLoss      ExitReason = "STOP_LOSS"
	ExitBadTradeState ExitReason = "BAD_TRADE_STATE"
)

// Trade никогда не удаляется: закрытая сделка остаётся в истории со статусом CLOSED.
type Trade struct {
	ID        string      `json:"id"`
	Engine    EngineKind  `json:"engine"`
	Side      Side        `json:"side"`
	Token     int64       `json:"token"`
	Symbol    string      `json:"symbol"`
	Qty       int64       `json:"qty"`
	Entry     float64     `json:"entry_price"`
	SL        float64     `json:"sl_price"`
	Target    float64     `json:"target_price"`
	EntryTime time.Time   `json:"entry_time"`
	InitRisk  float64     `json:"init_risk"`
	TrailStep float64     `json:"trail_step"`
	OrderID   string      `json:"order_id"`
	LTP       float64     `json:"ltp"`
	PnL       float64     `json:"pnl"`
	Status    TradeStatus `json:"status"`

	ExitReason  ExitReason `json:"exit_reason,omitempty"`
	ExitTime    time.Time  `json:"exit_time,omitempty"`
	ExitPrice   float64    `json:"exit_price,omitempty"`
	ExitOrderID string     `json:"exit_order_id,omitempty"`
	ExitFailed  bool       `json:"exit_failed,omitempty"`
	// PendingExit — причина выхода, ордер по которой не прошёл; повторяется на следующем тике.
	PendingExit ExitReason `json:"pending_exit,omitempty"`
}

// UnrealizedPnL по цене px.
func (t *Trade) UnrealizedPnL(px float64) float64 {
	if t.Side.IsLong() {
		return (px - t.Entry) * float64(t.Qty)
	}
	return (t.Entry - px) * float64(t.Qty)
}
