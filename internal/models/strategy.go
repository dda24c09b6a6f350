package models

import "strings"

type EngineKind string

const (
	EngineBreakout EngineKind = "breakout"
	EngineMomentum EngineKind = "momentum"
)

// Side — ключ стороны стратегии: у каждой свой конфиг, тумблер, журнал и дневной лимит.
type Side string

const (
	SideNone    Side = ""
	SideBull    Side = "bull"
	SideBear    Side = "bear"
	SideMomBull Side = "mom_bull"
	SideMomBear Side = "mom_bear"
)

var AllSides = []Side{SideBull, SideBear, SideMomBull, SideMomBear}

func ParseSide(raw string) (Side, bool) {
	s := Side(strings.ToLower(strings.TrimSpace(raw)))
	for _, v := range AllSides {
		if v == s {
			return s, true
		}
	}
	return SideNone, false
}

// IsLong — bull/mom_bull покупают, bear/mom_bear шортят.
func (s Side) IsLong() bool { return s == SideBull || s == SideMomBull }

func (s Side) Engine() EngineKind {
	if s == SideMomBull || s == SideMomBear {
		return EngineMomentum
	}
	return EngineBreakout
}

// Entry — направление входного ордера.
func (s Side) Entry() OrderSide {
	if s.IsLong() {
		return OrderBuy
	}
	return OrderSell
}

// Exit — противоположный ордер для закрытия.
func (s Side) Exit() OrderSide {
	if s.IsLong() {
		return OrderSell
	}
	return OrderBuy
}

type OrderSide string

const (
	OrderBuy  OrderSide = "BUY"
	OrderSell OrderSide = "SELL"
)

// Status — состояние движка по инструменту.
type Status string

const (
	StatusWaiting      Status = "WAITING"
	StatusTriggerWatch Status = "TRIGGER_WATCH"
	StatusPending      Status = "PENDING"
	StatusOpen         Status = "OPEN"
	StatusExiting      Status = "EXITING"
)
