package models

type ReserveReason string

const (
	ReserveOK        ReserveReason = "OK"
	ReserveLocked    ReserveReason = "LOCKED"
	ReserveMaxTrades ReserveReason = "MAX_TRADES"
	ReserveError     ReserveReason = "ERROR"
)
