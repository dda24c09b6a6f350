package service

import (
	"sync/atomic"
	"time"
)

// State — живое состояние бота для проб и дашборда: вселенная, фид, поток свечей.
type State struct {
	startedAt time.Time

	ready       atomic.Bool
	instruments atomic.Int64

	wsConnected  atomic.Bool
	connects     atomic.Int64
	lastTickUnix atomic.Int64 // unix seconds

	candles        atomic.Int64
	lastCandleUnix atomic.Int64 // бакет последней закрытой свечи
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

// SetUniverse фиксирует число загруженных инструментов; без них бот не готов.
func (s *State) SetUniverse(n int) {
	s.instruments.Store(int64(n))
	s.ready.Store(n > 0)
}

func (s *State) Instruments() int { return int(s.instruments.Load()) }

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) {
	if v && !s.wsConnected.Swap(true) {
		s.connects.Add(1)
		return
	}
	s.wsConnected.Store(v)
}
func (s *State) WSConnected() bool { return s.wsConnected.Load() }

// Reconnects — сколько раз фид переподключался после первого соединения.
func (s *State) Reconnects() int64 {
	if n := s.connects.Load(); n > 1 {
		return n - 1
	}
	return 0
}

func (s *State) TouchTick(t time.Time) { s.lastTickUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time   { return fromUnix(s.lastTickUnix.Load()) }

// TouchCandle вызывается диспетчером закрытий на каждую обработанную свечу.
func (s *State) TouchCandle(bucket time.Time) {
	s.candles.Add(1)
	s.lastCandleUnix.Store(bucket.Unix())
}
func (s *State) Candles() int64        { return s.candles.Load() }
func (s *State) LastCandle() time.Time { return fromUnix(s.lastCandleUnix.Load()) }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func fromUnix(u int64) time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}
