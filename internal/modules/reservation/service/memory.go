package service

import (
	"context"
	"sync"
	"time"

	"breakout_bot/internal/helper"
	"breakout_bot/internal/models"
)

// MemoryStore — для одного процесса и тестов. Переживать рестарт не умеет.
type MemoryStore struct {
	opts Options

	mu      sync.Mutex
	day     string
	sides   map[models.Side]int
	symbols map[string]int
	locks   map[string]time.Time // symbol -> истекает
}

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		opts:    opts.withDefaults(),
		sides:   make(map[models.Side]int),
		symbols: make(map[string]int),
		locks:   make(map[string]time.Time),
	}
}

// rollDay сбрасывает дневные счётчики на смене дня. Вызывать под mu.
func (s *MemoryStore) rollDay(now time.Time) {
	d := helper.DayKey(now)
	if d == s.day {
		return
	}
	s.day = d
	s.sides = make(map[models.Side]int)
	s.symbols = make(map[string]int)
}

func (s *MemoryStore) locked(sym string, now time.Time) bool {
	exp, ok := s.locks[sym]
	if !ok {
		return false
	}
	if !now.Before(exp) {
		delete(s.locks, sym)
		return false
	}
	return true
}

func (s *MemoryStore) ReserveSide(_ context.Context, side models.Side, limit int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollDay(s.opts.Now())

	if s.sides[side] >= limit {
		return false, nil
	}
	s.sides[side]++
	return true, nil
}

func (s *MemoryStore) RollbackSide(_ context.Context, side models.Side) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollDay(s.opts.Now())

	if s.sides[side] > 0 {
		s.sides[side]--
	}
	return nil
}

func (s *MemoryStore) ReserveInstrument(_ context.Context, symbol string, maxPerDay int) (bool, models.ReserveReason, error) {
	sym, err := normSymbol(symbol)
	if err != nil {
		return false, models.ReserveError, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.opts.Now()
	s.rollDay(now)

	if s.symbols[sym] >= maxPerDay {
		return false, models.ReserveMaxTrades, nil
	}
	if s.locked(sym, now) {
		return false, models.ReserveLocked, nil
	}
	s.symbols[sym]++
	s.locks[sym] = now.Add(s.opts.LockTTL)
	return true, models.ReserveOK, nil
}

func (s *MemoryStore) RollbackInstrument(_ context.Context, symbol string) error {
	sym, err := normSymbol(symbol)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollDay(s.opts.Now())

	delete(s.locks, sym)
	if s.symbols[sym] > 0 {
		s.symbols[sym]--
	}
	return nil
}

func (s *MemoryStore) ReleaseLock(_ context.Context, symbol string) error {
	sym, err := normSymbol(symbol)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.locks, sym)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetInstrumentTradeCount(_ context.Context, symbol string) (int, error) {
	sym, err := normSymbol(symbol)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollDay(s.opts.Now())
	return s.symbols[sym], nil
}

func (s *MemoryStore) SideCount(_ context.Context, side models.Side) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollDay(s.opts.Now())
	return s.sides[side], nil
}
