package helper

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	istOnce sync.Once
	ist     *time.Location
)

// IST — Asia/Kolkata; если tzdata нет в образе, фиксированный +05:30.
func IST() *time.Location {
	istOnce.Do(func() {
		loc, err := time.LoadLocation("Asia/Kolkata")
		if err != nil {
			loc = time.FixedZone("IST", 5*3600+1800)
		}
		ist = loc
	})
	return ist
}

// DayKey — торговый день в IST, формат YYYYMMDD.
func DayKey(t time.Time) string { return t.In(IST()).Format("20060102") }

// SecondsUntilEOD — сколько жить дневным счётчикам: до 23:59:59 IST, но не меньше минуты.
func SecondsUntilEOD(now time.Time) int64 {
	n := now.In(IST())
	eod := time.Date(n.Year(), n.Month(), n.Day(), 23, 59, 59, 0, IST())
	sec := int64(eod.Sub(n) / time.Second)
	if sec < 60 {
		return 60
	}
	return sec
}

func NormSymbol(raw string) string { return strings.ToUpper(strings.TrimSpace(raw)) }

// ParseRatio берёт правую часть "1:2" -> 2. Голое число тоже принимается.
func ParseRatio(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("bad ratio %q: %w", raw, err)
	}
	return v, nil
}

// ParseClock разбирает "HH:MM" в минуты от полуночи.
func ParseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad clock %q", raw)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad clock %q", raw)
	}
	return h*60 + m, nil
}

// WithinWindow — now (в IST) внутри [start, end] включительно.
// Битое окно не блокирует торговлю.
func WithinWindow(now time.Time, start, end string) bool {
	s, err1 := ParseClock(start)
	e, err2 := ParseClock(end)
	if err1 != nil || err2 != nil {
		return true
	}
	n := now.In(IST())
	cur := n.Hour()*60 + n.Minute()
	return cur >= s && cur <= e
}

// MinuteOfDay — минута дня в IST для начала бакета.
func MinuteOfDay(t time.Time) int {
	n := t.In(IST())
	return n.Hour()*60 + n.Minute()
}

// Round2 — округление цены до пайсы.
func Round2(px float64) float64 {
	f, _ := decimal.NewFromFloat(px).Round(2).Float64()
	return f
}

// TurnoverCr — оборот в кроре (1e7 рупий).
func TurnoverCr(volume int64, price float64) float64 {
	if price <= 0 || volume <= 0 {
		return 0
	}
	f, _ := decimal.NewFromInt(volume).Mul(decimal.NewFromFloat(price)).Div(decimal.NewFromInt(10_000_000)).Float64()
	return f
}

// RoundDownToTick / RoundUpToTick — к шагу цены биржи (NSE 0.05).
func RoundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	t := decimal.NewFromFloat(tick)
	f, _ := decimal.NewFromFloat(px).Div(t).Floor().Mul(t).Float64()
	return f
}

func RoundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	t := decimal.NewFromFloat(tick)
	f, _ := decimal.NewFromFloat(px).Div(t).Ceil().Mul(t).Float64()
	return f
}
