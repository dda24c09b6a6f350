package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayKeyUsesIST(t *testing.T) {
	t.Parallel()
	// 20:00 UTC — это уже следующий день в IST
	utc := time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "20240305", DayKey(utc))
}

func TestSecondsUntilEOD(t *testing.T) {
	t.Parallel()
	noon := time.Date(2024, 3, 4, 12, 0, 0, 0, IST())
	assert.Equal(t, int64(12*3600-1), SecondsUntilEOD(noon))

	late := time.Date(2024, 3, 4, 23, 59, 30, 0, IST())
	assert.Equal(t, int64(60), SecondsUntilEOD(late))
}

func TestParseRatio(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want float64
		err  bool
	}{
		{"1:2", 2, false},
		{"1:1.5", 1.5, false},
		{" 3 ", 3, false},
		{"1:x", 0, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRatio(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestWithinWindow(t *testing.T) {
	t.Parallel()
	at := func(h, m int) time.Time { return time.Date(2024, 3, 4, h, m, 0, 0, IST()) }

	assert.True(t, WithinWindow(at(9, 15), "09:15", "15:10"))
	assert.True(t, WithinWindow(at(15, 10), "09:15", "15:10"))
	assert.False(t, WithinWindow(at(9, 14), "09:15", "15:10"))
	assert.False(t, WithinWindow(at(15, 11), "09:15", "15:10"))
	assert.True(t, WithinWindow(at(3, 0), "bad", "15:10"))
}

func TestTurnoverCr(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.2525, TurnoverCr(25_000, 101), 1e-9)
	assert.Equal(t, 0.0, TurnoverCr(25_000, 0))
}

func TestRoundToTick(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 100.45, RoundDownToTick(100.47, 0.05), 1e-9)
	assert.InDelta(t, 100.5, RoundUpToTick(100.47, 0.05), 1e-9)
	assert.InDelta(t, 100.5, RoundDownToTick(100.5, 0.05), 1e-9)
	assert.InDelta(t, 100.5, RoundUpToTick(100.5, 0.05), 1e-9)
	assert.Equal(t, 100.47, RoundDownToTick(100.47, 0))
}

func TestRound2(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 99.5, Round2(99.499999))
	assert.Equal(t, 103.0, Round2(103.0000001))
}
