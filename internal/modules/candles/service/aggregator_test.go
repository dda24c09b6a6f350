package service

import (
	"math/rand"
	"testing"
	"time"

	"breakout_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 4, 3, 45, 0, 0, time.UTC) // 09:15 IST

func TestFirstTickOpensCandle(t *testing.T) {
	t.Parallel()
	a := NewAggregator()
	rt := &models.InstrumentRuntime{Token: 1}

	_, closed := a.Update(rt, 100, 5000, t0.Add(5*time.Second))
	assert.False(t, closed)
	require.NotNil(t, rt.Candle)
	assert.Equal(t, t0, rt.Candle.Bucket)
	assert.Equal(t, 100.0, rt.Candle.Open)
	assert.Equal(t, int64(0), rt.Candle.Volume)
	assert.Equal(t, int64(5000), rt.BaseVolume)
}

func TestCloseOnBucketChange(t *testing.T) {
	t.Parallel()
	a := NewAggregator()
	rt := &models.InstrumentRuntime{Token: 7}

	ticks := []struct {
		px  float64
		vol int64
		at  time.Duration
	}{
		{100, 1000, 1 * time.Second},
		{102, 1500, 10 * time.Second},
		{99, 1700, 30 * time.Second},
		{101, 2000, 59 * time.Second},
	}
	for _, tk := range ticks {
		_, closed := a.Update(rt, tk.px, tk.vol, t0.Add(tk.at))
		require.False(t, closed)
	}

	c, closed := a.Update(rt, 103, 2600, t0.Add(61*time.Second))
	require.True(t, closed)
	assert.Equal(t, models.Candle{Token: 7, Bucket: t0, Open: 100, High: 102, Low: 99, Close: 101, Volume: 1000}, c)

	// новая свеча открыта текущим тиком
	assert.Equal(t, t0.Add(time.Minute), rt.Candle.Bucket)
	assert.Equal(t, 103.0, rt.Candle.Open)
	assert.Equal(t, int64(0), rt.Candle.Volume)

	// закрытая свеча — копия, а не ссылка на живую
	rt.Candle.High = 500
	assert.Equal(t, 102.0, c.High)
}

func TestVolumeNeverNegativeOnFeedReset(t *testing.T) {
	t.Parallel()
	a := NewAggregator()
	rt := &models.InstrumentRuntime{Token: 1}

	a.Update(rt, 100, 10_000, t0)
	a.Update(rt, 100, 10_500, t0.Add(time.Second))
	a.Update(rt, 100, 200, t0.Add(2*time.Second)) // фид сбросил накопленный объём
	a.Update(rt, 100, 260, t0.Add(3*time.Second))

	assert.Equal(t, int64(560), rt.Candle.Volume)
}

func TestLateTickStaysInCurrentBucket(t *testing.T) {
	t.Parallel()
	a := NewAggregator()
	rt := &models.InstrumentRuntime{Token: 1}

	a.Update(rt, 100, 0, t0.Add(time.Minute))
	_, closed := a.Update(rt, 90, 10, t0.Add(30*time.Second))
	assert.False(t, closed)
	assert.Equal(t, t0.Add(time.Minute), rt.Candle.Bucket)
	assert.Equal(t, 90.0, rt.Candle.Low)
}

// Случайные последовательности: одна закрытая свеча на каждую пересечённую границу,
// open — первый тик бакета, high/low — экстремумы, close — последний тик, объём >= 0.
func TestRandomSequences(t *testing.T) {
	t.Parallel()
	rnd := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		a := NewAggregator()
		rt := &models.InstrumentRuntime{Token: 1}

		type agg struct {
			open, high, low, close float64
		}
		expected := map[time.Time]*agg{}
		var order []time.Time
		var emitted []models.Candle

		at := t0
		cum := int64(0)
		n := 5 + rnd.Intn(200)
		for i := 0; i < n; i++ {
			at = at.Add(time.Duration(rnd.Intn(40_000)) * time.Millisecond)
			px := 90 + rnd.Float64()*20
			// иногда объём откатывается назад
			if rnd.Intn(10) == 0 {
				cum -= int64(rnd.Intn(500))
			} else {
				cum += int64(rnd.Intn(1000))
			}

			b := at.Truncate(time.Minute)
			e, ok := expected[b]
			if !ok {
				e = &agg{open: px, high: px, low: px}
				expected[b] = e
				order = append(order, b)
			}
			if px > e.high {
				e.high = px
			}
			if px < e.low {
				e.low = px
			}
			e.close = px

			if c, closed := a.Update(rt, px, cum, at); closed {
				emitted = append(emitted, c)
			}
		}

		require.Len(t, emitted, len(order)-1)
		for i, c := range emitted {
			e := expected[order[i]]
			assert.Equal(t, order[i], c.Bucket)
			assert.Equal(t, e.open, c.Open)
			assert.Equal(t, e.high, c.High)
			assert.Equal(t, e.low, c.Low)
			assert.Equal(t, e.close, c.Close)
			assert.GreaterOrEqual(t, c.Volume, int64(0))
		}
	}
}
