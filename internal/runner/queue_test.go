package runner

import (
	"sync"
	"testing"

	"breakout_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDropsOldest(t *testing.T) {
	t.Parallel()
	q := NewQueue[int](3)
	for i := 1; i <= 3; i++ {
		assert.True(t, q.Push(i))
	}
	assert.False(t, q.Push(4))
	assert.False(t, q.Push(5))
	assert.Equal(t, int64(2), q.Dropped())
	assert.Equal(t, 3, q.Len())

	first := <-q.C()
	assert.Equal(t, 3, first)
	assert.Equal(t, []int{3, 4, 5}, q.Drain(first, 10))
}

func TestQueueEvictsWholeBatch(t *testing.T) {
	t.Parallel()
	q := NewQueue[[]models.Tick](2)
	frameA := []models.Tick{{Token: 1, Price: 1}, {Token: 2, Price: 1}, {Token: 3, Price: 1}}
	frameB := []models.Tick{{Token: 1, Price: 2}, {Token: 2, Price: 2}, {Token: 3, Price: 2}}
	frameC := []models.Tick{{Token: 1, Price: 3}, {Token: 2, Price: 3}, {Token: 3, Price: 3}}
	assert.True(t, q.Push(frameA))
	assert.True(t, q.Push(frameB))
	assert.False(t, q.Push(frameC))

	assert.Equal(t, int64(1), q.Dropped())
	assert.Equal(t, frameB, <-q.C())
	assert.Equal(t, frameC, <-q.C())
	assert.Zero(t, q.Len())
}

func TestQueueDrainRespectsMax(t *testing.T) {
	t.Parallel()
	q := NewQueue[int](10)
	for i := 0; i < 10; i++ {
		q.Push(i)
	}
	first := <-q.C()
	batch := q.Drain(first, 4)
	assert.Equal(t, []int{0, 1, 2, 3}, batch)
	assert.Equal(t, 6, q.Len())
}

func TestQueueConcurrentProducersNeverBlock(t *testing.T) {
	t.Parallel()
	q := NewQueue[int](16)
	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 16, q.Len())
	assert.Equal(t, int64(8000-16), q.Dropped())
}

func TestGroupKeepsOrder(t *testing.T) {
	t.Parallel()
	type ev struct {
		k int64
		v int
	}
	order, groups := Group([]ev{{2, 1}, {1, 2}, {2, 3}, {3, 4}, {1, 5}}, func(e ev) int64 { return e.k })
	assert.Equal(t, []int64{2, 1, 3}, order)
	assert.Equal(t, []ev{{2, 1}, {2, 3}}, groups[2])
	assert.Equal(t, []ev{{1, 2}, {1, 5}}, groups[1])
}
