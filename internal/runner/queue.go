package runner

import (
	"sync"
	"sync/atomic"
)

// Queue — ограниченная очередь с политикой drop_oldest: производитель никогда не блокируется,
// при переполнении выбрасывается самый старый элемент.
type Queue[T any] struct {
	mu      sync.Mutex
	ch      chan T
	dropped atomic.Int64
}

func NewQueue[T any](size int) *Queue[T] {
	if size <= 0 {
		size = 1
	}
	return &Queue[T]{ch: make(chan T, size)}
}

// Push кладёт v; false, если ради этого пришлось что-то выбросить.
func (q *Queue[T]) Push(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		select {
		case q.ch <- v:
			return false
		default:
		}
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
	}
}

func (q *Queue[T]) C() <-chan T { return q.ch }

// Drain добирает без ожидания до max элементов, включая first.
func (q *Queue[T]) Drain(first T, max int) []T {
	out := make([]T, 0, max)
	out = append(out, first)
	for len(out) < max {
		select {
		case v := <-q.ch:
			out = append(out, v)
		default:
			return out
		}
	}
	return out
}

func (q *Queue[T]) Len() int       { return len(q.ch) }
func (q *Queue[T]) Cap() int       { return cap(q.ch) }
func (q *Queue[T]) Dropped() int64 { return q.dropped.Load() }

// Group раскладывает батч по ключу, сохраняя порядок внутри ключа и порядок первых появлений.
func Group[T any](batch []T, key func(T) int64) ([]int64, map[int64][]T) {
	order := make([]int64, 0, len(batch))
	groups := make(map[int64][]T, len(batch))
	for _, v := range batch {
		k := key(v)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], v)
	}
	return order, groups
}
