package memory

import "sync"

// Pool is a typed wrapper over sync.Pool.
type Pool[T any] struct {
	p     sync.Pool
	reset func(*T) bool
}

// NewPool builds a pool from ctor. reset, if set, prepares an object for
// reuse and returns false when it should be dropped instead.
func NewPool[T any](ctor func() *T, reset func(*T) bool) *Pool[T] {
	return &Pool[T]{
		p:     sync.Pool{New: func() any { return ctor() }},
		reset: reset,
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	if v == nil {
		return
	}
	if p.reset != nil && !p.reset(v) {
		return
	}
	p.p.Put(v)
}

// NewBufferPool pools byte slices of initial capacity size. Buffers that
// grew past max are not kept.
func NewBufferPool(size, max int) *Pool[[]byte] {
	return NewPool(
		func() *[]byte {
			b := make([]byte, 0, size)
			return &b
		},
		func(b *[]byte) bool {
			if cap(*b) > max {
				return false
			}
			*b = (*b)[:0]
			return true
		},
	)
}
