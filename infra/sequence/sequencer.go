package sequence

import "sync/atomic"

// Sequencer hands out strictly increasing sequence numbers for catalog
// mutations and check results.
type Sequencer struct {
	last atomic.Uint64
}

// New starts after start; the first Next returns start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued number.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Advance moves the sequencer forward to v if v is ahead. Used after
// snapshot load and WAL replay.
func (s *Sequencer) Advance(v uint64) {
	for {
		cur := s.last.Load()
		if v <= cur || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}
