package cursor

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// CompletionSet records which ids of a run have completed, in any order.
type CompletionSet struct {
	mu   sync.Mutex
	bits *bitset.BitSet
}

func NewCompletionSet(size int) *CompletionSet {
	if size < 0 {
		size = 0
	}
	return &CompletionSet{bits: bitset.New(uint(size))}
}

func (s *CompletionSet) Mark(id int) {
	if id < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bits.Set(uint(id))
}

func (s *CompletionSet) Has(id int) bool {
	if id < 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bits.Test(uint(id))
}

func (s *CompletionSet) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.bits.Count())
}

// Contiguous returns the highest id h such that every id in [from, h] is
// marked. ok is false when from itself is not marked.
func (s *CompletionSet) Contiguous(from int) (int, bool) {
	if from < 0 {
		from = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.bits.Test(uint(from)) {
		return 0, false
	}
	gap, found := s.bits.NextClear(uint(from))
	if !found {
		return int(s.bits.Len()) - 1, true
	}
	return int(gap) - 1, true
}

// Missing lists unmarked ids in [from, to).
func (s *CompletionSet) Missing(from int, to int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	missing := make([]int, 0)
	for id := from; id < to; id++ {
		if id < 0 || !s.bits.Test(uint(id)) {
			missing = append(missing, id)
		}
	}
	return missing
}
