package cursor

import (
	"reflect"
	"sync"
	"testing"
)

func TestCompletionSetContiguous(t *testing.T) {
	set := NewCompletionSet(10)
	if _, ok := set.Contiguous(0); ok {
		t.Fatal("expected no contiguous prefix on an empty set")
	}

	for _, id := range []int{0, 1, 2, 4, 5} {
		set.Mark(id)
	}
	high, ok := set.Contiguous(0)
	if !ok || high != 2 {
		t.Fatalf("expected 2, got %d ok=%v", high, ok)
	}
	high, ok = set.Contiguous(4)
	if !ok || high != 5 {
		t.Fatalf("expected 5, got %d ok=%v", high, ok)
	}

	set.Mark(3)
	high, _ = set.Contiguous(0)
	if high != 5 {
		t.Fatalf("expected 5 after filling the gap, got %d", high)
	}
	if set.Count() != 6 || !set.Has(3) || set.Has(6) || set.Has(-1) {
		t.Fatal("unexpected membership")
	}
	if got := set.Missing(0, 8); !reflect.DeepEqual(got, []int{6, 7}) {
		t.Fatalf("unexpected missing ids %v", got)
	}
}

func TestCompletionSetFullRange(t *testing.T) {
	set := NewCompletionSet(4)
	for id := 0; id < 4; id++ {
		set.Mark(id)
	}
	high, ok := set.Contiguous(0)
	if !ok || high < 3 {
		t.Fatalf("expected at least 3, got %d ok=%v", high, ok)
	}
}

func TestCompletionSetConcurrentMarks(t *testing.T) {
	set := NewCompletionSet(100)
	var wg sync.WaitGroup
	for id := 0; id < 100; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			set.Mark(id)
		}(id)
	}
	wg.Wait()
	if set.Count() != 100 {
		t.Fatalf("expected 100, got %d", set.Count())
	}
}
