package testkit

import (
	"sync"
	"testing"
	"time"
)

var (
	clockFn   = func() int64 { return 1 }
	chunkSize = 10
)

func TestSwapRestores(t *testing.T) {
	t.Run("func", func(t *testing.T) {
		Swap(t, &clockFn, func() int64 { return 99 })
		if clockFn() != 99 {
			t.Fatalf("swap did not take effect")
		}
	})
	t.Run("int", func(t *testing.T) {
		Swap(t, &chunkSize, 42)
		if chunkSize != 42 {
			t.Fatalf("swap did not take effect")
		}
	})
	if clockFn() != 1 || chunkSize != 10 {
		t.Fatalf("swap did not restore: clock=%d chunk=%d", clockFn(), chunkSize)
	}
}

func TestSerialGroupsSubtests(t *testing.T) {
	var mu sync.Mutex
	var seq []string
	record := func(s string) {
		mu.Lock()
		seq = append(seq, s)
		mu.Unlock()
	}

	t.Run("group", func(t *testing.T) {
		for _, name := range []string{"A", "B"} {
			t.Run(name, func(t *testing.T) {
				t.Parallel()
				Serial(t)
				record(name + "-start")
				time.Sleep(20 * time.Millisecond)
				record(name + "-end")
			})
		}
	})

	if len(seq) != 4 {
		t.Fatalf("seq = %v", seq)
	}
	// each start is immediately followed by its own end
	for i := 0; i < 4; i += 2 {
		if seq[i][:1] != seq[i+1][:1] {
			t.Fatalf("interleaved execution: %v", seq)
		}
	}
}
