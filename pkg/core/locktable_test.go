package core

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"
)

func TestLockTableSingle(t *testing.T) {
	lt := NewLockTable()

	h := lt.Acquire("ORD-1")
	released := make(chan struct{})
	go func() {
		h2 := lt.Acquire("ORD-1")
		h2.Release()
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("second acquire succeeded while the lock was held")
	case <-time.After(20 * time.Millisecond):
	}

	h.Release()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("lock not released")
	}
}

func TestLockTableReleaseIdempotent(t *testing.T) {
	lt := NewLockTable()
	h := lt.AcquirePair("ORD-1", "ORD-2")
	h.Release()
	h.Release() // must be a no-op, not an unlock of an unheld mutex

	h2 := lt.AcquirePair("ORD-2", "ORD-1")
	h2.Release()
}

func TestLockTablePairSameID(t *testing.T) {
	lt := NewLockTable()
	h := lt.AcquirePair("ORD-1", "ORD-1")
	h.Release()
	h2 := lt.Acquire("ORD-1")
	h2.Release()
}

// TestLockTableDeadlockFreedom hammers overlapping pairs in arbitrary
// argument order. The canonical acquisition order means no interleaving can
// produce a circular wait; the test fails by timeout if one ever does.
func TestLockTableDeadlockFreedom(t *testing.T) {
	lt := NewLockTable()

	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("ORD-%d", i)
	}

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for w := 0; w < 16; w++ {
			wg.Add(1)
			go func(seed int64) {
				defer wg.Done()
				rng := rand.New(rand.NewSource(seed))
				for i := 0; i < 500; i++ {
					a := ids[rng.Intn(len(ids))]
					b := ids[rng.Intn(len(ids))]
					h := lt.AcquirePair(a, b)
					h.Release()
				}
			}(int64(w))
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("lock stress did not finish: possible deadlock")
	}
}
