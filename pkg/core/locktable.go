package core

import (
	"strings"
	"sync"
)

// LockTable maps order ids to mutexes. Locks are created on first reference
// and retained for the process lifetime; ids are never reused, so the table
// only grows.
type LockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *LockTable) lockFor(id string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}

// LockHandle tracks the mutexes held by one acquisition. Release is
// idempotent and unlocks in reverse acquisition order.
type LockHandle struct {
	held []*sync.Mutex
}

func (h *LockHandle) Release() {
	for i := len(h.held) - 1; i >= 0; i-- {
		h.held[i].Unlock()
	}
	h.held = nil
}

// Acquire locks a single order id.
func (t *LockTable) Acquire(id string) *LockHandle {
	l := t.lockFor(id)
	l.Lock()
	return &LockHandle{held: []*sync.Mutex{l}}
}

// AcquirePair locks two order ids, always taking the lexicographically
// smaller id first. The fixed global order over all pair acquisitions is
// what rules out circular wait, and with it deadlock.
func (t *LockTable) AcquirePair(a, b string) *LockHandle {
	if a == b {
		return t.Acquire(a)
	}
	la, lb := t.lockFor(a), t.lockFor(b)
	if strings.Compare(a, b) > 0 {
		la, lb = lb, la
	}
	la.Lock()
	lb.Lock()
	return &LockHandle{held: []*sync.Mutex{la, lb}}
}
