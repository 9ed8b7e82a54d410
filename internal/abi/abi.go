// Package abi tracks native memory that crosses the host boundary.
//
// Every native buffer the bridge allocates and every borrowed host view it
// opens is recorded in a Ledger until it is freed or released. A call that
// returns with entries still outstanding has leaked.
package abi

import (
	"sync"

	"github.com/greetings-dev/greetings-bridge/domain/errors"
)

// Kind distinguishes owned native buffers from borrowed host views.
type Kind int

const (
	// Buffer is native memory owned by the bridge; it must be freed.
	Buffer Kind = iota
	// View is host memory borrowed by the bridge; it must be released.
	// Views are recorded but never count against the limit.
	View
)

type entry struct {
	kind Kind
	size int
}

// Ledger records live allocations keyed by address.
type Ledger struct {
	mu             sync.Mutex
	entries        map[uintptr]entry
	totalAllocated int
	ownedBytes     int
	limit          int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithMaxTotalAllocations limits the Buffer bytes tracked at once. Ledgers are
// unlimited by default. Non-positive values are ignored.
func WithMaxTotalAllocations(limit int) Option {
	return func(l *Ledger) {
		if limit > 0 {
			l.limit = limit
		}
	}
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		entries: make(map[uintptr]entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Default is the process-wide ledger used by the jni adapter.
var Default = NewLedger()

// Track records an allocation of size bytes at ptr.
// A Buffer that would take the owned bytes past the limit is rejected with a
// *errors.MemoryError and the caller must free it itself. Views are always
// recorded.
func (l *Ledger) Track(ptr uintptr, size int, kind Kind) error {
	if ptr == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	old, exists := l.entries[ptr]
	owned := l.ownedBytes
	if exists && old.kind == Buffer {
		owned -= old.size
	}
	if kind == Buffer && l.limit > 0 && owned+size > l.limit {
		return &errors.MemoryError{Requested: size, Current: l.ownedBytes, Limit: l.limit}
	}

	if exists {
		l.forget(old)
	}
	l.entries[ptr] = entry{kind: kind, size: size}
	l.totalAllocated += size
	if kind == Buffer {
		l.ownedBytes += size
	}
	return nil
}

func (l *Ledger) forget(e entry) {
	l.totalAllocated -= e.size
	if e.kind == Buffer {
		l.ownedBytes -= e.size
	}
}

// Untrack removes the entry for ptr. It reports whether ptr was tracked, so
// callers can detect double frees. Untracking an unknown pointer is a no-op.
func (l *Ledger) Untrack(ptr uintptr) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, exists := l.entries[ptr]
	if !exists {
		return false
	}
	delete(l.entries, ptr)
	l.forget(e)
	return true
}

// Outstanding returns the number of live entries of the given kind.
func (l *Ledger) Outstanding(kind Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, e := range l.entries {
		if e.kind == kind {
			n++
		}
	}
	return n
}

// Stats returns the number of live entries and the bytes they cover.
func (l *Ledger) Stats() (count, totalBytes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries), l.totalAllocated
}

// Reset forgets every entry. It does not free anything.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ptr := range l.entries {
		delete(l.entries, ptr)
	}
	l.totalAllocated = 0
	l.ownedBytes = 0
}
