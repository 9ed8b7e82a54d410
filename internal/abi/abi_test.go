package abi

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/greetings-dev/greetings-bridge/domain/errors"
)

func TestTrackUntrack(t *testing.T) {
	l := NewLedger()

	require.NoError(t, l.Track(0x1000, 1024, Buffer))

	count, totalBytes := l.Stats()
	assert.Equal(t, 1, count, "expected 1 tracked allocation")
	assert.Equal(t, 1024, totalBytes, "total bytes mismatch")
	assert.Equal(t, 1, l.Outstanding(Buffer))
	assert.Equal(t, 0, l.Outstanding(View))

	assert.True(t, l.Untrack(0x1000))

	count, totalBytes = l.Stats()
	assert.Equal(t, 0, count, "expected 0 tracked allocations after untrack")
	assert.Equal(t, 0, totalBytes, "expected 0 total bytes after untrack")
}

func TestTrack_NullPointer(t *testing.T) {
	l := NewLedger()

	require.NoError(t, l.Track(0, 16, View))

	count, _ := l.Stats()
	assert.Zero(t, count, "null pointers are never tracked")
}

func TestUntrack_Idempotent(t *testing.T) {
	l := NewLedger()

	require.NoError(t, l.Track(0x2000, 100, View))
	assert.True(t, l.Untrack(0x2000))
	// Second untrack reports the double release without corrupting state
	assert.False(t, l.Untrack(0x2000))

	_, totalBytes := l.Stats()
	assert.Equal(t, 0, totalBytes)
}

func TestTrack_Limit(t *testing.T) {
	l := NewLedger(WithMaxTotalAllocations(1024))

	require.NoError(t, l.Track(0x10, 512, Buffer))

	err := l.Track(0x20, 1024, Buffer)
	require.Error(t, err)

	var memErr *domainerrors.MemoryError
	require.True(t, errors.As(err, &memErr))
	assert.Equal(t, 1024, memErr.Requested)
	assert.Equal(t, 512, memErr.Current)
	assert.Equal(t, 1024, memErr.Limit)
}

func TestTrack_ViewsIgnoreLimit(t *testing.T) {
	l := NewLedger(WithMaxTotalAllocations(64))

	require.NoError(t, l.Track(0x10, 40, View))
	require.NoError(t, l.Track(0x20, 40, View), "views are never rejected")
	require.NoError(t, l.Track(0x30, 64, Buffer), "views do not count against the buffer limit")

	count, totalBytes := l.Stats()
	assert.Equal(t, 3, count)
	assert.Equal(t, 144, totalBytes)

	assert.Error(t, l.Track(0x40, 1, Buffer))
	assert.True(t, l.Untrack(0x30))
	assert.NoError(t, l.Track(0x40, 1, Buffer))
}

func TestTrack_RetrackSameBuffer(t *testing.T) {
	l := NewLedger(WithMaxTotalAllocations(100))

	require.NoError(t, l.Track(0x10, 80, Buffer))
	require.NoError(t, l.Track(0x10, 90, Buffer), "the old size is replaced, not added")

	_, totalBytes := l.Stats()
	assert.Equal(t, 90, totalBytes)
}

func TestNewLedger_UnlimitedByDefault(t *testing.T) {
	l := NewLedger()

	require.NoError(t, l.Track(0x10, 1<<40, Buffer))
	require.NoError(t, l.Track(0x20, 1<<40, View))
}

func TestWithMaxTotalAllocations_InvalidLimit(t *testing.T) {
	l := NewLedger(WithMaxTotalAllocations(0), WithMaxTotalAllocations(-100))

	require.NoError(t, l.Track(0x10, 4096, Buffer))
}

func TestReset(t *testing.T) {
	l := NewLedger()

	require.NoError(t, l.Track(0x10, 100, Buffer))
	require.NoError(t, l.Track(0x20, 200, View))

	count, _ := l.Stats()
	require.Equal(t, 2, count)

	l.Reset()

	count, totalBytes := l.Stats()
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, totalBytes)
}

func TestConcurrency(t *testing.T) {
	l := NewLedger()

	var wg sync.WaitGroup
	iterations := 100

	wg.Add(iterations)
	for i := 0; i < iterations; i++ {
		go func(ptr uintptr) {
			defer wg.Done()
			_ = l.Track(ptr, 20, Buffer)
			l.Untrack(ptr)
		}(uintptr(0x1000 + i*0x100))
	}
	wg.Wait()

	count, _ := l.Stats()
	assert.Equal(t, 0, count, "expected 0 allocations after concurrent operations")
}
