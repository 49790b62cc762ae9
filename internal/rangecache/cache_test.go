package rangecache

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rangeData(r ByteRange) []byte {
	data := make([]byte, r.Length())
	for i := range data {
		data[i] = byte((r.Start + int64(i)) % 251)
	}
	return data
}

func TestByteRange(t *testing.T) {
	r := NewByteRange(100, 50)
	assert.Equal(t, ByteRange{Start: 100, End: 150}, r)
	assert.Equal(t, int64(50), r.Length())
	assert.True(t, r.Valid())

	assert.True(t, r.Contains(ByteRange{Start: 100, End: 150}))
	assert.True(t, r.Contains(ByteRange{Start: 120, End: 130}))
	assert.False(t, r.Contains(ByteRange{Start: 99, End: 130}))
	assert.False(t, r.Contains(ByteRange{Start: 120, End: 151}))

	assert.False(t, ByteRange{Start: -1, End: 10}.Valid())
	assert.False(t, ByteRange{Start: 10, End: 10}.Valid())
}

func TestCache_ExactHit(t *testing.T) {
	c := New(1<<20, nil)
	r := NewByteRange(0, 1024)
	data := rangeData(r)

	require.NoError(t, c.Put("https://cdn.example/track0.mp3", r, data))

	got, ok := c.Get("https://cdn.example/track0.mp3", r)
	require.True(t, ok)
	assert.True(t, bytes.Equal(data, got))
}

func TestCache_ContainmentHit(t *testing.T) {
	c := New(1<<20, nil)
	r := NewByteRange(0, 1024)
	data := rangeData(r)

	require.NoError(t, c.Put("res", r, data))

	// A contained subrange is served by slicing the stored entry.
	got, ok := c.Get("res", ByteRange{Start: 100, End: 200})
	require.True(t, ok)
	require.Len(t, got, 100)
	assert.True(t, bytes.Equal(data[100:200], got))
}

func TestCache_Miss(t *testing.T) {
	c := New(1<<20, nil)
	require.NoError(t, c.Put("res", NewByteRange(0, 100), rangeData(NewByteRange(0, 100))))

	_, ok := c.Get("res", ByteRange{Start: 50, End: 150}) // overlaps but not contained
	assert.False(t, ok)

	_, ok = c.Get("other", ByteRange{Start: 0, End: 10}) // different resource
	assert.False(t, ok)
}

func TestCache_PutValidation(t *testing.T) {
	c := New(1<<20, nil)

	err := c.Put("res", ByteRange{Start: 10, End: 10}, nil)
	require.Error(t, err)

	err = c.Put("res", NewByteRange(0, 100), make([]byte, 99))
	require.Error(t, err)
}

func TestCache_RejectsEntryLargerThanBudget(t *testing.T) {
	c := New(1024, nil)
	r := NewByteRange(0, 2048)

	err := c.Put("res", r, rangeData(r))
	require.Error(t, err)
	assert.Zero(t, c.TotalBytes())
}

func TestCache_EvictionKeepsTotalUnderBudget(t *testing.T) {
	const budget = 10 * 1024
	c := New(budget, nil)

	for i := 0; i < 50; i++ {
		r := NewByteRange(int64(i)*1024, 1024)
		require.NoError(t, c.Put(fmt.Sprintf("res-%d", i%3), r, rangeData(r)))
		assert.LessOrEqual(t, c.TotalBytes(), int64(budget),
			"budget exceeded after insert %d", i)
	}
	assert.Greater(t, c.TotalBytes(), int64(0))
}

func TestCache_EvictsOldestFirst(t *testing.T) {
	c := New(3*1024, nil)

	r0 := NewByteRange(0, 1024)
	r1 := NewByteRange(1024, 1024)
	r2 := NewByteRange(2048, 1024)
	r3 := NewByteRange(3072, 1024)

	require.NoError(t, c.Put("res", r0, rangeData(r0)))
	require.NoError(t, c.Put("res", r1, rangeData(r1)))
	require.NoError(t, c.Put("res", r2, rangeData(r2)))
	require.NoError(t, c.Put("res", r3, rangeData(r3)))

	_, ok := c.Get("res", r0)
	assert.False(t, ok, "oldest entry should have been evicted")
	for _, r := range []ByteRange{r1, r2, r3} {
		_, ok := c.Get("res", r)
		assert.True(t, ok, "entry %s should survive", r)
	}
}

func TestCache_ReplacesIdenticalRange(t *testing.T) {
	c := New(1<<20, nil)
	r := NewByteRange(0, 100)

	require.NoError(t, c.Put("res", r, rangeData(r)))
	require.NoError(t, c.Put("res", r, rangeData(r)))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(100), c.TotalBytes())
}

func TestCache_Invalidate(t *testing.T) {
	c := New(1<<20, nil)
	r := NewByteRange(0, 100)

	require.NoError(t, c.Put("a", r, rangeData(r)))
	require.NoError(t, c.Put("b", r, rangeData(r)))

	c.Invalidate("a")

	_, ok := c.Get("a", r)
	assert.False(t, ok)
	_, ok = c.Get("b", r)
	assert.True(t, ok)
	assert.Equal(t, int64(100), c.TotalBytes())
	assert.Equal(t, 1, c.Len())

	// Invalidating an unknown resource is a no-op.
	c.Invalidate("missing")
	assert.Equal(t, int64(100), c.TotalBytes())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(64*1024, nil)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			resource := fmt.Sprintf("res-%d", g%2)
			for i := 0; i < 200; i++ {
				r := NewByteRange(int64(i)*512, 512)
				_ = c.Put(resource, r, rangeData(r))
				if data, ok := c.Get(resource, r); ok {
					// A hit must be a consistent snapshot, never a
					// partially-evicted entry.
					assert.True(t, bytes.Equal(rangeData(r), data))
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.TotalBytes(), int64(64*1024))
}
