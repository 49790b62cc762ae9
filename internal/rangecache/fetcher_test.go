package rangecache

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockFetcher is a testify mock of the transport collaborator.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchRange(ctx context.Context, resource string, r ByteRange) ([]byte, error) {
	args := m.Called(ctx, resource, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func TestCachingFetcher_MissFetchesAndCaches(t *testing.T) {
	cache := New(1<<20, nil)
	fetcher := new(mockFetcher)
	cf := NewCachingFetcher(cache, fetcher, nil)

	r := NewByteRange(0, 1024)
	data := rangeData(r)
	fetcher.On("FetchRange", mock.Anything, "res", r).Return(data, nil).Once()

	got, err := cf.FetchRange(context.Background(), "res", r)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, got))

	// Second call is a cache hit; the collaborator is not consulted again.
	got, err = cf.FetchRange(context.Background(), "res", r)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, got))

	// A contained subrange is a hit too: no second fetch.
	sub, err := cf.FetchRange(context.Background(), "res", ByteRange{Start: 100, End: 200})
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data[100:200], sub))

	fetcher.AssertExpectations(t)
}

func TestCachingFetcher_FetchErrorNotCached(t *testing.T) {
	cache := New(1<<20, nil)
	fetcher := new(mockFetcher)
	cf := NewCachingFetcher(cache, fetcher, nil)

	r := NewByteRange(0, 100)
	fetcher.On("FetchRange", mock.Anything, "res", r).Return(nil, context.Canceled).Once()

	_, err := cf.FetchRange(context.Background(), "res", r)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// A cancelled fetch leaves no partial cache state.
	assert.Zero(t, cache.TotalBytes())
	_, ok := cache.Get("res", r)
	assert.False(t, ok)
}

func TestCachingFetcher_DeduplicatesInFlightFetches(t *testing.T) {
	cache := New(1<<20, nil)

	r := NewByteRange(0, 4096)
	data := rangeData(r)

	var calls atomic.Int64
	release := make(chan struct{})
	fetcher := fetchFunc(func(ctx context.Context, resource string, fr ByteRange) ([]byte, error) {
		calls.Add(1)
		<-release
		return data, nil
	})
	cf := NewCachingFetcher(cache, fetcher, nil)

	const goroutines = 16
	var wg sync.WaitGroup
	results := make([][]byte, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := cf.FetchRange(context.Background(), "res", r)
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "identical in-flight requests should share one fetch")
	for _, got := range results {
		assert.True(t, bytes.Equal(data, got))
	}
}

func TestCachingFetcher_Invalidate(t *testing.T) {
	cache := New(1<<20, nil)
	fetcher := new(mockFetcher)
	cf := NewCachingFetcher(cache, fetcher, nil)

	r := NewByteRange(0, 100)
	data := rangeData(r)
	fetcher.On("FetchRange", mock.Anything, "res", r).Return(data, nil).Twice()

	_, err := cf.FetchRange(context.Background(), "res", r)
	require.NoError(t, err)

	cf.Invalidate("res")

	// Invalidation forces a refetch.
	_, err = cf.FetchRange(context.Background(), "res", r)
	require.NoError(t, err)
	fetcher.AssertExpectations(t)
}

// fetchFunc adapts a function to the Fetcher interface.
type fetchFunc func(ctx context.Context, resource string, r ByteRange) ([]byte, error)

func (f fetchFunc) FetchRange(ctx context.Context, resource string, r ByteRange) ([]byte, error) {
	return f(ctx, resource, r)
}
