package rangecache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/thepalaceproject/audiobook-toolkit/internal/logger"
)

// Fetcher produces the bytes for a range of a resource. Implementations
// live outside the core: HTTP range transport, decryption, retry policy all
// belong to the collaborator, not to the cache.
type Fetcher interface {
	FetchRange(ctx context.Context, resource string, r ByteRange) ([]byte, error)
}

// CachingFetcher is a read-through layer in front of a Fetcher: a cache hit
// short-circuits the network and returns synchronously; a miss fetches,
// caches the successful result, and deduplicates identical in-flight
// requests so concurrent reads of the same range cost one fetch.
//
// A cancelled fetch surfaces the collaborator's error and writes nothing to
// the cache; there are no partial entries.
type CachingFetcher struct {
	cache   *Cache
	fetcher Fetcher
	group   singleflight.Group
	log     *logger.Logger
}

// NewCachingFetcher wraps fetcher with cache. A nil logger discards.
func NewCachingFetcher(cache *Cache, fetcher Fetcher, log *logger.Logger) *CachingFetcher {
	if log == nil {
		log = logger.Discard()
	}
	return &CachingFetcher{
		cache:   cache,
		fetcher: fetcher,
		log:     log,
	}
}

// FetchRange returns the bytes for the range, from cache when possible.
func (f *CachingFetcher) FetchRange(ctx context.Context, resource string, r ByteRange) ([]byte, error) {
	if data, ok := f.cache.Get(resource, r); ok {
		return data, nil
	}

	key := fmt.Sprintf("%s#%d-%d", resource, r.Start, r.End)
	v, err, shared := f.group.Do(key, func() (any, error) {
		// A concurrent caller may have populated the cache while this one
		// waited on the flight group.
		if data, ok := f.cache.Get(resource, r); ok {
			return data, nil
		}

		data, err := f.fetcher.FetchRange(ctx, resource, r)
		if err != nil {
			return nil, err
		}
		if putErr := f.cache.Put(resource, r, data); putErr != nil {
			// Serve the bytes anyway; an uncacheable range is not a failure.
			f.log.Debug("range not cached",
				"resource", resource,
				"range", r.String(),
				"error", putErr,
			)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		f.log.Debug("deduplicated in-flight range fetch",
			"resource", resource,
			"range", r.String(),
		)
	}
	return v.([]byte), nil
}

// Invalidate drops all cached ranges for a resource.
func (f *CachingFetcher) Invalidate(resource string) {
	f.cache.Invalidate(resource)
}
