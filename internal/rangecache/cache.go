// Package rangecache caches byte ranges of streamed resources so the player
// never fetches the same bytes twice. A stored range answers any request it
// fully contains; total cached bytes stay under a configured budget via
// eviction on insert.
package rangecache

import (
	"fmt"
	"sync"

	"github.com/thepalaceproject/audiobook-toolkit/internal/errors"
	"github.com/thepalaceproject/audiobook-toolkit/internal/logger"
)

// DefaultMaxBytes is the cache budget used when none is configured.
const DefaultMaxBytes = 32 << 20 // 32 MiB

// ByteRange is a half-open byte interval [Start, End).
type ByteRange struct {
	Start int64
	End   int64
}

// NewByteRange builds the half-open range [start, start+length).
func NewByteRange(start, length int64) ByteRange {
	return ByteRange{Start: start, End: start + length}
}

// Length returns the number of bytes in the range.
func (r ByteRange) Length() int64 {
	return r.End - r.Start
}

// Valid reports whether the range is non-empty with a non-negative start.
func (r ByteRange) Valid() bool {
	return r.Start >= 0 && r.End > r.Start
}

// Contains reports whether o lies entirely within r.
func (r ByteRange) Contains(o ByteRange) bool {
	return r.Start <= o.Start && o.End <= r.End
}

// String implements fmt.Stringer.
func (r ByteRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// entry is one cached range of one resource. Entry data is immutable once
// stored; Get hands out subslices of it.
type entry struct {
	rng  ByteRange
	data []byte
}

// entryRef locates an entry for the eviction queue.
type entryRef struct {
	resource string
	rng      ByteRange
}

// Cache is a byte-range cache keyed by resource identity (a URL or
// equivalent stable string).
//
// All mutation runs under the write lock; reads share the read lock, so
// concurrent range fetches for unrelated resources never block each other
// on reads. Entries expire only under space pressure or explicit
// invalidation, never by time.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string][]entry
	order    []entryRef // insertion order, eviction runs front to back
	total    int64
	maxBytes int64
	log      *logger.Logger
}

// New creates a cache with the given byte budget. A non-positive budget
// falls back to DefaultMaxBytes. A nil logger discards.
func New(maxBytes int64, log *logger.Logger) *Cache {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Cache{
		entries:  make(map[string][]entry),
		maxBytes: maxBytes,
		log:      log,
	}
}

// Get returns the bytes for the requested range if a stored range satisfies
// it: an exact match first, otherwise any stored range that fully contains
// the request, sliced down. A miss returns (nil, false) and the caller
// fetches.
func (c *Cache) Get(resource string, r ByteRange) ([]byte, bool) {
	if !r.Valid() {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	stored := c.entries[resource]
	for i := range stored {
		if stored[i].rng == r {
			return stored[i].data, true
		}
	}
	for i := range stored {
		if stored[i].rng.Contains(r) {
			lo := r.Start - stored[i].rng.Start
			hi := lo + r.Length()
			return stored[i].data[lo:hi:hi], true
		}
	}
	return nil, false
}

// Put stores the bytes for a range, evicting older entries until the new
// one fits the budget. The data length must match the range length. An
// entry larger than the whole budget is rejected rather than cached.
func (c *Cache) Put(resource string, r ByteRange, data []byte) error {
	if !r.Valid() {
		return errors.Validationf("invalid byte range %s", r)
	}
	if int64(len(data)) != r.Length() {
		return errors.Validationf("range %s expects %d bytes, got %d", r, r.Length(), len(data))
	}
	size := r.Length()
	if size > c.maxBytes {
		return errors.Validationf("entry of %d bytes exceeds cache budget of %d", size, c.maxBytes)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Replace an identical range rather than stacking duplicates.
	c.removeLocked(resource, r)

	for c.total+size > c.maxBytes && len(c.order) > 0 {
		victim := c.order[0]
		c.removeLocked(victim.resource, victim.rng)
		c.log.Debug("evicted cached range",
			"resource", victim.resource,
			"range", victim.rng.String(),
		)
	}

	c.entries[resource] = append(c.entries[resource], entry{rng: r, data: data})
	c.order = append(c.order, entryRef{resource: resource, rng: r})
	c.total += size
	return nil
}

// Invalidate drops every cached range for a resource, e.g. on publication
// reload.
func (c *Cache) Invalidate(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored, ok := c.entries[resource]
	if !ok {
		return
	}
	for i := range stored {
		c.total -= stored[i].rng.Length()
	}
	delete(c.entries, resource)

	kept := c.order[:0]
	for _, ref := range c.order {
		if ref.resource != resource {
			kept = append(kept, ref)
		}
	}
	c.order = kept
}

// TotalBytes returns the current cached byte total.
func (c *Cache) TotalBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Len returns the number of cached entries across all resources.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// removeLocked drops the entry with exactly the given range, if present.
// Caller holds the write lock.
func (c *Cache) removeLocked(resource string, r ByteRange) {
	stored := c.entries[resource]
	for i := range stored {
		if stored[i].rng == r {
			c.total -= r.Length()
			c.entries[resource] = append(stored[:i], stored[i+1:]...)
			if len(c.entries[resource]) == 0 {
				delete(c.entries, resource)
			}
			for j := range c.order {
				if c.order[j].resource == resource && c.order[j].rng == r {
					c.order = append(c.order[:j], c.order[j+1:]...)
					break
				}
			}
			return
		}
	}
}
