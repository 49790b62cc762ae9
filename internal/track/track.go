// Package track models an audiobook as an ordered sequence of playable
// tracks and provides position arithmetic across track boundaries.
package track

import "context"

// Scheme identifies the DRM scheme a track is fetched under.
type Scheme string

// Supported DRM schemes.
const (
	SchemeOpenAccess Scheme = "openaccess"
	SchemeLCP        Scheme = "lcp"
	SchemeFindaway   Scheme = "findaway"
	SchemeOverdrive  Scheme = "overdrive"
)

// Fetcher is the download mechanism for a single track. Implementations
// live outside the core: they own transport, decryption, and persistence.
type Fetcher interface {
	// Fetch downloads the track's media, honoring context cancellation.
	Fetch(ctx context.Context) error
}

// FetcherFactory selects a Fetcher for a track based on its DRM scheme.
type FetcherFactory func(t *Track, scheme Scheme) Fetcher

// NopFetcher is a Fetcher that does nothing. Used for already-local media
// and as the default when no factory is supplied.
type NopFetcher struct{}

// Fetch implements Fetcher.
func (NopFetcher) Fetch(context.Context) error { return nil }

// Track is a single playable media unit within an audiobook.
// Identity is the stable Key (used for persistence correlation) plus the
// zero-based Index within the owning List. Immutable after construction;
// only the attached Fetcher carries mutable download state.
type Track struct {
	Key      string
	Href     string
	Title    string
	Index    int
	Duration float64 // seconds
	Fetcher  Fetcher
}

// Fetch downloads the track's media via its attached fetcher.
func (t *Track) Fetch(ctx context.Context) error {
	if t.Fetcher == nil {
		return nil
	}
	return t.Fetcher.Fetch(ctx)
}
