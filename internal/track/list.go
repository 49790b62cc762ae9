package track

import (
	"github.com/thepalaceproject/audiobook-toolkit/internal/errors"
)

// List is an ordered collection of tracks for one audiobook.
// Ordering is playback order; indexes are assigned at construction and
// never change. Tracks are unique by key. A List is never reordered after
// construction; when the manifest changes, the whole List is replaced.
type List struct {
	tracks []*Track
	byKey  map[string]*Track
	byHref map[string]*Track
}

// NewList builds a List from tracks in playback order, assigning indexes.
// Returns a validation error on duplicate keys or negative durations.
func NewList(tracks []*Track) (*List, error) {
	l := &List{
		tracks: make([]*Track, 0, len(tracks)),
		byKey:  make(map[string]*Track, len(tracks)),
		byHref: make(map[string]*Track, len(tracks)),
	}

	for i, t := range tracks {
		if t.Key == "" {
			return nil, errors.Validationf("track %d has an empty key", i)
		}
		if t.Duration < 0 {
			return nil, errors.Validationf("track %q has negative duration %f", t.Key, t.Duration)
		}
		if _, exists := l.byKey[t.Key]; exists {
			return nil, errors.Validationf("duplicate track key %q", t.Key)
		}

		t.Index = i
		if t.Fetcher == nil {
			t.Fetcher = NopFetcher{}
		}

		l.tracks = append(l.tracks, t)
		l.byKey[t.Key] = t
		if t.Href != "" {
			l.byHref[t.Href] = t
		}
	}

	return l, nil
}

// Len returns the number of tracks.
func (l *List) Len() int {
	return len(l.tracks)
}

// ByIndex returns the track at the given index, or nil if out of range.
func (l *List) ByIndex(i int) *Track {
	if i < 0 || i >= len(l.tracks) {
		return nil
	}
	return l.tracks[i]
}

// ByKey returns the track with the given key, or nil.
func (l *List) ByKey(key string) *Track {
	return l.byKey[key]
}

// ByHref returns the track with the given href, or nil.
func (l *List) ByHref(href string) *Track {
	return l.byHref[href]
}

// First returns the first track, or nil for an empty list.
func (l *List) First() *Track {
	return l.ByIndex(0)
}

// Last returns the last track, or nil for an empty list.
func (l *List) Last() *Track {
	return l.ByIndex(len(l.tracks) - 1)
}

// Previous returns the track before t, or nil at the start of the book.
// Lookup is by identity, not value.
func (l *List) Previous(t *Track) *Track {
	if t == nil || !l.Contains(t) {
		return nil
	}
	return l.ByIndex(t.Index - 1)
}

// Next returns the track after t, or nil at the end of the book.
// Lookup is by identity, not value.
func (l *List) Next(t *Track) *Track {
	if t == nil || !l.Contains(t) {
		return nil
	}
	return l.ByIndex(t.Index + 1)
}

// Contains reports whether t is a member of this list (identity check).
func (l *List) Contains(t *Track) bool {
	if t == nil {
		return false
	}
	return l.byKey[t.Key] == t
}

// TotalDuration returns the sum of all track durations in seconds.
func (l *List) TotalDuration() float64 {
	var total float64
	for _, t := range l.tracks {
		total += t.Duration
	}
	return total
}

// All returns the tracks in playback order. The returned slice is a copy;
// mutating it does not affect the list.
func (l *List) All() []*Track {
	out := make([]*Track, len(l.tracks))
	copy(out, l.tracks)
	return out
}
