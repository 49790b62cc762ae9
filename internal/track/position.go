package track

import (
	"fmt"
	"math"

	"github.com/thepalaceproject/audiobook-toolkit/internal/errors"
)

// Position is a point in the audiobook: a track plus a timestamp in seconds
// from the start of that track. Positions are immutable values; arithmetic
// produces new instances. Timestamp is normally within [0, Track.Duration]
// but may transiently exceed bounds before normalization.
type Position struct {
	Track     *Track
	Timestamp float64
	List      *List
}

// NewPosition creates a position on t at the given timestamp.
func NewPosition(l *List, t *Track, timestamp float64) Position {
	return Position{Track: t, Timestamp: timestamp, List: l}
}

// String implements fmt.Stringer.
func (p Position) String() string {
	if p.Track == nil {
		return "position(<nil>)"
	}
	return fmt.Sprintf("position(track=%d@%.3fs)", p.Track.Index, p.Timestamp)
}

// Compare orders positions: by track index first, then by timestamp.
// Returns -1, 0, or +1. Positions on unrelated lists still compare by
// index and timestamp; use Difference for arithmetic that must reject them.
func (p Position) Compare(o Position) int {
	if p.Track.Index != o.Track.Index {
		if p.Track.Index < o.Track.Index {
			return -1
		}
		return 1
	}
	switch {
	case p.Timestamp < o.Timestamp:
		return -1
	case p.Timestamp > o.Timestamp:
		return 1
	default:
		return 0
	}
}

// Before reports whether p orders strictly before o.
func (p Position) Before(o Position) bool {
	return p.Compare(o) < 0
}

// After reports whether p orders strictly after o.
func (p Position) After(o Position) bool {
	return p.Compare(o) > 0
}

// Equals reports identity-and-exact-timestamp equality: same track instance
// and bit-exact timestamps. This is the default equality for new code;
// interop with integer-second bookmark stores should use SameSecond.
func (p Position) Equals(o Position) bool {
	return p.Track == o.Track && p.Timestamp == o.Timestamp
}

// SameSecond reports second-granularity equality: same track instance and
// timestamps that truncate to the same whole second.
func (p Position) SameSecond(o Position) bool {
	return p.Track == o.Track && math.Trunc(p.Timestamp) == math.Trunc(o.Timestamp)
}

// Difference returns the signed seconds from o to p (p minus o).
// Errors with DifferentTracks when the two positions do not share a List.
//
// For positions on different tracks the result accumulates the remainder of
// the earlier track, the full durations of every track strictly between,
// and the elapsed portion of the later track. Satisfies
// Difference(a,b) == -Difference(b,a) and Difference(a,a) == 0.
func (p Position) Difference(o Position) (float64, error) {
	if p.List == nil || o.List == nil || p.List != o.List {
		return 0, errors.ErrDifferentTracks
	}
	if !p.List.Contains(p.Track) || !o.List.Contains(o.Track) {
		return 0, errors.DifferentTracks("position track is not a member of its list")
	}

	if p.Track == o.Track {
		return p.Timestamp - o.Timestamp, nil
	}

	// Compute forward distance from the earlier to the later position,
	// then flip the sign if p comes first.
	lo, hi := o, p
	sign := 1.0
	if p.Track.Index < o.Track.Index {
		lo, hi = p, o
		sign = -1.0
	}

	total := lo.Track.Duration - lo.Timestamp
	for i := lo.Track.Index + 1; i < hi.Track.Index; i++ {
		total += p.List.ByIndex(i).Duration
	}
	total += hi.Timestamp

	return sign * total, nil
}

// Add returns the position delta seconds away from p, carrying across track
// boundaries: negative intermediate timestamps borrow the full duration of
// the previous track; timestamps at or past the current track's duration
// advance into the next track. At the book boundaries the result clamps to
// (first track, 0) or (last track, last track's duration).
//
// Clamping is the default policy; callers that need to detect overflow use
// AddChecked.
func (p Position) Add(delta float64) Position {
	pos, _ := p.add(delta, true)
	return pos
}

// AddChecked is the erroring variant of Add: instead of clamping at the
// book boundaries it returns OutOfBounds, leaving p untouched.
func (p Position) AddChecked(delta float64) (Position, error) {
	return p.add(delta, false)
}

func (p Position) add(delta float64, clamp bool) (Position, error) {
	t := p.Track
	ts := p.Timestamp + delta

	for ts < 0 {
		prev := p.List.Previous(t)
		if prev == nil {
			if clamp {
				return Position{Track: p.List.First(), Timestamp: 0, List: p.List}, nil
			}
			return p, errors.OutOfBoundsf("position %.3fs before start of book", -ts)
		}
		t = prev
		ts += t.Duration
	}

	for ts >= t.Duration {
		next := p.List.Next(t)
		if next == nil {
			// The exact end of the last track is a valid position.
			if ts == t.Duration {
				break
			}
			if clamp {
				return Position{Track: t, Timestamp: t.Duration, List: p.List}, nil
			}
			return p, errors.OutOfBoundsf("position %.3fs past end of book", ts-t.Duration)
		}
		ts -= t.Duration
		t = next
	}

	return Position{Track: t, Timestamp: ts, List: p.List}, nil
}
