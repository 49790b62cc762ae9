// Package player tracks per-session playback state: the current position,
// the chapter it resolves to, and skip/seek arithmetic. All state lives on
// the session instance; nothing here is process-wide.
package player

import (
	"sync"

	"github.com/google/uuid"

	"github.com/thepalaceproject/audiobook-toolkit/internal/errors"
	"github.com/thepalaceproject/audiobook-toolkit/internal/logger"
	"github.com/thepalaceproject/audiobook-toolkit/internal/toc"
	"github.com/thepalaceproject/audiobook-toolkit/internal/track"
)

// DefaultSkipInterval is the seconds skipped by SkipForward/SkipBack when
// the caller does not configure one.
const DefaultSkipInterval = 30.0

// Session owns playback state for one audiobook. It is safe for use from
// the playback callback thread and the UI thread concurrently.
type Session struct {
	mu      sync.Mutex
	id      string
	tracks  *track.List
	toc     *toc.TOC
	pos     track.Position
	chapter toc.Chapter
	// waitingForPlayer debounces UI updates while a seek is in flight.
	waitingForPlayer bool
	skipInterval     float64
	log              *logger.Logger
}

// NewSession starts a session at the beginning of the book.
func NewSession(tracks *track.List, contents *toc.TOC, log *logger.Logger) (*Session, error) {
	if tracks == nil || tracks.Len() == 0 {
		return nil, errors.Validation("session requires a non-empty track list")
	}
	if contents == nil || contents.Count() == 0 {
		return nil, errors.Validation("session requires a table of contents")
	}
	if log == nil {
		log = logger.Discard()
	}

	sessionID := uuid.NewString()
	s := &Session{
		id:           sessionID,
		tracks:       tracks,
		toc:          contents,
		pos:          track.NewPosition(tracks, tracks.First(), 0),
		skipInterval: DefaultSkipInterval,
		log:          log.WithField("session_id", sessionID),
	}

	c, err := contents.ChapterAt(s.pos)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNoChapterFound, "TOC does not cover the start of the book")
	}
	s.chapter = c
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SetSkipInterval overrides the skip distance in seconds.
func (s *Session) SetSkipInterval(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds > 0 {
		s.skipInterval = seconds
	}
}

// Position returns the current playback position.
func (s *Session) Position() track.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// CurrentChapter returns the chapter the current position resolves to.
func (s *Session) CurrentChapter() toc.Chapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chapter
}

// Tick advances the session to a position reported by the platform player
// and re-resolves the chapter. Returns the chapter and whether playback
// crossed into a different chapter since the previous tick.
//
// A NoChapterFound here is an invariant violation in the TOC; it is logged
// loudly and the previous chapter is retained so a display glitch does not
// cascade, but the error is surfaced to the caller.
func (s *Session) Tick(pos track.Position) (toc.Chapter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos.List != s.tracks {
		return s.chapter, false, errors.DifferentTracks("tick position belongs to another track list")
	}
	s.pos = pos

	c, err := s.toc.ChapterAt(pos)
	if err != nil {
		s.log.Error("position resolved to no chapter",
			"position", pos.String(),
			"error", err,
		)
		return s.chapter, false, err
	}

	transitioned := c.Index != s.chapter.Index
	if transitioned {
		s.log.Info("chapter transition",
			"from", s.chapter.Title,
			"to", c.Title,
			"position", pos.String(),
		)
	}
	s.chapter = c
	return c, transitioned, nil
}

// Seek moves the session to an absolute position within the same book.
func (s *Session) Seek(pos track.Position) (track.Position, error) {
	if pos.List != s.tracks {
		return s.Position(), errors.DifferentTracks("seek position belongs to another track list")
	}
	normalized := pos.Add(0)
	_, _, err := s.Tick(normalized)
	return normalized, err
}

// SkipForward moves ahead by the configured skip interval, clamped at the
// end of the book.
func (s *Session) SkipForward() (track.Position, error) {
	s.mu.Lock()
	interval := s.skipInterval
	target := s.pos.Add(interval)
	s.mu.Unlock()
	_, _, err := s.Tick(target)
	return target, err
}

// SkipBack moves back by the configured skip interval, clamped at the
// start of the book.
func (s *Session) SkipBack() (track.Position, error) {
	s.mu.Lock()
	interval := s.skipInterval
	target := s.pos.Add(-interval)
	s.mu.Unlock()
	_, _, err := s.Tick(target)
	return target, err
}

// TimeRemainingInBook returns the seconds of content left after the
// current position.
func (s *Session) TimeRemainingInBook() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := track.NewPosition(s.tracks, s.tracks.First(), 0)
	elapsed, err := s.pos.Difference(start)
	if err != nil {
		return 0
	}
	remaining := s.tracks.TotalDuration() - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TimeRemainingInChapter returns the seconds left in the current chapter,
// never negative.
func (s *Session) TimeRemainingInChapter() (float64, error) {
	s.mu.Lock()
	pos := s.pos
	s.mu.Unlock()

	offset, err := s.toc.ChapterOffset(pos)
	if err != nil {
		return 0, err
	}
	c, err := s.toc.ChapterAt(pos)
	if err != nil {
		return 0, err
	}
	return c.Duration - offset, nil
}

// SetWaitingForPlayer flags that a seek is in flight and position ticks
// should be debounced until the platform player settles.
func (s *Session) SetWaitingForPlayer(waiting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waitingForPlayer = waiting
}

// WaitingForPlayer reports the debounce flag.
func (s *Session) WaitingForPlayer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitingForPlayer
}
