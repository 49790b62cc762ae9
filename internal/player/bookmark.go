package player

import (
	"time"

	"github.com/thepalaceproject/audiobook-toolkit/internal/errors"
	"github.com/thepalaceproject/audiobook-toolkit/internal/id"
	"github.com/thepalaceproject/audiobook-toolkit/internal/track"
)

// Bookmark is a persisted point in the book. The serialized form is the
// interop contract with existing bookmark stores: a stable track key plus a
// timestamp in seconds, nothing richer.
type Bookmark struct {
	ID           string    `json:"id"`
	TrackKey     string    `json:"track_key"`
	Timestamp    float64   `json:"timestamp"`
	ChapterTitle string    `json:"chapter_title,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Bookmark captures the current position as a bookmark.
func (s *Session) Bookmark() (Bookmark, error) {
	bmID, err := id.Generate("bm")
	if err != nil {
		return Bookmark{}, errors.Wrap(err, errors.CodeInternal, "bookmark id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return Bookmark{
		ID:           bmID,
		TrackKey:     s.pos.Track.Key,
		Timestamp:    s.pos.Timestamp,
		ChapterTitle: s.chapter.Title,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Restore resolves a bookmark against the session's track list. The
// timestamp goes through position normalization, so a bookmark persisted a
// hair past track end still lands on a playable position.
func (s *Session) Restore(b Bookmark) (track.Position, error) {
	t := s.tracks.ByKey(b.TrackKey)
	if t == nil {
		return track.Position{}, errors.NotFoundf("bookmark references unknown track %q", b.TrackKey)
	}
	if b.Timestamp < 0 {
		return track.Position{}, errors.Validationf("bookmark has negative timestamp %f", b.Timestamp)
	}

	pos := track.NewPosition(s.tracks, t, 0).Add(b.Timestamp)
	return s.Seek(pos)
}
