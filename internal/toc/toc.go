// Package toc builds the table of contents for an audiobook and resolves
// playback positions to chapters.
package toc

import (
	"fmt"
	"sort"

	"github.com/thepalaceproject/audiobook-toolkit/internal/errors"
	"github.com/thepalaceproject/audiobook-toolkit/internal/manifest"
	"github.com/thepalaceproject/audiobook-toolkit/internal/track"
)

// ForwardTitle names the synthetic front-matter chapter inserted when the
// first authored chapter does not start at the very beginning of the book.
const ForwardTitle = "Forward"

// Chapter is a named contiguous span of the audiobook: a start position
// plus a computed duration. Durations are derived at build time, never
// authored: each chapter runs to the start of the next; the final chapter
// runs to the end of its own track.
type Chapter struct {
	Title    string
	Position track.Position
	Duration float64
	Index    int
}

// End returns the position one duration past the chapter start. For every
// chapter but the last this equals the next chapter's start.
func (c Chapter) End() track.Position {
	return c.Position.Add(c.Duration)
}

// TOC is the ordered chapter sequence covering one audiobook.
type TOC struct {
	tracks   *track.List
	chapters []Chapter
}

// Build constructs a TOC from normalized chapter descriptors.
//
// Descriptors that reference unknown tracks or offsets past the end of
// their track are skipped and reported through the returned error; the TOC
// built from the remaining descriptors is still returned and usable. The
// construction is deterministic: identical input always produces an
// identical chapter sequence.
func Build(tracks *track.List, descs []manifest.ChapterDescriptor) (*TOC, error) {
	if tracks == nil || tracks.Len() == 0 {
		return nil, errors.Validation("cannot build a TOC for an empty track list")
	}

	var chapters []Chapter
	var errs []error

	for _, d := range descs {
		t := tracks.ByHref(d.Href)
		if t == nil {
			errs = append(errs, errors.NotFoundf("chapter %q references unknown track %q", d.Title, d.Href))
			continue
		}
		if d.Offset > t.Duration {
			errs = append(errs, errors.Validationf("chapter %q starts at %.3fs past end of track %q", d.Title, d.Offset, t.Key))
			continue
		}
		chapters = append(chapters, Chapter{
			Title:    d.Title,
			Position: track.NewPosition(tracks, t, d.Offset),
		})
	}

	if len(chapters) == 0 {
		return &TOC{tracks: tracks}, errors.Join(append(errs, errors.Validation("no usable chapters"))...)
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Position.Before(chapters[j].Position)
	})

	// Front matter before the first authored chapter still belongs to some
	// chapter; cover it with a synthetic one so queries from position zero
	// never fail.
	first := chapters[0].Position
	if first.Track != tracks.First() || first.Timestamp != 0 {
		chapters = append([]Chapter{{
			Title:    ForwardTitle,
			Position: track.NewPosition(tracks, tracks.First(), 0),
		}}, chapters...)
	}

	for i := range chapters {
		if i < len(chapters)-1 {
			d, err := chapters[i+1].Position.Difference(chapters[i].Position)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInternal, "chapter duration")
			}
			chapters[i].Duration = d
		} else {
			chapters[i].Duration = chapters[i].Position.Track.Duration - chapters[i].Position.Timestamp
		}
		if chapters[i].Title == "" {
			chapters[i].Title = fmt.Sprintf("Chapter %d", i+1)
		}
		chapters[i].Index = i
	}

	return &TOC{tracks: tracks, chapters: chapters}, errors.Join(errs...)
}

// FromManifest is a convenience that normalizes the manifest and builds the
// TOC in one step. Shape errors and build errors are joined; the TOC is
// still returned when at least one chapter survived.
func FromManifest(tracks *track.List, m *manifest.Manifest) (*TOC, error) {
	descs, derr := m.ChapterDescriptors()
	t, berr := Build(tracks, descs)
	return t, errors.Join(derr, berr)
}

// Tracks returns the owning track list.
func (t *TOC) Tracks() *track.List {
	return t.tracks
}

// Count returns the number of chapters.
func (t *TOC) Count() int {
	return len(t.chapters)
}

// Chapters returns the chapters in order. The slice is a copy.
func (t *TOC) Chapters() []Chapter {
	out := make([]Chapter, len(t.chapters))
	copy(out, t.chapters)
	return out
}

// Chapter returns the chapter at the given index.
func (t *TOC) Chapter(i int) (Chapter, bool) {
	if i < 0 || i >= len(t.chapters) {
		return Chapter{}, false
	}
	return t.chapters[i], true
}

// ChapterAt resolves a position to the chapter that owns it: the last
// chapter whose start is at or before the position.
//
// Choosing the last such chapter is what makes the end-of-track boundary
// come out right: a timestamp exactly at track.Duration (the platform's
// "did finish playing" position) resolves to the later-starting chapter on
// that track, not the one that merely starts earliest.
//
// NoChapterFound means the TOC does not cover the position. For a
// well-formed TOC that is an invariant violation; callers should log it
// loudly rather than defaulting to the first chapter.
func (t *TOC) ChapterAt(pos track.Position) (Chapter, error) {
	idx := -1
	for i := range t.chapters {
		if t.chapters[i].Position.Compare(pos) <= 0 {
			idx = i
		} else {
			break
		}
	}
	if idx < 0 {
		return Chapter{}, errors.NoChapterFoundf("position %s precedes the first chapter", pos)
	}

	c := t.chapters[idx]
	if idx == len(t.chapters)-1 {
		// The final chapter's upper bound is inclusive; anything past it is
		// an uncovered span (a trailing track with no chapter of its own).
		if pos.Compare(c.End()) > 0 {
			return Chapter{}, errors.NoChapterFoundf("position %s is past the final chapter", pos)
		}
	}
	return c, nil
}

// NextChapter returns the chapter after c, or false at the end.
func (t *TOC) NextChapter(c Chapter) (Chapter, bool) {
	return t.Chapter(c.Index + 1)
}

// PreviousChapter returns the chapter before c, or false at the start.
func (t *TOC) PreviousChapter(c Chapter) (Chapter, bool) {
	return t.Chapter(c.Index - 1)
}

// ChapterOffset returns the elapsed seconds from the resolved chapter's
// start to pos, clamped to [0, chapter duration]. The clamp keeps
// "time remaining" displays from ever going negative when upstream rounding
// pushes a position slightly out of range.
func (t *TOC) ChapterOffset(pos track.Position) (float64, error) {
	c, err := t.ChapterAt(pos)
	if err != nil {
		return 0, err
	}
	offset, err := pos.Difference(c.Position)
	if err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, nil
	}
	if offset > c.Duration {
		return c.Duration, nil
	}
	return offset, nil
}
