package manifest

import (
	"strconv"
	"strings"

	"github.com/thepalaceproject/audiobook-toolkit/internal/errors"
)

// ChapterDescriptor is the uniform output of manifest-shape normalization:
// a chapter title, the href of the track it starts on, and the offset in
// seconds into that track. The TOC builder consumes only this shape.
type ChapterDescriptor struct {
	Title  string
	Href   string
	Offset float64
}

// ChapterDescriptors normalizes the manifest into a flat descriptor list.
// Source shapes, in order of preference:
//
//  1. Explicit TOC entries (href + "#t=seconds" fragment, possibly nested).
//  2. Reading-order links carrying titles: one chapter per track.
//  3. Legacy spine links: one chapter per track.
//  4. Flat audio links: one chapter per link.
//
// Malformed entries are skipped and reported via the returned error; the
// descriptor list is still usable (a playable book without a full TOC beats
// no book at all).
func (m *Manifest) ChapterDescriptors() ([]ChapterDescriptor, error) {
	if len(m.TOC) > 0 {
		return m.descriptorsFromTOC()
	}
	if order := m.readingOrder(); len(order) > 0 {
		return descriptorsFromLinks(order), nil
	}
	if audio := m.audioLinks(); len(audio) > 0 {
		return descriptorsFromLinks(audio), nil
	}
	return nil, errors.Validation("manifest has no chapter source")
}

// descriptorsFromTOC flattens explicit TOC entries, children included,
// in document order.
func (m *Manifest) descriptorsFromTOC() ([]ChapterDescriptor, error) {
	var descs []ChapterDescriptor
	var errs []error

	var walk func(entries []TOCEntry)
	walk = func(entries []TOCEntry) {
		for _, e := range entries {
			href, offset, err := SplitFragment(e.Href)
			if err != nil || href == "" {
				errs = append(errs, errors.Validationf("toc entry %q: unusable href", e.Href))
			} else {
				descs = append(descs, ChapterDescriptor{
					Title:  e.Title,
					Href:   href,
					Offset: offset,
				})
			}
			walk(e.Children)
		}
	}
	walk(m.TOC)

	if len(errs) > 0 {
		return descs, errors.Join(errs...)
	}
	return descs, nil
}

// descriptorsFromLinks derives one chapter per link starting at offset zero.
func descriptorsFromLinks(links []Link) []ChapterDescriptor {
	descs := make([]ChapterDescriptor, 0, len(links))
	for _, link := range links {
		href, offset, err := SplitFragment(link.Href)
		if err != nil {
			// Reading-order hrefs rarely carry fragments; fall back to the raw href.
			href, offset = link.Href, 0
		}
		descs = append(descs, ChapterDescriptor{
			Title:  link.Title,
			Href:   href,
			Offset: offset,
		})
	}
	return descs
}

// audioLinks filters the flat links list down to playable audio entries.
func (m *Manifest) audioLinks() []Link {
	var audio []Link
	for _, link := range m.Links {
		if strings.HasPrefix(link.Type, "audio/") {
			audio = append(audio, link)
		}
	}
	return audio
}

// SplitFragment splits an href into its base and the offset encoded in a
// media-fragment suffix. Supported forms: "#t=30", "#t=30.5", and the
// range form "#t=30,90" (only the start matters here). An href without a
// fragment has offset zero.
func SplitFragment(href string) (base string, offset float64, err error) {
	base, fragment, found := strings.Cut(href, "#")
	if !found || fragment == "" {
		return base, 0, nil
	}

	raw, ok := strings.CutPrefix(fragment, "t=")
	if !ok {
		return base, 0, errors.Validationf("unsupported fragment %q", fragment)
	}
	if start, _, isRange := strings.Cut(raw, ","); isRange {
		raw = start
	}

	offset, perr := strconv.ParseFloat(raw, 64)
	if perr != nil || offset < 0 {
		return base, 0, errors.Validationf("invalid time fragment %q", fragment)
	}
	return base, offset, nil
}
