// Package manifest holds the decoded audiobook manifest structures and the
// normalization step that turns any supported metadata shape into a uniform
// chapter-descriptor list. Vendor wire formats (license documents, packaging)
// are decoded by external collaborators; this package only consumes the
// already-documented JSON structure.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/thepalaceproject/audiobook-toolkit/internal/errors"
	"github.com/thepalaceproject/audiobook-toolkit/internal/track"
)

// Manifest is a decoded audiobook manifest.
type Manifest struct {
	Metadata     Metadata `json:"metadata" validate:"required"`
	ReadingOrder []Link   `json:"readingOrder,omitempty" validate:"omitempty,dive"`
	// Spine is the legacy name for the reading order; some feeds still use it.
	Spine []Link     `json:"spine,omitempty" validate:"omitempty,dive"`
	TOC   []TOCEntry `json:"toc,omitempty"`
	Links []Link     `json:"links,omitempty"`
}

// Metadata describes the publication.
type Metadata struct {
	Identifier string      `json:"identifier" validate:"required"`
	Title      string      `json:"title" validate:"required"`
	Duration   float64     `json:"duration,omitempty" validate:"gte=0"`
	Encrypted  *Encryption `json:"encrypted,omitempty"`
	DRM        string      `json:"drm,omitempty"`
}

// Encryption describes the encryption scheme applied to the media.
type Encryption struct {
	Scheme string `json:"scheme"`
}

// Link is one entry of the reading order, spine, or links list.
type Link struct {
	Href       string         `json:"href" validate:"required"`
	Title      string         `json:"title,omitempty"`
	Type       string         `json:"type,omitempty"`
	Duration   float64        `json:"duration,omitempty" validate:"gte=0"`
	Properties map[string]any `json:"properties,omitempty"`
}

// TOCEntry is an explicit table-of-contents item: an href with an optional
// "#t=seconds" fragment addressing an offset within a track.
type TOCEntry struct {
	Href     string     `json:"href"`
	Title    string     `json:"title"`
	Children []TOCEntry `json:"children,omitempty"`
}

// Media types that mark a Link as playable audio.
const (
	typeFindawayLicense = "application/vnd.librarysimplified.findaway.license+json"
	typeOverdriveAudio  = "application/x-od-media"
)

var validate = validator.New()

// Decode parses a manifest from JSON and validates the result.
func Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "decode manifest")
	}
	if err := validate.Struct(&m); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "invalid manifest")
	}
	if len(m.ReadingOrder) == 0 && len(m.Spine) == 0 {
		return nil, errors.Validation("manifest has no reading order")
	}
	return &m, nil
}

// readingOrder returns the effective reading order, falling back to the
// legacy spine shape.
func (m *Manifest) readingOrder() []Link {
	if len(m.ReadingOrder) > 0 {
		return m.ReadingOrder
	}
	return m.Spine
}

// DRMScheme detects the DRM scheme from the manifest metadata and link types.
func (m *Manifest) DRMScheme() track.Scheme {
	if m.Metadata.Encrypted != nil && strings.Contains(strings.ToLower(m.Metadata.Encrypted.Scheme), "lcp") {
		return track.SchemeLCP
	}
	switch strings.ToLower(m.Metadata.DRM) {
	case "lcp":
		return track.SchemeLCP
	case "findaway":
		return track.SchemeFindaway
	case "overdrive":
		return track.SchemeOverdrive
	}
	for _, link := range m.readingOrder() {
		switch link.Type {
		case typeFindawayLicense:
			return track.SchemeFindaway
		case typeOverdriveAudio:
			return track.SchemeOverdrive
		}
	}
	return track.SchemeOpenAccess
}

// TrackList builds the ordered track list from the reading order.
// Track keys are stable across runs: "{identifier}-{index}". The factory,
// if non-nil, selects the per-scheme fetch mechanism for each track.
func (m *Manifest) TrackList(factory track.FetcherFactory) (*track.List, error) {
	order := m.readingOrder()
	scheme := m.DRMScheme()

	tracks := make([]*track.Track, 0, len(order))
	for i, link := range order {
		t := &track.Track{
			Key:      fmt.Sprintf("%s-%d", m.Metadata.Identifier, i),
			Href:     link.Href,
			Title:    link.Title,
			Duration: link.Duration,
		}
		if factory != nil {
			t.Fetcher = factory(t, scheme)
		}
		tracks = append(tracks, t)
	}

	return track.NewList(tracks)
}
