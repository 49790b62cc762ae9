// Command tocinspect loads an audiobook manifest, builds the track list and
// table of contents, and prints the chapter layout. Optional probe positions
// show which chapter a given point in the book resolves to.
//
// Usage:
//
//	tocinspect -manifest book.json
//	tocinspect -manifest book.json -probe 0:1409 -probe 1:0
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/thepalaceproject/audiobook-toolkit/internal/config"
	"github.com/thepalaceproject/audiobook-toolkit/internal/logger"
	"github.com/thepalaceproject/audiobook-toolkit/internal/manifest"
	"github.com/thepalaceproject/audiobook-toolkit/internal/toc"
	"github.com/thepalaceproject/audiobook-toolkit/internal/track"
)

type probeList []string

func (p *probeList) String() string { return strings.Join(*p, ",") }

func (p *probeList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func main() {
	var probes probeList
	manifestPath := flag.String("manifest", "", "Path to the audiobook manifest JSON")
	configPath := flag.String("config", "", "Path to an optional YAML config file")
	flag.Var(&probes, "probe", "Position to resolve, as trackIndex:seconds (repeatable)")
	flag.Parse()

	if *manifestPath == "" {
		log.Fatal("Usage: tocinspect -manifest <manifest.json> [-probe trackIndex:seconds]")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.New(logger.Config{
		Format: cfg.Logger.Format,
		Level:  logger.ParseLevel(cfg.Logger.Level),
	})

	file, err := os.Open(*manifestPath)
	if err != nil {
		logg.Fatal("Failed to open manifest", "error", err)
	}
	defer file.Close()

	m, err := manifest.Decode(file)
	if err != nil {
		logg.Fatal("Failed to decode manifest", "error", err)
	}

	tracks, err := m.TrackList(nil)
	if err != nil {
		logg.Fatal("Failed to build track list", "error", err)
	}

	contents, err := toc.FromManifest(tracks, m)
	if err != nil {
		// A partial TOC is still worth printing.
		logg.Warn("TOC built with errors", "error", err)
	}

	fmt.Printf("Title:    %s\n", m.Metadata.Title)
	fmt.Printf("Scheme:   %s\n", m.DRMScheme())
	fmt.Printf("Tracks:   %d (%.1f sec total)\n", tracks.Len(), tracks.TotalDuration())
	fmt.Printf("Chapters: %d\n\n", contents.Count())

	for _, c := range contents.Chapters() {
		fmt.Printf("  [%d] %s (track %d @ %.1fs, %.1f sec)\n",
			c.Index, c.Title,
			c.Position.Track.Index, c.Position.Timestamp,
			c.Duration)
	}

	for _, probe := range probes {
		pos, err := parseProbe(tracks, probe)
		if err != nil {
			logg.Error("Invalid probe", "probe", probe, "error", err)
			continue
		}
		c, err := contents.ChapterAt(pos)
		if err != nil {
			logg.Error("Probe resolved to no chapter", "probe", probe, "error", err)
			continue
		}
		offset, _ := contents.ChapterOffset(pos)
		fmt.Printf("\n%s -> %q (%.1fs into the chapter)\n", pos, c.Title, offset)
	}
}

// parseProbe parses "trackIndex:seconds" into a position.
func parseProbe(tracks *track.List, probe string) (track.Position, error) {
	idxStr, secStr, ok := strings.Cut(probe, ":")
	if !ok {
		return track.Position{}, fmt.Errorf("expected trackIndex:seconds, got %q", probe)
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return track.Position{}, fmt.Errorf("bad track index %q: %w", idxStr, err)
	}
	sec, err := strconv.ParseFloat(secStr, 64)
	if err != nil {
		return track.Position{}, fmt.Errorf("bad seconds %q: %w", secStr, err)
	}
	t := tracks.ByIndex(idx)
	if t == nil {
		return track.Position{}, fmt.Errorf("no track at index %d", idx)
	}
	return track.NewPosition(tracks, t, sec), nil
}
