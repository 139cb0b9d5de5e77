// Package convert turns the placeholder notes of a chart section into
// lyric and phrase events.
package convert

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/leafo/keystolyrics/internal/align"
	"github.com/leafo/keystolyrics/internal/chart"
	"github.com/leafo/keystolyrics/internal/lyrics"
)

// Target is where generated events are written
type Target string

const (
	// TargetSection replaces the markers inside the placeholder section
	TargetSection Target = "section"
	// TargetEvents merges into [Events] and strips the markers
	TargetEvents Target = "events"
)

const eventsSection = "Events"

// Options control a conversion. Lanes set to -1 are disabled.
type Options struct {
	Section    string
	LyricLane  int
	StartLane  int
	EndLane    int
	Target     Target
	GapBeats   float64
	LineBreaks bool
	EndOffset  uint32
	// Blank pairs every lyric marker with an empty syllable instead of
	// reading a source.
	Blank bool
}

// DefaultOptions follows the keyboard lane layout: red (1) starts a
// phrase, yellow (2) is a syllable, blue (3) ends a phrase.
func DefaultOptions() Options {
	return Options{
		Section:    "ExpertKeyboard",
		LyricLane:  2,
		StartLane:  1,
		EndLane:    3,
		Target:     TargetSection,
		GapBeats:   2,
		LineBreaks: true,
	}
}

// Report summarises a conversion
type Report struct {
	Section string
	Markers int
	Lyrics  int
	Phrases int
	// Unchanged is set when the section had no marker notes
	Unchanged bool
	Warnings  []Warning
}

func (o Options) role(lane uint8) (align.Role, bool) {
	switch int(lane) {
	case o.LyricLane:
		return align.Lyric, true
	case o.StartLane:
		return align.PhraseStart, true
	case o.EndLane:
		return align.PhraseEnd, true
	}
	return 0, false
}

// Policy derives the phrase policy, converting the beat gap into ticks
func (o Options) Policy(resolution int) align.Policy {
	policy := align.Policy{
		LineBreaks: o.LineBreaks,
		EndOffset:  o.EndOffset,
	}
	if o.GapBeats > 0 {
		policy.GapTicks = uint32(math.Round(o.GapBeats * float64(resolution)))
	}
	return policy
}

// Convert rewrites the placeholder section of doc in place. When source is
// nil the syllables come from hint events in the section itself. On error
// the document is left untouched.
func Convert(doc *chart.Document, source lyrics.Source, opts Options) (*Report, error) {
	section := doc.Section(opts.Section)
	if section == nil {
		return nil, fmt.Errorf("%w: [%s]", ErrMissingSection, opts.Section)
	}

	report := &Report{Section: opts.Section}

	var markers []align.Marker
	var hints []string
	var kept []chart.Event
	lyricMarkers := 0

	for _, event := range section.Lines {
		switch ev := event.(type) {
		case chart.NoteEvent:
			if role, ok := opts.role(ev.Lane); ok {
				markers = append(markers, align.Marker{Tick: ev.Tick, Sustain: ev.Sustain, Role: role})
				if role == align.Lyric {
					lyricMarkers++
				}
				continue
			}
		case chart.TimedEvent:
			if ev.Type == "E" && ev.Name() == lyrics.HintEvent {
				hints = append(hints, ev.Arg())
				continue
			}
		}
		kept = append(kept, event)
	}

	report.Markers = len(markers)
	if len(markers) == 0 {
		report.Unchanged = true
		return report, nil
	}

	switch {
	case opts.Blank:
		source = lyrics.Blank(lyricMarkers)
	case source == nil:
		source = lyrics.FromHints(hints)
	}

	if lyricMarkers > 0 && isEmpty(source) {
		return nil, fmt.Errorf("%w: %d lyric markers in [%s] but no syllables", lyrics.ErrEmpty, lyricMarkers, opts.Section)
	}

	result, err := align.Align(markers, source.Syllables(), opts.Policy(doc.Resolution()))
	if err != nil {
		return nil, fmt.Errorf("error aligning [%s]: %w", opts.Section, err)
	}

	generated := make([]chart.Event, len(result.Items))
	for i, item := range result.Items {
		generated[i] = chart.NewTextEvent(item.Tick, item.Event())
	}

	switch opts.Target {
	case TargetEvents:
		events := doc.Section(eventsSection)
		if events == nil {
			events = chart.NewSection(eventsSection, section.LineEnding())
			doc.InsertBefore(events, opts.Section)
		}
		events.Replace(mergeByTick(events.Lines, generated))
		section.Replace(kept)
	default:
		section.Replace(mergeByTick(kept, generated))
	}

	report.Lyrics = result.Lyrics
	report.Phrases = result.Phrases

	if result.Unused > 0 {
		report.Warnings = append(report.Warnings, Warning{
			Kind:    KindUnusedSyllables,
			Count:   result.Unused,
			Message: fmt.Sprintf("%d syllables left over after %d lyric markers", result.Unused, result.Lyrics),
		})
	}

	return report, nil
}

func isEmpty(source lyrics.Source) bool {
	for range source.Syllables() {
		return false
	}
	return true
}

type tickedEvent struct {
	tick  uint32
	event chart.Event
}

// mergeByTick appends generated after existing and stable sorts by tick.
// Raw lines travel with the event before them, and existing events stay
// ahead of generated ones on the same tick.
func mergeByTick(existing, generated []chart.Event) []chart.Event {
	lines := make([]tickedEvent, 0, len(existing)+len(generated))

	var tick uint32
	for _, event := range existing {
		if t, ok := chart.TickOf(event); ok {
			tick = t
		}
		lines = append(lines, tickedEvent{tick: tick, event: event})
	}
	for _, event := range generated {
		t, _ := chart.TickOf(event)
		lines = append(lines, tickedEvent{tick: t, event: event})
	}

	slices.SortStableFunc(lines, func(a, b tickedEvent) int {
		return cmp.Compare(a.tick, b.tick)
	})

	merged := make([]chart.Event, len(lines))
	for i, line := range lines {
		merged[i] = line.event
	}
	return merged
}
