// Package align pairs syllables with timing markers and groups the
// resulting lyric events into phrases.
package align

import (
	"errors"
	"fmt"
	"iter"

	"github.com/leafo/keystolyrics/internal/lyrics"
)

// ErrInsufficientSyllables is returned when lyric markers remain after
// the syllable source runs out.
var ErrInsufficientSyllables = errors.New("insufficient syllables")

// Role is what a marker note stands for
type Role int

const (
	Lyric Role = iota
	PhraseStart
	PhraseEnd
)

// Marker is a placeholder note in file order
type Marker struct {
	Tick    uint32
	Sustain uint32
	Role    Role
}

// ItemKind is the kind of a generated event
type ItemKind int

const (
	LyricItem ItemKind = iota
	PhraseStartItem
	PhraseEndItem
)

func (k ItemKind) String() string {
	switch k {
	case LyricItem:
		return "lyric"
	case PhraseStartItem:
		return "phrase_start"
	case PhraseEndItem:
		return "phrase_end"
	}
	return fmt.Sprintf("ItemKind(%d)", int(k))
}

// Item is one generated event. Text is only set for lyrics and already
// carries the "+" continuation prefix.
type Item struct {
	Tick uint32
	Kind ItemKind
	Text string
}

// Event returns the chart text event body, e.g. "lyric +thm"
func (i Item) Event() string {
	if i.Kind == LyricItem {
		return "lyric " + i.Text
	}
	return i.Kind.String()
}

// Policy decides where automatic phrase breaks go
type Policy struct {
	// GapTicks breaks a phrase when the silence between the end of a
	// word-final note and the next lyric note is longer than this. Zero
	// disables gap breaks.
	GapTicks uint32
	// LineBreaks honours explicit phrase ends from the syllable source
	LineBreaks bool
	// EndOffset is the minimum distance from the last lyric of a phrase
	// to its phrase_end. A longer note sustain wins.
	EndOffset uint32
}

// Result is the aligned event sequence
type Result struct {
	Items   []Item
	Lyrics  int
	Phrases int
	// Unused counts syllables left over once the markers ran out
	Unused int
}

// InsufficientSyllablesError reports the first lyric marker that had no
// syllable to go with it.
type InsufficientSyllablesError struct {
	Marker    int
	Tick      uint32
	Available int
}

func (e *InsufficientSyllablesError) Error() string {
	return fmt.Sprintf("%v: marker %d at tick %d has no syllable (%d available)", ErrInsufficientSyllables, e.Marker, e.Tick, e.Available)
}

func (e *InsufficientSyllablesError) Unwrap() error {
	return ErrInsufficientSyllables
}

type aligner struct {
	markers []Marker
	policy  Policy
	result  Result

	open      bool
	openTick  uint32
	lastLyric int // index into markers, -1 when the open phrase has no lyric
}

// Align walks markers and syllables in lockstep. Markers are processed in
// the order given, so notes sharing a tick keep their file order.
func Align(markers []Marker, syllables iter.Seq[lyrics.Syllable], policy Policy) (*Result, error) {
	next, stop := iter.Pull(syllables)
	defer stop()

	a := &aligner{markers: markers, policy: policy, lastLyric: -1}
	continuing := false

	for i, marker := range markers {
		switch marker.Role {
		case PhraseStart:
			if a.open {
				a.close(a.closeTick(i))
			}
			a.start(marker.Tick)

		case PhraseEnd:
			if a.open {
				a.close(marker.Tick)
			}

		case Lyric:
			syllable, ok := next()
			if !ok {
				return nil, &InsufficientSyllablesError{Marker: i, Tick: marker.Tick, Available: a.result.Lyrics}
			}

			if !a.open {
				a.start(marker.Tick)
			}

			text := syllable.Text
			if continuing {
				text = "+" + text
			}
			a.emit(Item{Tick: marker.Tick, Kind: LyricItem, Text: text})
			a.result.Lyrics++
			a.lastLyric = i
			continuing = !syllable.EndsWord

			if syllable.EndsWord && a.breaksAfter(i, syllable) {
				a.close(a.closeTick(i + 1))
			}
		}
	}

	if a.open {
		a.close(a.closeTick(len(markers)))
	}

	for {
		if _, ok := next(); !ok {
			break
		}
		a.result.Unused++
	}

	return &a.result, nil
}

func (a *aligner) emit(item Item) {
	a.result.Items = append(a.result.Items, item)
}

func (a *aligner) start(tick uint32) {
	a.emit(Item{Tick: tick, Kind: PhraseStartItem})
	a.result.Phrases++
	a.open = true
	a.openTick = tick
	a.lastLyric = -1
}

func (a *aligner) close(tick uint32) {
	a.emit(Item{Tick: tick, Kind: PhraseEndItem})
	a.open = false
}

// breaksAfter reports whether the phrase ends after the word-final lyric
// at index i. An explicit phrase marker coming next takes precedence.
func (a *aligner) breaksAfter(i int, syllable lyrics.Syllable) bool {
	if i+1 >= len(a.markers) || a.markers[i+1].Role != Lyric {
		return false
	}

	if a.policy.LineBreaks && syllable.EndsPhrase {
		return true
	}

	if a.policy.GapTicks == 0 {
		return false
	}

	current := a.markers[i]
	end := current.Tick + current.Sustain
	following := a.markers[i+1].Tick
	return following > end && following-end > a.policy.GapTicks
}

// closeTick places the phrase_end for the open phrase: after its last
// lyric by the sustain or EndOffset, never past the marker at index next.
func (a *aligner) closeTick(next int) uint32 {
	if a.lastLyric < 0 {
		if next < len(a.markers) {
			return max(a.openTick, a.markers[next].Tick)
		}
		return a.openTick
	}

	last := a.markers[a.lastLyric]
	tick := last.Tick + max(last.Sustain, a.policy.EndOffset)
	if next < len(a.markers) {
		tick = min(tick, a.markers[next].Tick)
	}
	return tick
}
