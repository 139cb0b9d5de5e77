// Package lyrics supplies the syllables that get paired with timing
// markers: from a plain lyrics file, from hint events inside the chart,
// from the vocal track of a MIDI file, or blank placeholders.
package lyrics

import (
	"errors"
	"iter"
	"slices"
	"strings"
)

// ErrEmpty is returned when a source has no syllables to offer
var ErrEmpty = errors.New("syllable source is empty")

// Syllable is one fragment of sung text
type Syllable struct {
	Text string
	// EndsWord is false when the next syllable continues the same word
	EndsWord bool
	// EndsPhrase marks an explicit phrase boundary after this syllable,
	// such as a line break in a lyrics file.
	EndsPhrase bool
}

// Source produces syllables in document order. Every call to Syllables
// starts again from the first syllable.
type Source interface {
	Syllables() iter.Seq[Syllable]
}

// List is an in-memory Source
type List []Syllable

func (l List) Syllables() iter.Seq[Syllable] {
	return slices.Values(l)
}

// Blank returns n empty word-final syllables. Converting with it leaves
// empty lyric events to be filled in by hand.
func Blank(n int) List {
	list := make(List, n)
	for i := range list {
		list[i].EndsWord = true
	}
	return list
}

// String joins the syllables back into display text: word-final syllables
// are followed by a space, phrase ends by a newline.
func (l List) String() string {
	var sb strings.Builder
	for i, syllable := range l {
		sb.WriteString(syllable.Text)
		if i == len(l)-1 {
			break
		}
		switch {
		case syllable.EndsPhrase:
			sb.WriteString("\n")
		case syllable.EndsWord:
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// cleanSyllable applies the Rock Band lyric conventions shared by chart
// hints and MIDI vocal tracks:
//   - a trailing "-" joins the syllable to the next one: "Hel-" "lo"
//   - non-pitched "#" / "^" and range divider "%" suffixes are dropped
//   - "=" stands for a literal hyphen: "Ex=" "Girl-" "friend" is "Ex-Girlfriend"
//   - a lone "+" is a slide onto the previous syllable and carries no text
func cleanSyllable(raw string) (Syllable, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" || cleaned == "+" {
		return Syllable{}, false
	}

	cleaned = strings.TrimSuffix(cleaned, "#")
	cleaned = strings.TrimSuffix(cleaned, "^")
	cleaned = strings.TrimSuffix(cleaned, "%")

	endsWord := true
	switch {
	case strings.HasSuffix(cleaned, "-"):
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "-"))
		endsWord = false
	case strings.HasSuffix(cleaned, "="):
		// the hyphen is shown and the next syllable still joins on
		endsWord = false
	}

	cleaned = strings.ReplaceAll(cleaned, "=", "-")
	if cleaned == "" {
		return Syllable{}, false
	}

	return Syllable{Text: cleaned, EndsWord: endsWord}, true
}
