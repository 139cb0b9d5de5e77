package convert

import (
	"errors"

	"github.com/leafo/keystolyrics/internal/align"
	"github.com/leafo/keystolyrics/internal/chart"
	"github.com/leafo/keystolyrics/internal/lyrics"
)

var (
	// ErrMissingSection is returned when the chart has no placeholder section
	ErrMissingSection = errors.New("missing placeholder section")
	// ErrIO marks failures reading or writing files and streams
	ErrIO = errors.New("i/o error")
)

// Kind classifies conversion failures and warnings
type Kind int

const (
	KindUnknown Kind = iota
	KindMalformedEvent
	KindEmptySyllableSource
	KindInsufficientSyllables
	KindUnusedSyllables
	KindMissingPlaceholderSection
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindMalformedEvent:
		return "MalformedEvent"
	case KindEmptySyllableSource:
		return "EmptySyllableSource"
	case KindInsufficientSyllables:
		return "InsufficientSyllables"
	case KindUnusedSyllables:
		return "UnusedSyllables"
	case KindMissingPlaceholderSection:
		return "MissingPlaceholderSection"
	case KindIO:
		return "IOError"
	}
	return "Error"
}

// KindOf finds the kind of a fatal error anywhere in its chain
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, chart.ErrMalformedEvent):
		return KindMalformedEvent
	case errors.Is(err, lyrics.ErrEmpty):
		return KindEmptySyllableSource
	case errors.Is(err, align.ErrInsufficientSyllables):
		return KindInsufficientSyllables
	case errors.Is(err, ErrMissingSection):
		return KindMissingPlaceholderSection
	case errors.Is(err, ErrIO):
		return KindIO
	}
	return KindUnknown
}

// Warning is a non-fatal condition found during conversion
type Warning struct {
	Kind    Kind
	Message string
	Count   int
}

func (w Warning) String() string {
	return w.Kind.String() + ": " + w.Message
}
