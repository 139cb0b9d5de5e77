package chart

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedEvent is returned when a line has the shape of an event but
// its numeric fields cannot be parsed.
var ErrMalformedEvent = errors.New("malformed event")

// Event is a single line of a section body. It is one of NoteEvent,
// TimedEvent or RawLine.
type Event interface {
	// source returns the line as it appeared in the input, or "" when the
	// event was built in memory.
	source() string
}

// NoteEvent is a `tick = N lane sustain` line
type NoteEvent struct {
	Tick    uint32
	Lane    uint8
	Sustain uint32
	Line    string
}

// TimedEvent is any other `tick = TYPE payload` line: E (text event),
// S (special phrase), B (tempo), TS (time signature) or A (anchor).
type TimedEvent struct {
	Tick    uint32
	Type    string
	Payload string
	Line    string
}

// RawLine is kept verbatim: metadata, comments and anything unrecognised.
type RawLine struct {
	Text string
}

func (e NoteEvent) source() string  { return e.Line }
func (e TimedEvent) source() string { return e.Line }
func (e RawLine) source() string    { return e.Text }

// event type codes that make a `lhs = rhs` line a timed event
var eventTypes = map[string]bool{
	"N":  true,
	"E":  true,
	"S":  true,
	"B":  true,
	"TS": true,
	"A":  true,
}

// Text returns the payload with surrounding quotes removed
func (e TimedEvent) Text() string {
	return unquote(e.Payload)
}

// Name returns the first word of a text event, e.g. "lyric" for
// `E "lyric hel-"`.
func (e TimedEvent) Name() string {
	name, _, _ := strings.Cut(e.Text(), " ")
	return name
}

// Arg returns the text after the event name.
func (e TimedEvent) Arg() string {
	_, arg, _ := strings.Cut(e.Text(), " ")
	return arg
}

// NewTextEvent builds an unquoted E event; quoting is decided by the
// section it is written into.
func NewTextEvent(tick uint32, text string) TimedEvent {
	return TimedEvent{Tick: tick, Type: "E", Payload: text}
}

// TickOf reports the tick of an event, false for raw lines.
func TickOf(e Event) (uint32, bool) {
	switch ev := e.(type) {
	case NoteEvent:
		return ev.Tick, true
	case TimedEvent:
		return ev.Tick, true
	}
	return 0, false
}

// ParseEvent classifies a single section line. Note shape is tried first,
// then the generic event shape, and anything else is a RawLine.
func ParseEvent(line string) (Event, error) {
	lhs, rhs, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return RawLine{Text: line}, nil
	}

	fields := strings.Fields(rhs)
	if len(fields) == 0 || !eventTypes[fields[0]] {
		return RawLine{Text: line}, nil
	}

	tickStr := strings.TrimSpace(lhs)
	tick, err := strconv.ParseUint(tickStr, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tick value '%s'", ErrMalformedEvent, tickStr)
	}

	eventType := fields[0]

	if eventType == "N" {
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: note without lane", ErrMalformedEvent)
		}

		lane, err := strconv.ParseUint(fields[1], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid lane '%s'", ErrMalformedEvent, fields[1])
		}

		var sustain uint64
		if len(fields) >= 3 {
			sustain, err = strconv.ParseUint(fields[2], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid sustain '%s'", ErrMalformedEvent, fields[2])
			}
		}

		return NoteEvent{
			Tick:    uint32(tick),
			Lane:    uint8(lane),
			Sustain: uint32(sustain),
			Line:    line,
		}, nil
	}

	payload := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rhs), eventType))

	return TimedEvent{
		Tick:    uint32(tick),
		Type:    eventType,
		Payload: payload,
		Line:    line,
	}, nil
}

func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}
	return value
}
