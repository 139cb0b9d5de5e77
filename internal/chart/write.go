package chart

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// WriteTo renders the document in the .chart text format. Lines that came
// from the input are written unchanged; events built in memory are
// rendered in the wire shape of their section.
func (d *Document) WriteTo(writer io.Writer) (int64, error) {
	var lines []string

	for _, section := range d.Sections {
		lines = append(lines, section.Prefix...)
		lines = append(lines, section.Head...)

		indent := section.Indent()
		eol := section.LineEnding()
		for _, event := range section.Lines {
			if line := event.source(); line != "" || isRaw(event) {
				lines = append(lines, line)
				continue
			}
			lines = append(lines, indent+section.render(event)+eol)
		}

		lines = append(lines, section.Tail...)
	}
	lines = append(lines, d.Trailer...)

	n, err := io.WriteString(writer, strings.Join(lines, "\n"))
	if err != nil {
		return int64(n), fmt.Errorf("error writing chart file: %w", err)
	}
	return int64(n), nil
}

// Bytes returns the rendered document
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	d.WriteTo(&buf)
	return buf.Bytes()
}

func (d *Document) String() string {
	return string(d.Bytes())
}

func isRaw(event Event) bool {
	_, ok := event.(RawLine)
	return ok
}

// render formats an event built in memory. Text events in [Events] are
// quoted like the rest of that section, track sections use bare text.
func (s *Section) render(event Event) string {
	switch ev := event.(type) {
	case NoteEvent:
		return fmt.Sprintf("%d = N %d %d", ev.Tick, ev.Lane, ev.Sustain)
	case TimedEvent:
		payload := ev.Payload
		if ev.Type == "E" && s.Name == "Events" && unquote(payload) == payload {
			payload = `"` + payload + `"`
		}
		if payload == "" {
			return fmt.Sprintf("%d = %s", ev.Tick, ev.Type)
		}
		return fmt.Sprintf("%d = %s %s", ev.Tick, ev.Type, payload)
	}
	return ""
}
