// Package chart reads and writes the line-oriented .chart format:
//
//	[Song]
//	{
//	  Resolution = 192
//	}
//	[ExpertKeyboard]
//	{
//	  768 = N 2 0
//	  960 = E solo
//	}
//
// A Document keeps every input line so that sections the caller does not
// modify are written back byte for byte, including blank lines, a
// leading BOM and CRLF line endings.
package chart

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const defaultResolution = 192

// Document is a parsed chart file
type Document struct {
	Sections []*Section
	// Trailer holds the lines after the last section. A final empty
	// entry means the input ended with a newline.
	Trailer []string
}

// Section is one `[Name] { ... }` block
type Section struct {
	Name string
	// Prefix holds stray lines between the previous section and this
	// section's header.
	Prefix []string
	// Head holds the header line and everything up to and including the
	// opening brace.
	Head  []string
	Lines []Event
	// Tail holds the closing brace, empty when the input ended inside
	// the section.
	Tail []string

	indent string
}

// MalformedEventError locates an unparsable event line in the input
type MalformedEventError struct {
	Section string
	Line    int
	Text    string
	Err     error
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("error parsing line %d '%s' in section '%s': %v", e.Line, strings.TrimSpace(e.Text), e.Section, e.Err)
}

func (e *MalformedEventError) Unwrap() error {
	return e.Err
}

// OpenFile reads and parses a chart from disk
func OpenFile(filename string) (*Document, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening chart file: %w", err)
	}
	defer file.Close()

	doc, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("error parsing chart file: %w", err)
	}

	return doc, nil
}

// Parse reads a whole chart. It only fails on I/O errors and on lines
// that look like events but carry bad numbers; unknown lines are kept as
// RawLine.
func Parse(reader io.Reader) (*Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading chart file: %w", err)
	}

	doc := &Document{}
	var pending []string
	var current *Section
	inBody := false

	for i, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))

		if name, ok := sectionHeader(trimmed); ok {
			current = &Section{
				Name:   name,
				Prefix: pending,
				Head:   []string{line},
			}
			doc.Sections = append(doc.Sections, current)
			pending = nil
			inBody = false
			continue
		}

		switch {
		case current == nil:
			pending = append(pending, line)
		case !inBody:
			// between the header and the opening brace
			if len(current.Tail) > 0 {
				pending = append(pending, line)
				continue
			}
			current.Head = append(current.Head, line)
			if trimmed == "{" {
				inBody = true
			}
		case trimmed == "}":
			current.Tail = []string{line}
			inBody = false
		default:
			event, err := current.parseLine(line)
			if err != nil {
				return nil, &MalformedEventError{
					Section: current.Name,
					Line:    i + 1,
					Text:    line,
					Err:     err,
				}
			}
			current.Lines = append(current.Lines, event)
		}
	}

	// lines after a closed section belong to the document, not the section
	doc.Trailer = pending

	return doc, nil
}

func sectionHeader(line string) (string, bool) {
	if len(line) < 2 || !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		return "", false
	}
	name := strings.TrimSpace(line[1 : len(line)-1])
	if name == "" {
		return "", false
	}
	return name, true
}

func (s *Section) parseLine(line string) (Event, error) {
	// song metadata is key/value, never events
	if s.Name == "Song" {
		return RawLine{Text: line}, nil
	}
	return ParseEvent(line)
}

// NewSection creates an empty, closed section using the given line ending
// suffix ("" or "\r").
func NewSection(name, eol string) *Section {
	return &Section{
		Name: name,
		Head: []string{"[" + name + "]" + eol, "{" + eol},
		Tail: []string{"}" + eol},
	}
}

// Section returns the first section with the given name, or nil.
func (d *Document) Section(name string) *Section {
	for _, section := range d.Sections {
		if section.Name == name {
			return section
		}
	}
	return nil
}

// InsertBefore places section ahead of the first section named before,
// or at the end of the document when no such section exists.
func (d *Document) InsertBefore(section *Section, before string) {
	for i, existing := range d.Sections {
		if existing.Name == before {
			section.Prefix, existing.Prefix = existing.Prefix, nil
			d.Sections = append(d.Sections[:i], append([]*Section{section}, d.Sections[i:]...)...)
			return
		}
	}
	d.Sections = append(d.Sections, section)
}

// Resolution returns the ticks per beat from the [Song] section,
// defaulting to 192.
func (d *Document) Resolution() int {
	song := d.Section("Song")
	if song == nil {
		return defaultResolution
	}

	for _, event := range song.Lines {
		key, value, ok := strings.Cut(event.source(), "=")
		if !ok || strings.TrimSpace(key) != "Resolution" {
			continue
		}
		if val, err := strconv.Atoi(unquote(strings.TrimSpace(value))); err == nil && val > 0 {
			return val
		}
	}

	return defaultResolution
}

// Notes returns the note events of the section in file order
func (s *Section) Notes() []NoteEvent {
	var notes []NoteEvent
	for _, event := range s.Lines {
		if note, ok := event.(NoteEvent); ok {
			notes = append(notes, note)
		}
	}
	return notes
}

// Indent returns the leading whitespace used by the section's body lines
func (s *Section) Indent() string {
	if s.indent != "" {
		return s.indent
	}
	for _, event := range s.Lines {
		line := event.source()
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	}
	return "  "
}

// Replace swaps the body lines, keeping the indentation of the lines
// being replaced for events rendered later.
func (s *Section) Replace(lines []Event) {
	s.indent = s.Indent()
	s.Lines = lines
}

// LineEnding returns "\r" when the section uses CRLF line endings
func (s *Section) LineEnding() string {
	if len(s.Head) > 0 && strings.HasSuffix(s.Head[0], "\r") {
		return "\r"
	}
	return ""
}
